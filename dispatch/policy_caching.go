//go:build !disable_caching_allocator

package dispatch

// ActivePolicy is PolicyCaching: this is the default build.
const ActivePolicy = PolicyCaching
