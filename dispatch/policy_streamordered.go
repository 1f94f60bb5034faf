//go:build disable_caching_allocator && !disable_async_allocator

package dispatch

// ActivePolicy is PolicyStreamOrdered: the caching allocator is
// disabled but the driver's own async allocator is still in play.
const ActivePolicy = PolicyStreamOrdered
