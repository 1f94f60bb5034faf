//go:build disable_caching_allocator && disable_async_allocator

package dispatch

// ActivePolicy is PolicySynchronous: both the caching allocator and the
// driver's async allocator are disabled, so every call is a plain
// synchronous driver allocation.
const ActivePolicy = PolicySynchronous
