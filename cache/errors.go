package cache

import "github.com/cockroachdb/errors"

// ErrTooLarge is returned by Allocate when the requested size exceeds the
// allocator's largest bin. Callers must not retry; the allocator does not
// fall back to the driver for oversize requests.
var ErrTooLarge error = errors.New("requested allocation exceeds the caching allocator's largest bin")

// ErrOutOfMemory is returned by Allocate when the driver fails to satisfy
// an allocation both before and after the cache has been flushed.
var ErrOutOfMemory error = errors.New("driver allocation failed after flushing the cache")

// ErrDoubleFreeOrForeign is returned by Free when the pointer is not
// currently live on this allocator - either it was already freed, or it
// was never allocated here.
var ErrDoubleFreeOrForeign error = errors.New("attempted to free a pointer that is not live on this allocator")

// ErrLiveAtDestruction is returned by Close when blocks are still live.
// Closing an allocator with outstanding live blocks is a programming
// error in the caller: every buffer must be returned before the
// allocator is torn down.
var ErrLiveAtDestruction error = errors.New("caching allocator closed with live blocks outstanding")

// ErrDriverFault wraps a non-out-of-memory failure reported by the
// underlying driver, propagated verbatim to the caller.
var ErrDriverFault error = errors.New("driver reported a non-OOM failure")
