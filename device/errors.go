package device

import "github.com/cockroachdb/errors"

// ErrOutOfMemory is the error a Traits implementation's Allocate method
// must return (wrapped or marked, so errors.Is still matches) when the
// driver cannot satisfy a single allocation request. It is the per-call
// signal the caching allocator uses to decide whether to flush its cache
// and retry, as opposed to treating the failure as a fatal driver fault.
var ErrOutOfMemory error = errors.New("driver could not satisfy the allocation request")
