package cache

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// CachedBytes is a point-in-time snapshot of an allocator's accounting
// counters: Free is the total size of cached (reusable) blocks, Live is
// the total size of blocks currently checked out by callers, and
// Requested is the sum of the original, pre-rounding request sizes of
// those live blocks.
type CachedBytes struct {
	Free      int64
	Live      int64
	Requested int64
}

// MarshalJSON renders the snapshot for monitoring export. It uses the
// same streaming object writer the rest of this lineage uses for
// allocator diagnostics, rather than reflection-based encoding/json.
func (c CachedBytes) MarshalJSON() ([]byte, error) {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	obj.Name("free").Int(int(c.Free))
	obj.Name("live").Int(int(c.Live))
	obj.Name("requested").Int(int(c.Requested))
	obj.End()

	return writer.Bytes(), writer.Error()
}
