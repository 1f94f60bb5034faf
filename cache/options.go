package cache

import "golang.org/x/exp/slog"

// Options configures a new Allocator. The zero value is not usable: New
// rejects a BinGrowth below 2, and a zero MaxBin leaves only a 1-byte
// bin. config.Defaults() supplies the build-time
// defaults from spec configuration when the caller has no reason to
// deviate from them.
type Options struct {
	// BinGrowth is the bin size growth factor; bin k has size
	// BinGrowth^k bytes. Must be >= 2.
	BinGrowth uint
	// MinBin is the smallest bin index. Requests smaller than
	// BinGrowth^MinBin are rounded up to it.
	MinBin uint
	// MaxBin is the largest bin index. Requests larger than
	// BinGrowth^MaxBin are rejected with ErrTooLarge.
	MaxBin uint

	// MaxCachedBytes, if non-zero, caps the free-block cache at an
	// explicit byte count.
	MaxCachedBytes int64
	// MaxCachedFraction, if non-zero, caps the free-block cache at this
	// fraction of TotalDeviceMemory. If both MaxCachedBytes and
	// MaxCachedFraction resolve to a limit, the smaller wins.
	MaxCachedFraction float64
	// TotalDeviceMemory is the device's total memory, used together with
	// MaxCachedFraction. The allocator does not discover this itself -
	// it is supplied by the out-of-scope device discovery collaborator.
	TotalDeviceMemory int64

	// ReuseSameQueue enables the fast reuse path: a cached block last
	// used on the same queue as the new request is immediately eligible
	// for reuse without polling its event, because work on a single
	// queue is known to execute in submission order.
	ReuseSameQueue bool

	// Debug routes a diagnostic log line through Logger on every
	// allocate, free, reuse, cache-eviction and OOM-retry transition.
	Debug bool
	// Logger receives diagnostic output when Debug is set. Defaults to
	// slog.Default() when nil.
	Logger *slog.Logger
}
