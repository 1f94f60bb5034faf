// Package bins implements the pure size-class arithmetic the caching
// allocator rounds requests through: integer power-of-growth bin sizes,
// mapping a byte count to its bin, and formatting byte counts for
// diagnostics.
package bins

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// ErrTooLarge is returned by Find when bytes exceeds growth^maxBin. It
// is independent of cache.ErrTooLarge, since cache depends on bins and
// not the other way around; cache.Allocate wraps the error together with
// cache.ErrTooLarge so its own callers can match on either.
var ErrTooLarge error = errors.New("requested size exceeds the largest configured bin")

// Power computes base^exp by squaring, using only integer arithmetic.
// Overflow is the caller's responsibility - callers bound exp by maxBin,
// which is expected to be small enough that growth^maxBin fits in a
// uint64 for any sane configuration.
func Power(base, exp uint) uint64 {
	result := uint64(1)
	b := uint64(base)
	for exp > 0 {
		if exp&1 == 1 {
			result *= b
		}
		b *= b
		exp >>= 1
	}
	return result
}

// Find maps bytes to (bin, roundedBytes) under the bin schedule described
// by growth, minBin and maxBin. Requests below the smallest bin are
// rounded up to it; requests above the largest bin are rejected with
// ErrTooLarge rather than silently falling through to an unbounded
// allocation.
func Find(bytes int, growth, minBin, maxBin uint) (bin int, rounded int, err error) {
	minBinBytes := Power(growth, minBin)
	maxBinBytes := Power(growth, maxBin)

	if uint64(bytes) < minBinBytes {
		return int(minBin), int(minBinBytes), nil
	}
	if uint64(bytes) > maxBinBytes {
		return 0, 0, errors.Wrapf(ErrTooLarge, "%d bytes requested, largest bin is %d bytes", bytes, maxBinBytes)
	}

	b := minBin
	binBytes := minBinBytes
	for binBytes < uint64(bytes) {
		b++
		binBytes *= uint64(growth)
	}

	return int(b), int(binBytes), nil
}

// FormatBytes renders n using the largest of GB/MB/kB/B that divides it
// exactly, falling back to a plain byte count otherwise.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<30 && n%(1<<30) == 0:
		return strconv.FormatInt(n>>30, 10) + " GB"
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<10 && n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + " kB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}
