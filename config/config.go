// Package config holds the build-time defaults spec'd for the caching
// allocator. They mirror the constants documented in the original
// AllocatorConfig headers this lineage is descended from: a growth
// factor of 2, bins from 256 B to 1 GiB, an 80% cache ceiling, and no
// debug logging by default.
package config

import "github.com/gpucache/accelcache/cache"

const (
	// BinGrowth is the default bin size growth factor.
	BinGrowth uint = 2
	// MinBin is the default smallest bin index: 2^8 = 256 bytes.
	MinBin uint = 8
	// MaxBin is the default largest bin index: 2^30 = 1 GiB.
	MaxBin uint = 30
	// MaxCachedBytes is the default explicit cache cap; 0 means
	// unlimited by explicit cap (MaxCachedFraction still applies).
	MaxCachedBytes int64 = 0
	// MaxCachedFraction is the default fraction of total device memory
	// the cache may retain.
	MaxCachedFraction float64 = 0.8
	// Debug is the default diagnostic logging setting.
	Debug = false
)

// Defaults returns cache.Options populated with the constants above.
// ReuseSameQueue and TotalDeviceMemory are left at their zero values -
// both depend on information only the caller (the policy dispatcher and
// the device discovery collaborator, respectively) has.
func Defaults() cache.Options {
	return cache.Options{
		BinGrowth:         BinGrowth,
		MinBin:            MinBin,
		MaxBin:            MaxBin,
		MaxCachedBytes:    MaxCachedBytes,
		MaxCachedFraction: MaxCachedFraction,
		Debug:             Debug,
	}
}
