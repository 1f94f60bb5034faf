// Package registry owns the process-wide set of caching allocators:
// one per enumerated device plus one shared pinned-host instance. It
// mirrors how the lineage this module descends from builds every
// device allocator inside a single one-shot initializer, rather than
// lazily on first touch per device, to avoid a separate initialization
// race per device.
package registry

import (
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"

	"github.com/gpucache/accelcache/cache"
	"github.com/gpucache/accelcache/device"
)

var (
	once    sync.Once
	initErr error

	deviceAllocators map[device.ID]*cache.Allocator
	hostAllocator    *cache.Allocator
)

// Init builds the registry's device allocators (one per id in ids,
// each bound to deviceTraits) and its single host allocator (bound to
// hostTraits), applying opts to every instance. It is safe to call
// concurrently; only the first call's arguments take effect - every
// call blocks until that first call's construction has completed, and
// every call observes the same error, if any.
func Init(ids []device.ID, deviceTraits device.Traits, hostTraits device.Traits, opts cache.Options) error {
	once.Do(func() {
		deviceAllocators = make(map[device.ID]*cache.Allocator, len(ids))
		for _, id := range ids {
			a, err := cache.New(id, deviceTraits, opts)
			if err != nil {
				initErr = errors.Wrapf(err, "accelcache: registry init device %v", id)
				return
			}
			deviceAllocators[id] = a
		}

		host, err := cache.New(device.ID(-1), hostTraits, opts)
		if err != nil {
			initErr = errors.Wrapf(err, "accelcache: registry init host allocator")
			return
		}
		hostAllocator = host

		slog.Default().Debug("accelcache registry initialized", slog.Int("devices", len(ids)))
	})
	return initErr
}

// Get returns the caching allocator for id. It panics if Init has not
// been called or id was not in Init's ids - both are programming
// errors, not recoverable runtime conditions.
func Get(id device.ID) *cache.Allocator {
	a, ok := deviceAllocators[id]
	if !ok {
		panic(errors.Newf("accelcache: registry has no allocator for device %v - Init was not called with it", id))
	}
	return a
}

// GetHost returns the single pinned-host allocator shared by every
// device's queues. It panics if Init has not been called.
func GetHost() *cache.Allocator {
	if hostAllocator == nil {
		panic(errors.New("accelcache: registry host allocator requested before Init"))
	}
	return hostAllocator
}

// Close tears down every registered allocator, host last, returning
// the first error encountered (an allocator's ErrLiveAtDestruction). Device
// allocators are closed in ascending id order for deterministic
// teardown logging.
func Close() error {
	ids := make([]device.ID, 0, len(deviceAllocators))
	for id := range deviceAllocators {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var firstErr error
	for _, id := range ids {
		if err := deviceAllocators[id].Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "accelcache: closing device %v", id)
		}
	}
	if hostAllocator != nil {
		if err := hostAllocator.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "accelcache: closing host allocator")
		}
	}
	return firstErr
}
