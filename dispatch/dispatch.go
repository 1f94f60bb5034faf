package dispatch

import (
	"github.com/cockroachdb/errors"

	"github.com/gpucache/accelcache/cache"
	"github.com/gpucache/accelcache/device"
	"github.com/gpucache/accelcache/registry"
)

var (
	deviceTraitsByID map[device.ID]device.Traits
	hostTraits       device.Traits
)

// Init wires every device id to deviceTraits and the pinned-host
// allocator to hostTraits. Under PolicyCaching this also drives
// registry.Init; under the other policies the traits are called
// directly and opts is unused.
func Init(ids []device.ID, deviceTraits device.Traits, host device.Traits, opts cache.Options) error {
	deviceTraitsByID = make(map[device.ID]device.Traits, len(ids))
	for _, id := range ids {
		deviceTraitsByID[id] = deviceTraits
	}
	hostTraits = host

	if ActivePolicy == PolicyCaching {
		return registry.Init(ids, deviceTraits, host, opts)
	}
	return nil
}

func traitsFor(id device.ID) device.Traits {
	traits, ok := deviceTraitsByID[id]
	if !ok {
		panic(errors.Newf("accelcache: dispatch has no traits for device %v - Init was not called with it", id))
	}
	return traits
}

// AllocateDevice allocates bytes for queue on device id, through
// whichever Policy this build was compiled with. PolicyStreamOrdered
// and PolicySynchronous both call straight through to device.Traits -
// the async-vs-synchronous distinction between them is a property of
// the Traits implementation itself, not of anything this module does.
func AllocateDevice(id device.ID, bytes int, queue device.Queue) (uintptr, error) {
	if ActivePolicy == PolicyCaching {
		return registry.Get(id).Allocate(bytes, queue)
	}
	return traitsFor(id).Allocate(bytes, queue)
}

// FreeDevice frees ptr, previously returned by AllocateDevice for
// device id.
func FreeDevice(id device.ID, ptr uintptr, queue device.Queue) error {
	if ActivePolicy == PolicyCaching {
		return registry.Get(id).Free(ptr)
	}
	traitsFor(id).Free(ptr, queue)
	return nil
}

// DeviceAllocatorStatus returns a per-device accounting snapshot. Under
// PolicyStreamOrdered and PolicySynchronous there is no cache to
// report on, so the returned map is empty.
func DeviceAllocatorStatus() map[device.ID]cache.CachedBytes {
	status := make(map[device.ID]cache.CachedBytes, len(deviceTraitsByID))
	if ActivePolicy != PolicyCaching {
		return status
	}
	for id := range deviceTraitsByID {
		status[id] = registry.Get(id).CacheStatus()
	}
	return status
}
