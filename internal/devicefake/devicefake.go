// Package devicefake provides an in-memory stand-in for device.Traits,
// used across this module's test suites in place of a real accelerator
// driver. Events are manually advanced by the test via Complete rather
// than actually completing asynchronously.
package devicefake

import (
	"sync"

	"github.com/gpucache/accelcache/device"
)

// Queue is a fake device.Queue identified by an integer submission
// stream on a given device.
type Queue struct {
	DeviceID device.ID
	Stream   int
}

func (q Queue) Device() device.ID { return q.DeviceID }

// event is the concrete type behind device.Event for this fake. A nil
// device.Event is reported as completed; otherwise completed is advanced
// only by Complete.
type event struct {
	completed bool
}

// Traits is a fake device.Traits simulating a driver with a fixed
// Capacity: Allocate fails with device.ErrOutOfMemory once outstanding
// bytes would exceed it, and Free gives that capacity back. This lets
// tests exercise the caching allocator's flush-and-retry path simply by
// setting Capacity below the sum of two requests - the retry succeeds
// once FreeAllCached's driver frees land before the second Allocate.
type Traits struct {
	Capacity int64

	mu          sync.Mutex
	next        uintptr
	outstanding int64
	sizes       map[uintptr]int64
}

func (t *Traits) Allocate(bytes int, queue device.Queue) (uintptr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Capacity > 0 && t.outstanding+int64(bytes) > t.Capacity {
		return 0, device.ErrOutOfMemory
	}
	t.outstanding += int64(bytes)
	t.next += uintptr(bytes) + 1
	if t.sizes == nil {
		t.sizes = make(map[uintptr]int64)
	}
	t.sizes[t.next] = int64(bytes)
	return t.next, nil
}

func (t *Traits) Free(ptr uintptr, queue device.Queue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outstanding -= t.sizes[ptr]
	delete(t.sizes, ptr)
}

func (t *Traits) CreateEvent() device.Event {
	return &event{}
}

func (t *Traits) RecordEvent(e device.Event, queue device.Queue) device.Event {
	if e == nil {
		e = &event{}
	}
	return e
}

func (t *Traits) EventCompleted(e device.Event) bool {
	if e == nil {
		return true
	}
	return e.(*event).completed
}

// Complete marks e as having finished, making any block waiting on it
// eligible for reuse.
func (t *Traits) Complete(e device.Event) {
	if e == nil {
		return
	}
	e.(*event).completed = true
}

func (t *Traits) SameDevice(a, b device.Queue) bool {
	return a.(Queue).DeviceID == b.(Queue).DeviceID
}

func (t *Traits) QueueEquals(a, b device.Queue) bool {
	return a.(Queue) == b.(Queue)
}

func (t *Traits) Describe(id device.ID) string {
	return "devicefake"
}
