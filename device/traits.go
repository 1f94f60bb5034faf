// Package device defines the capability boundary the caching allocator is
// built against: device/queue identity, event completion, and raw driver
// allocation. Nothing in this package talks to an actual accelerator -
// device discovery, context setup and the real driver bindings are
// external collaborators that implement Traits.
package device

import "fmt"

// ID identifies a single accelerator device. Registries index device
// allocators by ID starting at 0 for enumerated devices, so the zero
// value names the first device; pinned host memory is tracked separately.
type ID int

// Queue is an ordered stream of device work. Work submitted to the same
// Queue completes in FIFO order; work submitted to different Queues has
// no ordering guarantee unless synchronized through an Event.
type Queue interface {
	// Device reports which accelerator this queue submits work to.
	Device() ID
}

// Event is an opaque completion token. It becomes signalled once all
// work submitted to its recording queue, prior to the record call, has
// completed.
type Event interface{}

// Traits is the capability set the caching allocator is parameterized
// over. It is implemented once for device memory and once for pinned
// host memory; the two differ only in what Allocate and Free do.
type Traits interface {
	// Allocate performs a raw driver allocation of bytes on the device
	// backing queue. It must return an error matching ErrOutOfMemory
	// (via errors.Is) when the driver cannot satisfy the request, so the
	// caching allocator can distinguish a retryable OOM from a fatal
	// driver fault.
	Allocate(bytes int, queue Queue) (uintptr, error)

	// Free performs a raw driver deallocation. It must not fail on a
	// pointer previously returned by Allocate on the same Traits value.
	Free(ptr uintptr, queue Queue)

	// CreateEvent returns a fresh, unrecorded event.
	CreateEvent() Event

	// RecordEvent records event on queue, returning the (possibly new)
	// event value that reflects this recording. Subsequent polls of the
	// returned event complete once all work queued on queue up to this
	// point has completed.
	RecordEvent(event Event, queue Queue) Event

	// EventCompleted performs a non-blocking poll of event.
	EventCompleted(event Event) bool

	// SameDevice reports whether a and b submit work to the same
	// physical device.
	SameDevice(a, b Queue) bool

	// QueueEquals reports whether a and b denote the same submission
	// stream.
	QueueEquals(a, b Queue) bool

	// Describe returns a short, printable descriptor of id, suitable for
	// diagnostic logging.
	Describe(id ID) string
}

// Descriptor is a convenience formatter for log lines that need to name
// a device without holding a Traits value, e.g. in the registry before
// any allocator has been constructed.
type Descriptor struct {
	Traits Traits
	ID     ID
}

func (d Descriptor) String() string {
	if d.Traits == nil {
		return fmt.Sprintf("device %d", d.ID)
	}
	return d.Traits.Describe(d.ID)
}
