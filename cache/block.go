package cache

import "github.com/gpucache/accelcache/device"

// Block is the fundamental unit tracked by an Allocator. At any instant
// it is either indexed by Ptr in the allocator's live set, or held in
// the allocator's cached set under Bin - never both (invariant I1).
type Block struct {
	// Ptr is the raw pointer returned by the driver.
	Ptr uintptr
	// Bytes is the bin-rounded size backing this block; always >= Requested.
	Bytes int
	// Requested is the original size asked for, kept for monitoring only.
	Requested int
	// Bin is the size-class index this block was rounded into.
	Bin int
	// Queue is the submission stream this block was last used on.
	Queue device.Queue
	// Event records completion of the last work queued against this
	// block on Queue. It is recorded by Free; nil until the block is
	// first freed.
	Event device.Event
}
