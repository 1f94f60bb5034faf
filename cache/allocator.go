package cache

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"

	"github.com/gpucache/accelcache/bins"
	"github.com/gpucache/accelcache/device"
)

// Allocator is a bin-based caching allocator bound to one device.Traits
// instance. It reuses freed blocks whose event has completed (or whose
// queue matches the new request, when ReuseSameQueue is set) instead of
// issuing a fresh driver allocation on every call. At any instant a
// block is either indexed by pointer in live, or held in cached under
// its bin - never both (invariant I1).
type Allocator struct {
	id     device.ID
	traits device.Traits

	growth  uint
	minBin  uint
	maxBin  uint
	ceiling int64

	reuseSameQueue bool
	debug          bool
	logger         *slog.Logger

	mu            sync.Mutex
	live          *swiss.Map[uintptr, *Block]
	cached        map[int][]*Block
	freeBytes     int64
	liveBytes     int64
	liveRequested int64
}

// New constructs an Allocator bound to traits, applying opts over their
// zero values. BinGrowth, MinBin and MaxBin must describe a non-empty
// bin schedule (MinBin <= MaxBin, BinGrowth >= 2); New returns an error
// otherwise rather than deferring to a confusing failure at first
// Allocate.
func New(id device.ID, traits device.Traits, opts Options) (*Allocator, error) {
	if opts.BinGrowth < 2 {
		return nil, errors.Newf("bin growth must be >= 2, got %d", opts.BinGrowth)
	}
	if opts.MinBin > opts.MaxBin {
		return nil, errors.Newf("min bin %d exceeds max bin %d", opts.MinBin, opts.MaxBin)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Allocator{
		id:             id,
		traits:         traits,
		growth:         opts.BinGrowth,
		minBin:         opts.MinBin,
		maxBin:         opts.MaxBin,
		ceiling:        cacheCeiling(opts),
		reuseSameQueue: opts.ReuseSameQueue,
		debug:          opts.Debug,
		logger:         logger,
		live:           swiss.NewMap[uintptr, *Block](16),
		cached:         make(map[int][]*Block),
	}

	if a.debug {
		a.logBinTable()
	}
	return a, nil
}

// cacheCeiling resolves the two possible cache caps in Options to a
// single byte ceiling. When both MaxCachedBytes and MaxCachedFraction
// resolve to a limit, the smaller wins; zero means unlimited.
func cacheCeiling(opts Options) int64 {
	ceiling := opts.MaxCachedBytes
	if opts.MaxCachedFraction > 0 && opts.TotalDeviceMemory > 0 {
		fractional := int64(opts.MaxCachedFraction * float64(opts.TotalDeviceMemory))
		if ceiling == 0 || fractional < ceiling {
			ceiling = fractional
		}
	}
	return ceiling
}

func (a *Allocator) logBinTable() {
	for b := a.minBin; b <= a.maxBin; b++ {
		size := bins.Power(a.growth, b)
		a.logger.Debug("caching allocator bin",
			slog.Any("device", device.Descriptor{Traits: a.traits, ID: a.id}),
			slog.Int("bin", int(b)),
			slog.String("size", bins.FormatBytes(int64(size))),
		)
	}
}

func (a *Allocator) logTransition(op string, block *Block) {
	if !a.debug {
		return
	}
	a.logger.Debug(op,
		slog.Any("device", device.Descriptor{Traits: a.traits, ID: a.id}),
		slog.Uint64("ptr", uint64(block.Ptr)),
		slog.Int("bin", block.Bin),
		slog.Int64("cached_bytes", a.freeBytes),
		slog.Int("cached_blocks", a.countCached()),
		slog.Int64("live_bytes", a.liveBytes),
		slog.Int("live_blocks", a.live.Count()),
	)
}

func (a *Allocator) countCached() int {
	n := 0
	for _, blocks := range a.cached {
		n += len(blocks)
	}
	return n
}

// Allocate returns a block of at least bytes, bound to queue, reusing a
// cached block when the reuse rule (spec §4.3) permits it and falling
// back to a fresh driver allocation otherwise. A driver allocation that
// fails with device.ErrOutOfMemory is retried once after flushing the
// entire cache; a second failure is reported as ErrOutOfMemory. Any
// other driver failure is wrapped as ErrDriverFault and not retried.
func (a *Allocator) Allocate(bytes int, queue device.Queue) (uintptr, error) {
	bin, rounded, err := bins.Find(bytes, a.growth, a.minBin, a.maxBin)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errors.Wrapf(err, "accelcache: allocate %d bytes", bytes), ErrTooLarge)
	}

	a.mu.Lock()
	if block := a.reuseLocked(bin, queue); block != nil {
		block.Requested = bytes
		block.Queue = queue
		a.liveBytes += int64(block.Bytes)
		a.liveRequested += int64(bytes)
		a.live.Put(block.Ptr, block)
		a.logTransition("reuse", block)
		a.mu.Unlock()
		return block.Ptr, nil
	}
	a.mu.Unlock()

	ptr, err := a.traits.Allocate(rounded, queue)
	if err != nil {
		if !errors.Is(err, device.ErrOutOfMemory) {
			return 0, fmt.Errorf("%w: %w", errors.Wrapf(err, "accelcache: driver allocate %d bytes", rounded), ErrDriverFault)
		}

		if a.debug {
			a.logger.Debug("oom retry",
				slog.Any("device", device.Descriptor{Traits: a.traits, ID: a.id}),
				slog.Int("bytes", rounded),
			)
		}
		a.FreeAllCached()
		ptr, err = a.traits.Allocate(rounded, queue)
		if err != nil {
			if !errors.Is(err, device.ErrOutOfMemory) {
				return 0, fmt.Errorf("%w: %w", errors.Wrapf(err, "accelcache: driver allocate %d bytes after flush", rounded), ErrDriverFault)
			}
			return 0, fmt.Errorf("%w: %w", errors.Wrapf(err, "accelcache: %d bytes still unavailable after flushing cache", rounded), ErrOutOfMemory)
		}
	}

	block := &Block{
		Ptr:       ptr,
		Bytes:     rounded,
		Requested: bytes,
		Bin:       bin,
		Queue:     queue,
	}

	a.mu.Lock()
	a.live.Put(ptr, block)
	a.liveBytes += int64(rounded)
	a.liveRequested += int64(bytes)
	a.logTransition("allocate", block)
	a.mu.Unlock()

	return ptr, nil
}

// reuseLocked scans the cached blocks in bin for one eligible for reuse
// under the reuse rule: a block last used on queue is always eligible
// (a single queue executes in submission order); otherwise the block's
// event must have completed. The caller must hold a.mu.
func (a *Allocator) reuseLocked(bin int, queue device.Queue) *Block {
	candidates := a.cached[bin]
	for i, block := range candidates {
		eligible := false
		if a.reuseSameQueue && a.traits.QueueEquals(block.Queue, queue) {
			eligible = true
		} else if a.traits.EventCompleted(block.Event) {
			eligible = true
		}
		if !eligible {
			continue
		}

		last := len(candidates) - 1
		candidates[i] = candidates[last]
		a.cached[bin] = candidates[:last]
		a.freeBytes -= int64(block.Bytes)
		return block
	}
	return nil
}

// Free returns ptr to the cache, re-recording its completion event on
// the block's own queue so a future reuse waits for the work this
// caller just queued against it. ptr must currently be live on this
// allocator; otherwise Free returns ErrDoubleFreeOrForeign.
func (a *Allocator) Free(ptr uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	block, ok := a.live.Get(ptr)
	if !ok {
		return errors.Wrapf(ErrDoubleFreeOrForeign, "accelcache: free %d", ptr)
	}
	a.live.Delete(ptr)
	a.liveBytes -= int64(block.Bytes)
	a.liveRequested -= int64(block.Requested)

	if block.Event == nil {
		block.Event = a.traits.CreateEvent()
	}
	block.Event = a.traits.RecordEvent(block.Event, block.Queue)

	if a.ceiling > 0 && a.freeBytes+int64(block.Bytes) > a.ceiling {
		// Caching this block would push the cache over its ceiling -
		// drop it straight back to the driver instead of retaining it.
		a.traits.Free(block.Ptr, block.Queue)
		a.logTransition("drop", block)
		return nil
	}

	a.cached[block.Bin] = append(a.cached[block.Bin], block)
	a.freeBytes += int64(block.Bytes)
	a.logTransition("free", block)
	return nil
}

// FreeAllCached releases every cached block back to the driver and
// clears the cache. Live blocks are untouched. Bins are drained in
// ascending order so diagnostics see a deterministic eviction sequence.
func (a *Allocator) FreeAllCached() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeAllCachedLocked()
}

func (a *Allocator) freeAllCachedLocked() {
	binIndices := make([]int, 0, len(a.cached))
	for bin := range a.cached {
		binIndices = append(binIndices, bin)
	}
	slices.Sort(binIndices)

	for _, bin := range binIndices {
		for _, block := range a.cached[bin] {
			a.traits.Free(block.Ptr, block.Queue)
			a.freeBytes -= int64(block.Bytes)
			a.logTransition("evict", block)
		}
		delete(a.cached, bin)
	}
}

// CacheStatus returns a point-in-time snapshot of the allocator's
// accounting counters.
func (a *Allocator) CacheStatus() CachedBytes {
	a.mu.Lock()
	defer a.mu.Unlock()
	return CachedBytes{
		Free:      a.freeBytes,
		Live:      a.liveBytes,
		Requested: a.liveRequested,
	}
}

// Close releases every cached block and reports ErrLiveAtDestruction if
// any block is still live - closing an allocator with outstanding live
// blocks is a programming error in the caller, every buffer must be
// returned before the allocator is torn down.
func (a *Allocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.freeAllCachedLocked()

	if n := a.live.Count(); n > 0 {
		return errors.Wrapf(ErrLiveAtDestruction, "accelcache: %d blocks still live at close", n)
	}
	return nil
}
