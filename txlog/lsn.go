package txlog

import (
	"sync"
	"time"
)

// Allocator hands out strictly monotonic 64-bit log-sequence numbers.
// Seeded from wall-clock time so LSNs stay roughly clock-aligned across
// restarts; collisions within the same millisecond are resolved by
// incrementing linearly, exactly as the original log manager does.
type Allocator struct {
	mutex sync.Mutex
	last  uint64
}

// NewAllocator seeds the allocator from the current wall-clock time.
func NewAllocator() *Allocator {
	return &Allocator{last: nowLSNSeed()}
}

// NewAllocatorFrom seeds the allocator so that the next LSN it hands out is
// strictly greater than seed, so a caller that knows the highest LSN already
// in a log can continue above it (property P1: next() > max(lsn(r) for r in
// log) after restart).
func NewAllocatorFrom(seed uint64) *Allocator {
	return &Allocator{last: seed}
}

func nowLSNSeed() uint64 {
	return uint64(time.Now().UnixNano() / int64(time.Millisecond) * 1e6)
}

// Next returns a new LSN strictly greater than every LSN previously
// returned by this allocator.
func (a *Allocator) Next() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := nowLSNSeed()
	x := a.last + 1
	if now > x {
		x = now
	}
	a.last = x
	return x
}

// Last returns the most recently allocated LSN without allocating a new
// one; before the first Next it returns the allocator's seed.
func (a *Allocator) Last() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.last
}
