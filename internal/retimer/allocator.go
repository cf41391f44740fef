package retimer

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// Allocator issues unique non-negative integer identifiers and reclaims them
// for reuse. Acquire always returns the smallest identifier not currently
// live, so the identifier space stays dense under churn.
//
// The used set is a bitmap guarded by a single mutex; every Acquire/Release
// is mutually exclusive with every other, making allocation race-free.
type Allocator struct {
	mu   sync.Mutex
	used *bitset.BitSet
	max  uint // 0 means unbounded
}

// NewAllocator creates an allocator. maxIDs caps the number of simultaneously
// live identifiers (and therefore the largest identifier at maxIDs-1); a
// value <= 0 means no ceiling.
func NewAllocator(maxIDs int) *Allocator {
	a := &Allocator{used: bitset.New(0)}
	if maxIDs > 0 {
		a.max = uint(maxIDs)
	}
	return a
}

// Acquire returns the smallest identifier that is not currently live.
// It fails only with ErrExhausted, and only when a ceiling was configured
// and every identifier below it is live.
func (a *Allocator) Acquire() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, found := a.used.NextClear(0)
	if !found {
		// Bitmap is fully set; the next identifier extends it.
		id = a.used.Len()
	}
	if a.max > 0 && id >= a.max {
		return 0, fmt.Errorf("%w: all %d identifiers live", ErrExhausted, a.max)
	}

	a.used.Set(id)
	return int(id), nil //nolint:gosec // id bounded by bitmap length, far below MaxInt
}

// Release marks an identifier as free for future reuse. Releasing an
// identifier that is not currently live (never acquired, already released,
// negative, or out of range) is a no-op.
func (a *Allocator) Release(id int) {
	if id < 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	u := uint(id)
	if u >= a.used.Len() || !a.used.Test(u) {
		return
	}
	a.used.Clear(u)
}

// Live returns the number of currently live identifiers.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.used.Count()) //nolint:gosec // count bounded by bitmap length
}

// Capacity returns the configured ceiling, or 0 if unbounded.
func (a *Allocator) Capacity() int {
	return int(a.max) //nolint:gosec // set from a validated int
}
