package bloom

import (
	"fmt"
	"math"
	"sync"
)

// CountingFilter trades memory (a counter per slot instead of a bit) for
// support of Remove. Counters saturate at math.MaxUint8 and a saturated
// counter is never decremented, so heavy reuse degrades to plain bloom
// behavior rather than corrupting membership.
type CountingFilter struct {
	mu       sync.RWMutex
	counters []uint8
	numSlots uint64
	hashes   uint64
}

func NewCounting(expectedItems int, falsePositiveRate float64) (*CountingFilter, error) {
	base, err := New(expectedItems, falsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("bloom: counting filter: %w", err)
	}
	return &CountingFilter{
		counters: make([]uint8, base.numBits),
		numSlots: base.numBits,
		hashes:   base.hashes,
	}, nil
}

func (f *CountingFilter) Add(item string) {
	h1, h2 := hashPair(item)

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := uint64(0); i < f.hashes; i++ {
		pos := indexFor(h1, h2, i, f.numSlots)
		if f.counters[pos] < math.MaxUint8 {
			f.counters[pos]++
		}
	}
}

// Remove decrements the item's slots. Removing an item that was never added
// can introduce false negatives for other items; callers own that contract.
func (f *CountingFilter) Remove(item string) {
	h1, h2 := hashPair(item)

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := uint64(0); i < f.hashes; i++ {
		pos := indexFor(h1, h2, i, f.numSlots)
		if f.counters[pos] > 0 && f.counters[pos] < math.MaxUint8 {
			f.counters[pos]--
		}
	}
}

func (f *CountingFilter) MightContain(item string) bool {
	h1, h2 := hashPair(item)

	f.mu.RLock()
	defer f.mu.RUnlock()

	for i := uint64(0); i < f.hashes; i++ {
		pos := indexFor(h1, h2, i, f.numSlots)
		if f.counters[pos] == 0 {
			return false
		}
	}
	return true
}

func (f *CountingFilter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.counters {
		f.counters[i] = 0
	}
}
