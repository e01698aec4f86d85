package bloom

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Filter is a fixed-size bloom filter. MightContain never answers false for
// an added item; false positives are bounded by the rate the filter was
// sized for and are never corrected (the bit array never grows).
type Filter struct {
	mu      sync.RWMutex
	bits    []uint64
	numBits uint64
	hashes  uint64
	count   uint64
}

// New sizes the filter for expectedItems at the target falsePositiveRate
// using the standard optimal-parameter formulas:
//
//	m = -n*ln(p) / ln(2)^2
//	k = m/n * ln(2)
func New(expectedItems int, falsePositiveRate float64) (*Filter, error) {
	if expectedItems <= 0 {
		return nil, fmt.Errorf("bloom: expected items must be positive, got %d", expectedItems)
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		return nil, fmt.Errorf("bloom: false positive rate must be in (0,1), got %g", falsePositiveRate)
	}

	n := float64(expectedItems)
	m := math.Ceil(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2))
	k := math.Max(1, math.Round(m/n*math.Ln2))

	numBits := uint64(m)
	if numBits == 0 {
		numBits = 1
	}

	return &Filter{
		bits:    make([]uint64, (numBits+63)/64),
		numBits: numBits,
		hashes:  uint64(k),
	}, nil
}

func (f *Filter) Add(item string) {
	h1, h2 := hashPair(item)

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := uint64(0); i < f.hashes; i++ {
		pos := indexFor(h1, h2, i, f.numBits)
		f.bits[pos/64] |= 1 << (pos % 64)
	}
	f.count++
}

func (f *Filter) MightContain(item string) bool {
	h1, h2 := hashPair(item)

	f.mu.RLock()
	defer f.mu.RUnlock()

	for i := uint64(0); i < f.hashes; i++ {
		pos := indexFor(h1, h2, i, f.numBits)
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of Add calls since construction or the last Clear.
func (f *Filter) Count() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Clear resets every bit; it is the only way the filter ever shrinks.
func (f *Filter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bits {
		f.bits[i] = 0
	}
	f.count = 0
}

// hashPair produces the two independent hashes combined by double hashing to
// simulate k hash functions.
func hashPair(item string) (uint64, uint64) {
	h1 := xxhash.Sum64String(item)

	f := fnv.New64a()
	f.Write([]byte(item))
	h2 := f.Sum64()

	return h1, h2
}

func indexFor(h1, h2, i, numBits uint64) uint64 {
	// h2 must be odd so the probe sequence covers the whole table
	return (h1 + i*(h2|1)) % numBits
}
