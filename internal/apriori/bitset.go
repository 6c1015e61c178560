package apriori

import "math/bits"

// bitset marks the transactions containing an item (or itemset).
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int) { b[i/64] |= 1 << (uint(i) % 64) }

// andCount returns the popcount of the intersection of all sets.
// sets must be non-empty and equally sized.
func andCount(sets []bitset, scratch bitset) int {
	copy(scratch, sets[0])
	for _, s := range sets[1:] {
		for w := range scratch {
			scratch[w] &= s[w]
		}
	}
	var n int
	for _, w := range scratch {
		n += bits.OnesCount64(w)
	}
	return n
}
