package formula

import "math/bits"

// Mask is a fixed-length bitset of missing rows.
type Mask struct {
	n     int
	words []uint64
}

func NewMask(n int) Mask { return Mask{n: n, words: make([]uint64, (n+63)/64)} }

func (m Mask) Len() int { return m.n }
func (m Mask) Set(i int) { m.words[i/64] |= 1 << (uint(i) % 64) }
func (m Mask) Has(i int) bool { return m.words[i/64]&(1<<(uint(i)%64)) != 0 }

func (m Mask) Count() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Rows lists the set positions in ascending order.
func (m Mask) Rows() []int {
	out := make([]int, 0, m.Count())
	for wi, w := range m.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, wi*64+b)
			w &= w - 1
		}
	}
	return out
}
