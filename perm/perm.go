// Package perm implements uniformly random permutations with a provable
// statistical-distance bound, used to shuffle element arrays.
package perm

import (
	"fmt"
	"math/big"
	"math/bits"
	"sort"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
)

// Permutation is a bijection on {0, ..., n-1} stored as its table.
type Permutation struct {
	table []int
}

// Identity returns the identity permutation on n elements.
func Identity(n int) *Permutation {
	t := make([]int, n)
	for i := range t {
		t[i] = i
	}
	return &Permutation{table: t}
}

// Random samples a permutation of n elements within statistical distance
// 2^-statDist of uniform. Each index is keyed with statDist + 2*ceil(log2 n)
// fresh random bits and the indices are sorted by key; the oversampling
// makes key collisions, the only source of bias, occur with probability at
// most 2^-statDist by a union bound. The exact bit count is
// security-relevant and must not be reduced.
func Random(n int, src random.Source, statDist int) *Permutation {
	if n <= 0 {
		panic("perm: size must be positive")
	}
	keyBits := statDist + 2*ceilLog2(n)
	type keyed struct {
		key *big.Int
		idx int
	}
	ks := make([]keyed, n)
	for i := range ks {
		ks[i] = keyed{key: src.Int(keyBits), idx: i}
	}
	sort.SliceStable(ks, func(a, b int) bool {
		return ks[a].key.Cmp(ks[b].key) < 0
	})
	t := make([]int, n)
	for i, k := range ks {
		t[i] = k.idx
	}
	return &Permutation{table: t}
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// FromTable validates and copies a permutation table from untrusted input.
func FromTable(table []int) (*Permutation, error) {
	seen := make([]bool, len(table))
	for _, v := range table {
		if v < 0 || v >= len(table) || seen[v] {
			return nil, fmt.Errorf("%w: table is not a bijection", bytetree.ErrFormat)
		}
		seen[v] = true
	}
	t := make([]int, len(table))
	copy(t, table)
	return &Permutation{table: t}, nil
}

// Size returns the number of permuted indices.
func (p *Permutation) Size() int { return len(p.table) }

// Map returns the image of index i.
func (p *Permutation) Map(i int) int { return p.table[i] }

// Apply writes src through the permutation: dst[p(i)] = src[i]. Both slices
// must have the permutation's size.
func Apply[T any](p *Permutation, dst, src []T) {
	if len(dst) != len(p.table) || len(src) != len(p.table) {
		panic("perm: slice size mismatch")
	}
	for i, v := range src {
		dst[p.table[i]] = v
	}
}

// Inverse returns the permutation q with q(p(i)) = i.
func (p *Permutation) Inverse() *Permutation {
	t := make([]int, len(p.table))
	for i, v := range p.table {
		t[v] = i
	}
	return &Permutation{table: t}
}

// Shrink restricts the permutation to the k indices mapped below k,
// renumbering the remaining images contiguously. The result is a bijection
// on {0, ..., k-1}.
func (p *Permutation) Shrink(k int) *Permutation {
	if k < 0 || k > len(p.table) {
		panic("perm: shrink size out of range")
	}
	t := make([]int, 0, k)
	for _, v := range p.table {
		if v < k {
			t = append(t, v)
		}
	}
	return &Permutation{table: t}
}

// ToByteTree serializes the table as a leaf of 4-byte big-endian indices.
func (p *Permutation) ToByteTree() *bytetree.ByteTree {
	vs := make([]*big.Int, len(p.table))
	for i, v := range p.table {
		vs[i] = big.NewInt(int64(v))
	}
	return bytetree.IntsLeaf(vs, 4)
}

// FromByteTree parses a serialized table, validating it as a bijection.
func FromByteTree(bt *bytetree.ByteTree) (*Permutation, error) {
	vs, err := bt.LeafInts(4)
	if err != nil {
		return nil, err
	}
	table := make([]int, len(vs))
	for i, v := range vs {
		table[i] = int(v.Int64())
	}
	return FromTable(table)
}
