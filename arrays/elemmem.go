package arrays

import (
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/group"
	"github.com/verimix/algebra/perm"
)

// memElementArray keeps all elements resident. Elements are immutable, so
// derived arrays share them freely.
type memElementArray struct {
	f  *Factory
	g  group.Group
	es []group.Element
}

func newMemElementArray(f *Factory, g group.Group, es []group.Element) *memElementArray {
	cp := make([]group.Element, len(es))
	copy(cp, es)
	return &memElementArray{f: f, g: g, es: cp}
}

func (f *Factory) memElemsOwned(g group.Group, es []group.Element) *memElementArray {
	return &memElementArray{f: f, g: g, es: es}
}

func (a *memElementArray) Size() int { return len(a.es) }

func (a *memElementArray) Group() group.Group { return a.g }

func (a *memElementArray) Get(i int) group.Element { return a.es[i] }

func (a *memElementArray) Elements() []group.Element {
	out := make([]group.Element, len(a.es))
	copy(out, a.es)
	return out
}

func (a *memElementArray) Mul(b ElementArray) ElementArray {
	checkSameSize(len(a.es), b.Size())
	dst := make([]group.Element, len(a.es))
	mulKernel(dst, a.es, elemRange(b, 0, b.Size()))
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Exp(exps IntegerArray) ElementArray {
	checkSameSize(len(a.es), exps.Size())
	ev := intRange(exps, 0, exps.Size())
	dst := make([]group.Element, len(a.es))
	a.f.forRanges(len(a.es), func(lo, hi int) {
		expKernel(dst[lo:hi], a.es[lo:hi], ev[lo:hi])
	})
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) ExpScalar(k *big.Int) ElementArray {
	dst := make([]group.Element, len(a.es))
	a.f.forRanges(len(a.es), func(lo, hi int) {
		expScalarKernel(dst[lo:hi], a.es[lo:hi], k)
	})
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Inverse() ElementArray {
	dst := make([]group.Element, len(a.es))
	invKernel(dst, a.es)
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Prod() group.Element {
	return prodKernel(a.g.Identity(), a.es)
}

func (a *memElementArray) PowProd(exps IntegerArray) group.Element {
	checkSameSize(len(a.es), exps.Size())
	return a.f.powProdKernel(a.g.Identity(), a.es, intRange(exps, 0, exps.Size()))
}

func (a *memElementArray) CopyOfRange(lo, hi int) ElementArray {
	checkRange(lo, hi, len(a.es))
	dst := make([]group.Element, hi-lo)
	copy(dst, a.es[lo:hi])
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Extract(mask []bool) ElementArray {
	checkSameSize(len(a.es), len(mask))
	var dst []group.Element
	for i, keep := range mask {
		if keep {
			dst = append(dst, a.es[i])
		}
	}
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Permute(p *perm.Permutation) ElementArray {
	checkSameSize(len(a.es), p.Size())
	dst := make([]group.Element, len(a.es))
	perm.Apply(p, dst, a.es)
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Concat(b ElementArray) ElementArray {
	if !a.g.Equal(b.Group()) {
		panic("arrays: concat across groups")
	}
	dst := make([]group.Element, 0, len(a.es)+b.Size())
	dst = append(dst, a.es...)
	dst = append(dst, elemRange(b, 0, b.Size())...)
	return a.f.memElemsOwned(a.g, dst)
}

func (a *memElementArray) Equal(b ElementArray) bool {
	if len(a.es) != b.Size() || !a.g.Equal(b.Group()) {
		return false
	}
	for i, e := range a.es {
		if !e.Equal(b.Get(i)) {
			return false
		}
	}
	return true
}

func (a *memElementArray) ToByteTree() *bytetree.ByteTree {
	children := make([]*bytetree.ByteTree, len(a.es))
	for i, e := range a.es {
		children[i] = e.ToByteTree()
	}
	return bytetree.Node(children...)
}

func (a *memElementArray) Free() {}
