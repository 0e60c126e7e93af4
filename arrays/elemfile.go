package arrays

import (
	"fmt"
	"math/big"
	"os"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/group"
	"github.com/verimix/algebra/perm"
)

// fileElementArray stores serialized elements in a temporary file. Every
// element of a group serializes to the same byte length, so records are
// fixed-size and addressable by index.
type fileElementArray struct {
	f       *Factory
	g       group.Group
	file    *os.File
	size    int
	recSize int
	freed   bool
}

func newFileElementArray(f *Factory, g group.Group, es []group.Element) *fileElementArray {
	a := f.createElemFile(g, len(es))
	for lo := 0; lo < len(es); lo += f.policy.BatchSize {
		hi := min(lo+f.policy.BatchSize, len(es))
		a.writeRange(lo, es[lo:hi])
	}
	return a
}

func (f *Factory) createElemFile(g group.Group, size int) *fileElementArray {
	return &fileElementArray{
		f:       f,
		g:       g,
		file:    f.newBackingFile("elemarray"),
		size:    size,
		recSize: g.ElementByteLen(),
	}
}

func (a *fileElementArray) checkLive() {
	if a.freed {
		panic("arrays: use after Free")
	}
}

func (a *fileElementArray) writeRange(lo int, es []group.Element) {
	buf := make([]byte, 0, len(es)*a.recSize)
	for _, e := range es {
		rec := e.ToByteTree().Bytes()
		if len(rec) != a.recSize {
			panic(fmt.Sprintf("arrays: element record %d bytes, want %d", len(rec), a.recSize))
		}
		buf = append(buf, rec...)
	}
	_, err := a.file.WriteAt(buf, int64(lo)*int64(a.recSize))
	ioCheck(err, "write", a.file.Name())
}

func (a *fileElementArray) readRange(lo, hi int) []group.Element {
	a.checkLive()
	out := make([]group.Element, hi-lo)
	if hi == lo {
		return out
	}
	buf := make([]byte, (hi-lo)*a.recSize)
	_, err := a.file.ReadAt(buf, int64(lo)*int64(a.recSize))
	ioCheck(err, "read", a.file.Name())
	for i := range out {
		bt, err := bytetree.Parse(buf[i*a.recSize : (i+1)*a.recSize])
		if err == nil {
			out[i], err = a.g.FromByteTree(bt)
		}
		if err != nil {
			// Records were written by this engine; a bad one means the
			// backing file was corrupted underneath us.
			ioCheck(err, "decode", a.file.Name())
		}
	}
	return out
}

func (a *fileElementArray) forBatches(fn func(lo int, batch []group.Element)) {
	a.checkLive()
	for lo := 0; lo < a.size; lo += a.f.policy.BatchSize {
		hi := min(lo+a.f.policy.BatchSize, a.size)
		fn(lo, a.readRange(lo, hi))
	}
}

func (a *fileElementArray) mapBatches(kernel func(lo int, in []group.Element) []group.Element) *fileElementArray {
	out := a.f.createElemFile(a.g, a.size)
	a.forBatches(func(lo int, in []group.Element) {
		out.writeRange(lo, kernel(lo, in))
	})
	return out
}

func (a *fileElementArray) Size() int { return a.size }

func (a *fileElementArray) Group() group.Group { return a.g }

func (a *fileElementArray) Get(i int) group.Element {
	checkRange(i, i+1, a.size)
	return a.readRange(i, i+1)[0]
}

func (a *fileElementArray) Elements() []group.Element {
	return a.readRange(0, a.size)
}

func (a *fileElementArray) Mul(b ElementArray) ElementArray {
	checkSameSize(a.size, b.Size())
	return a.mapBatches(func(lo int, in []group.Element) []group.Element {
		dst := make([]group.Element, len(in))
		mulKernel(dst, in, elemRange(b, lo, lo+len(in)))
		return dst
	})
}

func (a *fileElementArray) Exp(exps IntegerArray) ElementArray {
	checkSameSize(a.size, exps.Size())
	return a.mapBatches(func(lo int, in []group.Element) []group.Element {
		ev := intRange(exps, lo, lo+len(in))
		dst := make([]group.Element, len(in))
		a.f.forRanges(len(in), func(x, y int) {
			expKernel(dst[x:y], in[x:y], ev[x:y])
		})
		return dst
	})
}

func (a *fileElementArray) ExpScalar(k *big.Int) ElementArray {
	return a.mapBatches(func(lo int, in []group.Element) []group.Element {
		dst := make([]group.Element, len(in))
		a.f.forRanges(len(in), func(x, y int) {
			expScalarKernel(dst[x:y], in[x:y], k)
		})
		return dst
	})
}

func (a *fileElementArray) Inverse() ElementArray {
	return a.mapBatches(func(lo int, in []group.Element) []group.Element {
		dst := make([]group.Element, len(in))
		invKernel(dst, in)
		return dst
	})
}

func (a *fileElementArray) Prod() group.Element {
	acc := a.g.Identity()
	a.forBatches(func(lo int, in []group.Element) {
		acc = prodKernel(acc, in)
	})
	return acc
}

func (a *fileElementArray) PowProd(exps IntegerArray) group.Element {
	checkSameSize(a.size, exps.Size())
	acc := a.g.Identity()
	a.forBatches(func(lo int, in []group.Element) {
		acc = a.f.powProdKernel(acc, in, intRange(exps, lo, lo+len(in)))
	})
	return acc
}

func (a *fileElementArray) CopyOfRange(lo, hi int) ElementArray {
	checkRange(lo, hi, a.size)
	out := a.f.createElemFile(a.g, hi-lo)
	for x := lo; x < hi; x += a.f.policy.BatchSize {
		y := min(x+a.f.policy.BatchSize, hi)
		out.writeRange(x-lo, a.readRange(x, y))
	}
	return out
}

func (a *fileElementArray) Extract(mask []bool) ElementArray {
	checkSameSize(a.size, len(mask))
	n := 0
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	out := a.f.createElemFile(a.g, n)
	next := 0
	a.forBatches(func(lo int, in []group.Element) {
		var picked []group.Element
		for i, e := range in {
			if mask[lo+i] {
				picked = append(picked, e)
			}
		}
		out.writeRange(next, picked)
		next += len(picked)
	})
	return out
}

func (a *fileElementArray) Permute(p *perm.Permutation) ElementArray {
	checkSameSize(a.size, p.Size())
	out := a.f.createElemFile(a.g, a.size)
	a.forBatches(func(lo int, in []group.Element) {
		one := make([]group.Element, 1)
		for i, e := range in {
			one[0] = e
			out.writeRange(p.Map(lo+i), one)
		}
	})
	return out
}

func (a *fileElementArray) Concat(b ElementArray) ElementArray {
	if !a.g.Equal(b.Group()) {
		panic("arrays: concat across groups")
	}
	out := a.f.createElemFile(a.g, a.size+b.Size())
	a.forBatches(func(lo int, in []group.Element) {
		out.writeRange(lo, in)
	})
	for lo := 0; lo < b.Size(); lo += a.f.policy.BatchSize {
		hi := min(lo+a.f.policy.BatchSize, b.Size())
		out.writeRange(a.size+lo, elemRange(b, lo, hi))
	}
	return out
}

func (a *fileElementArray) Equal(b ElementArray) bool {
	if a.size != b.Size() || !a.g.Equal(b.Group()) {
		return false
	}
	eq := true
	a.forBatches(func(lo int, in []group.Element) {
		if !eq {
			return
		}
		bv := elemRange(b, lo, lo+len(in))
		for i, e := range in {
			if !e.Equal(bv[i]) {
				eq = false
				return
			}
		}
	})
	return eq
}

// ToByteTree materializes the whole array; intended for arrays that are
// about to leave the engine anyway.
func (a *fileElementArray) ToByteTree() *bytetree.ByteTree {
	children := make([]*bytetree.ByteTree, a.size)
	a.forBatches(func(lo int, in []group.Element) {
		for i, e := range in {
			children[lo+i] = e.ToByteTree()
		}
	})
	return bytetree.Node(children...)
}

func (a *fileElementArray) Free() {
	if a.freed {
		return
	}
	a.freed = true
	name := a.file.Name()
	ioCheck(a.file.Close(), "close", name)
	ioCheck(os.Remove(name), "remove", name)
	log.Debugw("backing file removed", "path", name)
}
