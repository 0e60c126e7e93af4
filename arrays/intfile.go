package arrays

import (
	"math/big"
	"os"

	"github.com/verimix/algebra/perm"
)

// fileIntegerArray stores fixed-size big-endian records in a temporary
// file, touching at most one batch of decoded values at a time. The record
// size is fixed per array: the byte length of the largest possible value.
type fileIntegerArray struct {
	f       *Factory
	file    *os.File
	size    int
	recSize int
	freed   bool
}

func newFileIntegerArray(f *Factory, vs []*big.Int) *fileIntegerArray {
	a := f.createIntFile(len(vs), recSizeForValues(vs))
	for lo := 0; lo < len(vs); lo += f.policy.BatchSize {
		hi := min(lo+f.policy.BatchSize, len(vs))
		a.writeRange(lo, vs[lo:hi])
	}
	return a
}

func (f *Factory) createIntFile(size, recSize int) *fileIntegerArray {
	return &fileIntegerArray{
		f:       f,
		file:    f.newBackingFile("intarray"),
		size:    size,
		recSize: recSize,
	}
}

func (a *fileIntegerArray) checkLive() {
	if a.freed {
		panic("arrays: use after Free")
	}
}

// writeRange encodes vs as records lo..lo+len(vs).
func (a *fileIntegerArray) writeRange(lo int, vs []*big.Int) {
	buf := make([]byte, len(vs)*a.recSize)
	for i, v := range vs {
		v.FillBytes(buf[i*a.recSize : (i+1)*a.recSize])
	}
	_, err := a.file.WriteAt(buf, int64(lo)*int64(a.recSize))
	ioCheck(err, "write", a.file.Name())
}

func (a *fileIntegerArray) readRange(lo, hi int) []*big.Int {
	a.checkLive()
	out := make([]*big.Int, hi-lo)
	if hi == lo {
		return out
	}
	buf := make([]byte, (hi-lo)*a.recSize)
	_, err := a.file.ReadAt(buf, int64(lo)*int64(a.recSize))
	ioCheck(err, "read", a.file.Name())
	for i := range out {
		out[i] = new(big.Int).SetBytes(buf[i*a.recSize : (i+1)*a.recSize])
	}
	return out
}

// forBatches streams the array through fn one batch at a time.
func (a *fileIntegerArray) forBatches(fn func(lo int, batch []*big.Int)) {
	a.checkLive()
	for lo := 0; lo < a.size; lo += a.f.policy.BatchSize {
		hi := min(lo+a.f.policy.BatchSize, a.size)
		fn(lo, a.readRange(lo, hi))
	}
}

// mapBatches builds a new array of the same size by transforming each
// batch. The kernel receives the batch's start index so it can line up a
// second operand.
func (a *fileIntegerArray) mapBatches(recSize int, kernel func(lo int, in []*big.Int) []*big.Int) *fileIntegerArray {
	out := a.f.createIntFile(a.size, recSize)
	a.forBatches(func(lo int, in []*big.Int) {
		out.writeRange(lo, kernel(lo, in))
	})
	return out
}

func (a *fileIntegerArray) Size() int { return a.size }

func (a *fileIntegerArray) Get(i int) *big.Int {
	checkRange(i, i+1, a.size)
	return a.readRange(i, i+1)[0]
}

func (a *fileIntegerArray) Ints() []*big.Int {
	return a.readRange(0, a.size)
}

func (a *fileIntegerArray) ModAdd(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(a.size, b.Size())
	checkModulus(m)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		dst := make([]*big.Int, len(in))
		modAddKernel(dst, in, intRange(b, lo, lo+len(in)), m)
		return dst
	})
}

func (a *fileIntegerArray) ModAddScalar(s, m *big.Int) IntegerArray {
	checkModulus(m)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		dst := make([]*big.Int, len(in))
		modAddScalarKernel(dst, in, s, m)
		return dst
	})
}

func (a *fileIntegerArray) ModMul(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(a.size, b.Size())
	checkModulus(m)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		dst := make([]*big.Int, len(in))
		modMulKernel(dst, in, intRange(b, lo, lo+len(in)), m)
		return dst
	})
}

func (a *fileIntegerArray) ModMulScalar(s, m *big.Int) IntegerArray {
	checkModulus(m)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		dst := make([]*big.Int, len(in))
		modMulScalarKernel(dst, in, s, m)
		return dst
	})
}

func (a *fileIntegerArray) ModPow(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(a.size, b.Size())
	checkModulus(m)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		bv := intRange(b, lo, lo+len(in))
		dst := make([]*big.Int, len(in))
		a.f.forRanges(len(in), func(x, y int) {
			modPowKernel(dst[x:y], in[x:y], bv[x:y], m)
		})
		return dst
	})
}

func (a *fileIntegerArray) ModPowScalar(s, m *big.Int) IntegerArray {
	checkModulus(m)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		dst := make([]*big.Int, len(in))
		a.f.forRanges(len(in), func(x, y int) {
			modPowScalarKernel(dst[x:y], in[x:y], s, m)
		})
		return dst
	})
}

func (a *fileIntegerArray) ModProd(m *big.Int) *big.Int {
	checkModulus(m)
	acc := big.NewInt(1)
	acc.Mod(acc, m)
	a.forBatches(func(lo int, in []*big.Int) {
		modProdKernel(acc, in, m)
	})
	return acc
}

func (a *fileIntegerArray) ModPowProd(b IntegerArray, m *big.Int) *big.Int {
	checkSameSize(a.size, b.Size())
	checkModulus(m)
	acc := big.NewInt(1)
	acc.Mod(acc, m)
	a.forBatches(func(lo int, in []*big.Int) {
		a.f.modPowProdKernel(acc, in, intRange(b, lo, lo+len(in)), m)
	})
	return acc
}

func (a *fileIntegerArray) ModRecLin(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(a.size, b.Size())
	checkModulus(m)
	acc := big.NewInt(0)
	return a.mapBatches(recSizeForMod(m), func(lo int, in []*big.Int) []*big.Int {
		dst := make([]*big.Int, len(in))
		acc = modRecLinKernel(dst, in, intRange(b, lo, lo+len(in)), acc, m)
		return dst
	})
}

func (a *fileIntegerArray) CopyOfRange(lo, hi int) IntegerArray {
	checkRange(lo, hi, a.size)
	out := a.f.createIntFile(hi-lo, a.recSize)
	for x := lo; x < hi; x += a.f.policy.BatchSize {
		y := min(x+a.f.policy.BatchSize, hi)
		out.writeRange(x-lo, a.readRange(x, y))
	}
	return out
}

func (a *fileIntegerArray) Extract(mask []bool) IntegerArray {
	checkSameSize(a.size, len(mask))
	n := 0
	for _, keep := range mask {
		if keep {
			n++
		}
	}
	out := a.f.createIntFile(n, a.recSize)
	next := 0
	a.forBatches(func(lo int, in []*big.Int) {
		var picked []*big.Int
		for i, v := range in {
			if mask[lo+i] {
				picked = append(picked, v)
			}
		}
		out.writeRange(next, picked)
		next += len(picked)
	})
	return out
}

func (a *fileIntegerArray) Permute(p *perm.Permutation) IntegerArray {
	checkSameSize(a.size, p.Size())
	out := a.f.createIntFile(a.size, a.recSize)
	a.forBatches(func(lo int, in []*big.Int) {
		one := make([]*big.Int, 1)
		for i, v := range in {
			one[0] = v
			out.writeRange(p.Map(lo+i), one)
		}
	})
	return out
}

func (a *fileIntegerArray) Concat(b IntegerArray) IntegerArray {
	recSize := a.recSize
	if fb, ok := b.(*fileIntegerArray); ok {
		recSize = max(recSize, fb.recSize)
	} else {
		recSize = max(recSize, recSizeForValues(intRange(b, 0, b.Size())))
	}
	out := a.f.createIntFile(a.size+b.Size(), recSize)
	a.forBatches(func(lo int, in []*big.Int) {
		out.writeRange(lo, in)
	})
	for lo := 0; lo < b.Size(); lo += a.f.policy.BatchSize {
		hi := min(lo+a.f.policy.BatchSize, b.Size())
		out.writeRange(a.size+lo, intRange(b, lo, hi))
	}
	return out
}

func (a *fileIntegerArray) Equal(b IntegerArray) bool {
	if a.size != b.Size() {
		return false
	}
	eq := true
	a.forBatches(func(lo int, in []*big.Int) {
		if !eq {
			return
		}
		bv := intRange(b, lo, lo+len(in))
		for i, v := range in {
			if v.Cmp(bv[i]) != 0 {
				eq = false
				return
			}
		}
	})
	return eq
}

// Free removes the backing file. Idempotent; any other use of the array
// after Free panics.
func (a *fileIntegerArray) Free() {
	if a.freed {
		return
	}
	a.freed = true
	name := a.file.Name()
	ioCheck(a.file.Close(), "close", name)
	ioCheck(os.Remove(name), "remove", name)
	log.Debugw("backing file removed", "path", name)
}
