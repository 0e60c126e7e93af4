package arrays

import (
	"math/big"

	"github.com/verimix/algebra/perm"
)

// memIntegerArray keeps all values resident. Stored integers are never
// mutated after construction, so derived arrays may share them.
type memIntegerArray struct {
	f  *Factory
	vs []*big.Int
}

func newMemIntegerArray(f *Factory, vs []*big.Int) *memIntegerArray {
	cp := make([]*big.Int, len(vs))
	for i, v := range vs {
		if v.Sign() < 0 {
			panic("arrays: negative integer value")
		}
		cp[i] = new(big.Int).Set(v)
	}
	return &memIntegerArray{f: f, vs: cp}
}

// memIntsOwned wraps an op result without re-copying.
func (f *Factory) memIntsOwned(vs []*big.Int) *memIntegerArray {
	return &memIntegerArray{f: f, vs: vs}
}

func (a *memIntegerArray) Size() int { return len(a.vs) }

func (a *memIntegerArray) Get(i int) *big.Int {
	return new(big.Int).Set(a.vs[i])
}

func (a *memIntegerArray) Ints() []*big.Int {
	out := make([]*big.Int, len(a.vs))
	for i, v := range a.vs {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

func checkModulus(m *big.Int) {
	if m.Sign() <= 0 {
		panic("arrays: modulus must be positive")
	}
}

func (a *memIntegerArray) ModAdd(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(len(a.vs), b.Size())
	checkModulus(m)
	dst := make([]*big.Int, len(a.vs))
	modAddKernel(dst, a.vs, intRange(b, 0, b.Size()), m)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) ModAddScalar(s, m *big.Int) IntegerArray {
	checkModulus(m)
	dst := make([]*big.Int, len(a.vs))
	modAddScalarKernel(dst, a.vs, s, m)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) ModMul(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(len(a.vs), b.Size())
	checkModulus(m)
	dst := make([]*big.Int, len(a.vs))
	modMulKernel(dst, a.vs, intRange(b, 0, b.Size()), m)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) ModMulScalar(s, m *big.Int) IntegerArray {
	checkModulus(m)
	dst := make([]*big.Int, len(a.vs))
	modMulScalarKernel(dst, a.vs, s, m)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) ModPow(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(len(a.vs), b.Size())
	checkModulus(m)
	bv := intRange(b, 0, b.Size())
	dst := make([]*big.Int, len(a.vs))
	a.f.forRanges(len(a.vs), func(lo, hi int) {
		modPowKernel(dst[lo:hi], a.vs[lo:hi], bv[lo:hi], m)
	})
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) ModPowScalar(s, m *big.Int) IntegerArray {
	checkModulus(m)
	dst := make([]*big.Int, len(a.vs))
	a.f.forRanges(len(a.vs), func(lo, hi int) {
		modPowScalarKernel(dst[lo:hi], a.vs[lo:hi], s, m)
	})
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) ModProd(m *big.Int) *big.Int {
	checkModulus(m)
	acc := big.NewInt(1)
	acc.Mod(acc, m)
	modProdKernel(acc, a.vs, m)
	return acc
}

func (a *memIntegerArray) ModPowProd(b IntegerArray, m *big.Int) *big.Int {
	checkSameSize(len(a.vs), b.Size())
	checkModulus(m)
	acc := big.NewInt(1)
	acc.Mod(acc, m)
	a.f.modPowProdKernel(acc, a.vs, intRange(b, 0, b.Size()), m)
	return acc
}

func (a *memIntegerArray) ModRecLin(b IntegerArray, m *big.Int) IntegerArray {
	checkSameSize(len(a.vs), b.Size())
	checkModulus(m)
	dst := make([]*big.Int, len(a.vs))
	modRecLinKernel(dst, a.vs, intRange(b, 0, b.Size()), big.NewInt(0), m)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) CopyOfRange(lo, hi int) IntegerArray {
	checkRange(lo, hi, len(a.vs))
	dst := make([]*big.Int, hi-lo)
	copy(dst, a.vs[lo:hi])
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) Extract(mask []bool) IntegerArray {
	checkSameSize(len(a.vs), len(mask))
	var dst []*big.Int
	for i, keep := range mask {
		if keep {
			dst = append(dst, a.vs[i])
		}
	}
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) Permute(p *perm.Permutation) IntegerArray {
	checkSameSize(len(a.vs), p.Size())
	dst := make([]*big.Int, len(a.vs))
	perm.Apply(p, dst, a.vs)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) Concat(b IntegerArray) IntegerArray {
	dst := make([]*big.Int, 0, len(a.vs)+b.Size())
	dst = append(dst, a.vs...)
	dst = append(dst, intRange(b, 0, b.Size())...)
	return a.f.memIntsOwned(dst)
}

func (a *memIntegerArray) Equal(b IntegerArray) bool {
	if len(a.vs) != b.Size() {
		return false
	}
	for i, v := range a.vs {
		if v.Cmp(b.Get(i)) != 0 {
			return false
		}
	}
	return true
}

func (a *memIntegerArray) Free() {}
