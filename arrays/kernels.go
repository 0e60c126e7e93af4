package arrays

import (
	"math/big"

	"github.com/verimix/algebra/group"
)

// The kernels below operate on in-memory slices and are shared by both
// backends: the memory backend applies them to the whole array, the file
// backend to one batch at a time. Keeping a single implementation per
// operation guarantees that the two backends compute identical results.

func modAddKernel(dst, a, b []*big.Int, m *big.Int) {
	for i := range dst {
		dst[i] = new(big.Int).Add(a[i], b[i])
		dst[i].Mod(dst[i], m)
	}
}

func modAddScalarKernel(dst, a []*big.Int, s, m *big.Int) {
	for i := range dst {
		dst[i] = new(big.Int).Add(a[i], s)
		dst[i].Mod(dst[i], m)
	}
}

func modMulKernel(dst, a, b []*big.Int, m *big.Int) {
	for i := range dst {
		dst[i] = new(big.Int).Mul(a[i], b[i])
		dst[i].Mod(dst[i], m)
	}
}

func modMulScalarKernel(dst, a []*big.Int, s, m *big.Int) {
	for i := range dst {
		dst[i] = new(big.Int).Mul(a[i], s)
		dst[i].Mod(dst[i], m)
	}
}

func modPowKernel(dst, a, e []*big.Int, m *big.Int) {
	for i := range dst {
		dst[i] = new(big.Int).Exp(a[i], e[i], m)
	}
}

func modPowScalarKernel(dst, a []*big.Int, e, m *big.Int) {
	for i := range dst {
		dst[i] = new(big.Int).Exp(a[i], e, m)
	}
}

// modProdKernel folds acc <- acc * prod(a) mod m.
func modProdKernel(acc *big.Int, a []*big.Int, m *big.Int) {
	for _, v := range a {
		acc.Mul(acc, v)
		acc.Mod(acc, m)
	}
}

// modPowProdKernel folds acc <- acc * prod(a[i]^e[i]) mod m. The
// exponentiations within the batch run on the factory's worker pool.
func (f *Factory) modPowProdKernel(acc *big.Int, a, e []*big.Int, m *big.Int) {
	powers := make([]*big.Int, len(a))
	f.forRanges(len(a), func(lo, hi int) {
		modPowKernel(powers[lo:hi], a[lo:hi], e[lo:hi], m)
	})
	modProdKernel(acc, powers, m)
}

// modRecLinKernel computes dst[i] = acc*b[i] + a[i] mod m in order, where
// acc carries the previous output value across batches. Seeding acc with
// zero makes the first output a[0] mod m. Returns the final output value.
func modRecLinKernel(dst, a, b []*big.Int, acc, m *big.Int) *big.Int {
	for i := range dst {
		next := new(big.Int).Mul(acc, b[i])
		next.Add(next, a[i])
		next.Mod(next, m)
		dst[i] = next
		acc = next
	}
	return acc
}

func mulKernel(dst, a, b []group.Element) {
	for i := range dst {
		dst[i] = a[i].Mul(b[i])
	}
}

func expKernel(dst []group.Element, a []group.Element, e []*big.Int) {
	for i := range dst {
		dst[i] = a[i].ExpInt(e[i])
	}
}

func expScalarKernel(dst []group.Element, a []group.Element, k *big.Int) {
	for i := range dst {
		dst[i] = a[i].ExpInt(k)
	}
}

func invKernel(dst, a []group.Element) {
	for i := range dst {
		dst[i] = a[i].Inv()
	}
}

// prodKernel folds acc <- acc * prod(a).
func prodKernel(acc group.Element, a []group.Element) group.Element {
	for _, v := range a {
		acc = acc.Mul(v)
	}
	return acc
}

// powProdKernel folds acc <- acc * prod(a[i]^e[i]), exponentiating on the
// worker pool.
func (f *Factory) powProdKernel(acc group.Element, a []group.Element, e []*big.Int) group.Element {
	powers := make([]group.Element, len(a))
	f.forRanges(len(a), func(lo, hi int) {
		expKernel(powers[lo:hi], a[lo:hi], e[lo:hi])
	})
	return prodKernel(acc, powers)
}
