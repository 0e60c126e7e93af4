package arrays

import (
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verimix/algebra/perm"
	"github.com/verimix/algebra/random"
)

// Small batches so that modest test sizes still cross batch boundaries, and
// a low threshold so the worker pool is exercised.
func testFactories(t *testing.T) (mem, file *Factory) {
	t.Helper()
	memF, err := NewFactory(Policy{BatchSize: 4, ParallelThreshold: 8, Workers: 3})
	require.NoError(t, err)
	fileF, err := NewFactory(Policy{
		FileBacked:        true,
		Dir:               t.TempDir(),
		BatchSize:         4,
		ParallelThreshold: 8,
		Workers:           3,
	})
	require.NoError(t, err)
	return memF, fileF
}

func randomInts(n, bits int) []*big.Int {
	src := random.NewDevSource()
	vs := make([]*big.Int, n)
	for i := range vs {
		vs[i] = src.Int(bits)
	}
	return vs
}

func TestPolicyValidation(t *testing.T) {
	cases := []struct {
		name string
		p    Policy
	}{
		{"zero batch size", Policy{BatchSize: 0}},
		{"negative batch size", Policy{BatchSize: -1}},
		{"negative threshold", Policy{BatchSize: 8, ParallelThreshold: -1}},
		{"negative workers", Policy{BatchSize: 8, Workers: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFactory(tc.p); !errors.Is(err, ErrPolicy) {
				t.Errorf("NewFactory error = %v, want ErrPolicy", err)
			}
		})
	}

	f, err := NewFactory(Policy{BatchSize: 8})
	require.NoError(t, err)
	if f.Policy().Workers <= 0 {
		t.Errorf("Workers = %d after defaulting, want > 0", f.Policy().Workers)
	}
}

// Every operation must produce identical results on both backends,
// including at sizes of zero, one, exactly one batch, and several batches
// plus a remainder.
func TestIntegerBackendEquivalence(t *testing.T) {
	memF, fileF := testFactories(t)
	m := big.NewInt(1000003)
	s := big.NewInt(271828)

	arrayOps := []struct {
		name string
		run  func(a, b IntegerArray) IntegerArray
	}{
		{"ModAdd", func(a, b IntegerArray) IntegerArray { return a.ModAdd(b, m) }},
		{"ModAddScalar", func(a, b IntegerArray) IntegerArray { return a.ModAddScalar(s, m) }},
		{"ModMul", func(a, b IntegerArray) IntegerArray { return a.ModMul(b, m) }},
		{"ModMulScalar", func(a, b IntegerArray) IntegerArray { return a.ModMulScalar(s, m) }},
		{"ModPow", func(a, b IntegerArray) IntegerArray { return a.ModPow(b, m) }},
		{"ModPowScalar", func(a, b IntegerArray) IntegerArray { return a.ModPowScalar(s, m) }},
		{"ModRecLin", func(a, b IntegerArray) IntegerArray { return a.ModRecLin(b, m) }},
	}
	scalarOps := []struct {
		name string
		run  func(a, b IntegerArray) *big.Int
	}{
		{"ModProd", func(a, b IntegerArray) *big.Int { return a.ModProd(m) }},
		{"ModPowProd", func(a, b IntegerArray) *big.Int { return a.ModPowProd(b, m) }},
	}

	for _, n := range []int{0, 1, 4, 13} {
		va, vb := randomInts(n, 64), randomInts(n, 64)
		memA, memB := memF.NewIntegerArray(va), memF.NewIntegerArray(vb)
		fileA, fileB := fileF.NewIntegerArray(va), fileF.NewIntegerArray(vb)

		for _, op := range arrayOps {
			want := op.run(memA, memB)
			got := op.run(fileA, fileB)
			if !got.Equal(want) || !want.Equal(got) {
				t.Errorf("n=%d %s: backends disagree", n, op.name)
			}
		}
		for _, op := range scalarOps {
			want := op.run(memA, memB)
			got := op.run(fileA, fileB)
			if got.Cmp(want) != 0 {
				t.Errorf("n=%d %s = %v on file backend, want %v", n, op.name, got, want)
			}
		}
	}
}

func TestIntegerArithmetic(t *testing.T) {
	memF, fileF := testFactories(t)
	m := big.NewInt(97)
	va := []*big.Int{big.NewInt(5), big.NewInt(96), big.NewInt(0), big.NewInt(41), big.NewInt(13)}
	vb := []*big.Int{big.NewInt(3), big.NewInt(2), big.NewInt(7), big.NewInt(96), big.NewInt(0)}

	for _, f := range []*Factory{memF, fileF} {
		a, b := f.NewIntegerArray(va), f.NewIntegerArray(vb)

		sum := a.ModAdd(b, m)
		prodArr := a.ModMul(b, m)
		pow := a.ModPow(b, m)
		for i := range va {
			want := new(big.Int).Add(va[i], vb[i])
			want.Mod(want, m)
			if got := sum.Get(i); got.Cmp(want) != 0 {
				t.Errorf("ModAdd[%d] = %v, want %v", i, got, want)
			}
			want.Mul(va[i], vb[i])
			want.Mod(want, m)
			if got := prodArr.Get(i); got.Cmp(want) != 0 {
				t.Errorf("ModMul[%d] = %v, want %v", i, got, want)
			}
			want.Exp(va[i], vb[i], m)
			if got := pow.Get(i); got.Cmp(want) != 0 {
				t.Errorf("ModPow[%d] = %v, want %v", i, got, want)
			}
		}

		wantProd := big.NewInt(1)
		wantPowProd := big.NewInt(1)
		for i := range va {
			wantProd.Mul(wantProd, va[i])
			wantProd.Mod(wantProd, m)
			p := new(big.Int).Exp(va[i], vb[i], m)
			wantPowProd.Mul(wantPowProd, p)
			wantPowProd.Mod(wantPowProd, m)
		}
		if got := a.ModProd(m); got.Cmp(wantProd) != 0 {
			t.Errorf("ModProd = %v, want %v", got, wantProd)
		}
		if got := a.ModPowProd(b, m); got.Cmp(wantPowProd) != 0 {
			t.Errorf("ModPowProd = %v, want %v", got, wantPowProd)
		}

		rec := a.ModRecLin(b, m)
		acc := big.NewInt(0)
		for i := range va {
			acc.Mul(acc, vb[i])
			acc.Add(acc, va[i])
			acc.Mod(acc, m)
			if got := rec.Get(i); got.Cmp(acc) != 0 {
				t.Errorf("ModRecLin[%d] = %v, want %v", i, got, acc)
			}
		}
	}
}

func TestIntegerRearrangement(t *testing.T) {
	memF, fileF := testFactories(t)
	src := random.NewDevSource()
	const n = 11
	vs := randomInts(n, 32)

	for _, f := range []*Factory{memF, fileF} {
		a := f.NewIntegerArray(vs)

		sub := a.CopyOfRange(3, 9)
		if sub.Size() != 6 {
			t.Fatalf("CopyOfRange size = %d, want 6", sub.Size())
		}
		for i := 0; i < 6; i++ {
			if sub.Get(i).Cmp(vs[3+i]) != 0 {
				t.Errorf("CopyOfRange[%d] = %v, want %v", i, sub.Get(i), vs[3+i])
			}
		}

		mask := make([]bool, n)
		for i := range mask {
			mask[i] = i%3 == 0
		}
		ext := a.Extract(mask)
		j := 0
		for i := range mask {
			if mask[i] {
				if ext.Get(j).Cmp(vs[i]) != 0 {
					t.Errorf("Extract[%d] = %v, want %v", j, ext.Get(j), vs[i])
				}
				j++
			}
		}
		if ext.Size() != j {
			t.Errorf("Extract size = %d, want %d", ext.Size(), j)
		}

		p := perm.Random(n, src, 80)
		shuffled := a.Permute(p)
		for i := 0; i < n; i++ {
			if shuffled.Get(p.Map(i)).Cmp(vs[i]) != 0 {
				t.Errorf("Permute: out[p(%d)] != in[%d]", i, i)
			}
		}
		back := shuffled.Permute(p.Inverse())
		if !back.Equal(a) {
			t.Error("permuting by the inverse did not restore the array")
		}

		cat := a.Concat(sub)
		if cat.Size() != n+6 {
			t.Fatalf("Concat size = %d, want %d", cat.Size(), n+6)
		}
		if cat.Get(n+2).Cmp(vs[5]) != 0 {
			t.Errorf("Concat tail mismatch: got %v, want %v", cat.Get(n+2), vs[5])
		}
	}
}

// Mixed-backend operands must work: a file-backed receiver with a
// memory-backed argument and vice versa.
func TestIntegerMixedBackends(t *testing.T) {
	memF, fileF := testFactories(t)
	m := big.NewInt(1009)
	va, vb := randomInts(9, 32), randomInts(9, 32)

	memA, fileB := memF.NewIntegerArray(va), fileF.NewIntegerArray(vb)
	fileA, memB := fileF.NewIntegerArray(va), memF.NewIntegerArray(vb)

	x := memA.ModMul(fileB, m)
	y := fileA.ModMul(memB, m)
	if !x.Equal(y) {
		t.Error("mixed-backend ModMul results disagree")
	}
	if !memA.Concat(fileB).Equal(fileA.Concat(memB)) {
		t.Error("mixed-backend Concat results disagree")
	}
}

func TestIntegerSizeMismatchPanics(t *testing.T) {
	memF, _ := testFactories(t)
	a := memF.NewIntegerArray(randomInts(4, 16))
	b := memF.NewIntegerArray(randomInts(5, 16))
	defer func() {
		if recover() == nil {
			t.Error("ModAdd with mismatched sizes did not panic")
		}
	}()
	a.ModAdd(b, big.NewInt(17))
}

// A file-backed multi-exponentiation over several batches must match a
// brute-force loop over the same data.
func TestModPowProdStreamed(t *testing.T) {
	n, batch := 100000, 10000
	if testing.Short() {
		n, batch = 2500, 1000
	}
	fileF, err := NewFactory(Policy{
		FileBacked:        true,
		Dir:               t.TempDir(),
		BatchSize:         batch,
		ParallelThreshold: batch / 2,
		Workers:           4,
	})
	require.NoError(t, err)
	m := new(big.Int).SetUint64(4611686018427387847)
	bases, exps := randomInts(n, 48), randomInts(n, 48)

	a := fileF.NewIntegerArray(bases)
	b := fileF.NewIntegerArray(exps)
	got := a.ModPowProd(b, m)

	want := big.NewInt(1)
	tmp := new(big.Int)
	for i := 0; i < n; i++ {
		want.Mul(want, tmp.Exp(bases[i], exps[i], m))
		want.Mod(want, m)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("ModPowProd = %v, want %v", got, want)
	}
	a.Free()
	b.Free()
}

func TestIntegerFileLifecycle(t *testing.T) {
	_, fileF := testFactories(t)
	a := fileF.NewIntegerArray(randomInts(6, 32))
	fa, ok := a.(*fileIntegerArray)
	require.True(t, ok)
	path := fa.file.Name()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backing file missing before Free: %v", err)
	}
	a.Free()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("backing file still present after Free: %v", err)
	}
	a.Free() // idempotent

	defer func() {
		if recover() == nil {
			t.Error("Get after Free did not panic")
		}
	}()
	a.Get(0)
}

func TestRandomIntegerArrayBounds(t *testing.T) {
	memF, _ := testFactories(t)
	a := memF.RandomIntegerArray(50, 16, random.NewDevSource())
	bound := new(big.Int).Lsh(big.NewInt(1), 16)
	for i := 0; i < a.Size(); i++ {
		v := a.Get(i)
		if v.Sign() < 0 || v.Cmp(bound) >= 0 {
			t.Fatalf("value %v outside [0, 2^16)", v)
		}
	}
}
