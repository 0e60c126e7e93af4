package arrays

import (
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/group"
	"github.com/verimix/algebra/perm"
	"github.com/verimix/algebra/random"
)

// 1187 = 2*593 + 1 with 593 prime; 4 generates the order-593 subgroup.
var testGroup = group.MustModGroup(
	big.NewInt(1187), big.NewInt(593), big.NewInt(4), group.EncodingSafePrime,
)

func randomElems(n int) []group.Element {
	src := random.NewDevSource()
	es := make([]group.Element, n)
	for i := range es {
		es[i] = testGroup.Random(src)
	}
	return es
}

func TestElementBackendEquivalence(t *testing.T) {
	memF, fileF := testFactories(t)
	k := big.NewInt(131)

	ops := []struct {
		name string
		run  func(a, b ElementArray, e IntegerArray) ElementArray
	}{
		{"Mul", func(a, b ElementArray, e IntegerArray) ElementArray { return a.Mul(b) }},
		{"Exp", func(a, b ElementArray, e IntegerArray) ElementArray { return a.Exp(e) }},
		{"ExpScalar", func(a, b ElementArray, e IntegerArray) ElementArray { return a.ExpScalar(k) }},
		{"Inverse", func(a, b ElementArray, e IntegerArray) ElementArray { return a.Inverse() }},
	}

	for _, n := range []int{0, 1, 4, 13} {
		ea, eb := randomElems(n), randomElems(n)
		exps := randomInts(n, 32)
		memA := memF.NewElementArray(testGroup, ea)
		memB := memF.NewElementArray(testGroup, eb)
		memE := memF.NewIntegerArray(exps)
		fileA := fileF.NewElementArray(testGroup, ea)
		fileB := fileF.NewElementArray(testGroup, eb)
		fileE := fileF.NewIntegerArray(exps)

		for _, op := range ops {
			want := op.run(memA, memB, memE)
			got := op.run(fileA, fileB, fileE)
			if !got.Equal(want) || !want.Equal(got) {
				t.Errorf("n=%d %s: backends disagree", n, op.name)
			}
		}

		if got, want := fileA.Prod(), memA.Prod(); !got.Equal(want) {
			t.Errorf("n=%d Prod: backends disagree", n)
		}
		if got, want := fileA.PowProd(fileE), memA.PowProd(memE); !got.Equal(want) {
			t.Errorf("n=%d PowProd: backends disagree", n)
		}
	}
}

func TestElementArithmetic(t *testing.T) {
	memF, fileF := testFactories(t)
	const n = 7
	ea, eb := randomElems(n), randomElems(n)
	exps := randomInts(n, 32)

	for _, f := range []*Factory{memF, fileF} {
		a := f.NewElementArray(testGroup, ea)
		b := f.NewElementArray(testGroup, eb)
		e := f.NewIntegerArray(exps)

		mul := a.Mul(b)
		pow := a.Exp(e)
		inv := a.Inverse()
		for i := 0; i < n; i++ {
			if got, want := mul.Get(i), ea[i].Mul(eb[i]); !got.Equal(want) {
				t.Errorf("Mul[%d] mismatch", i)
			}
			if got, want := pow.Get(i), ea[i].ExpInt(exps[i]); !got.Equal(want) {
				t.Errorf("Exp[%d] mismatch", i)
			}
			if got := inv.Get(i).Mul(ea[i]); !got.Equal(testGroup.Identity()) {
				t.Errorf("Inverse[%d]*self != identity", i)
			}
		}

		wantProd := testGroup.Identity()
		wantPowProd := testGroup.Identity()
		for i := 0; i < n; i++ {
			wantProd = wantProd.Mul(ea[i])
			wantPowProd = wantPowProd.Mul(ea[i].ExpInt(exps[i]))
		}
		if got := a.Prod(); !got.Equal(wantProd) {
			t.Errorf("Prod mismatch")
		}
		if got := a.PowProd(e); !got.Equal(wantPowProd) {
			t.Errorf("PowProd mismatch")
		}
	}
}

func TestElementRearrangement(t *testing.T) {
	memF, fileF := testFactories(t)
	src := random.NewDevSource()
	const n = 10
	es := randomElems(n)

	for _, f := range []*Factory{memF, fileF} {
		a := f.NewElementArray(testGroup, es)

		p := perm.Random(n, src, 80)
		shuffled := a.Permute(p)
		for i := 0; i < n; i++ {
			if !shuffled.Get(p.Map(i)).Equal(es[i]) {
				t.Errorf("Permute: out[p(%d)] != in[%d]", i, i)
			}
		}
		if !shuffled.Permute(p.Inverse()).Equal(a) {
			t.Error("permuting by the inverse did not restore the array")
		}

		mask := make([]bool, n)
		mask[0], mask[4], mask[9] = true, true, true
		ext := a.Extract(mask)
		if ext.Size() != 3 || !ext.Get(1).Equal(es[4]) {
			t.Error("Extract picked wrong elements")
		}

		sub := a.CopyOfRange(2, 8)
		cat := sub.Concat(ext)
		if cat.Size() != 9 || !cat.Get(6).Equal(es[0]) {
			t.Error("Concat misplaced elements")
		}
	}
}

func TestElementByteTreeRoundTrip(t *testing.T) {
	memF, fileF := testFactories(t)
	es := randomElems(9)

	for _, f := range []*Factory{memF, fileF} {
		a := f.NewElementArray(testGroup, es)
		back, err := f.ElementArrayFromByteTree(testGroup, a.ToByteTree())
		require.NoError(t, err)
		if !back.Equal(a) {
			t.Error("round trip changed the array")
		}
	}

	// A node containing a non-member must be rejected.
	bad := bytetree.Node(
		testGroup.Generator().ToByteTree(),
		testGroup.Identity().ToByteTree(),
		bytetree.IntLeaf(big.NewInt(2), testGroup.ElementByteLen()-bytetree.HeaderLen),
	)
	if _, err := memF.ElementArrayFromByteTree(testGroup, bad); err == nil {
		t.Error("ElementArrayFromByteTree accepted a non-member")
	}
}

func TestElementGroupChecks(t *testing.T) {
	memF, _ := testFactories(t)
	other := group.MustModGroup(
		big.NewInt(23), big.NewInt(11), big.NewInt(4), group.EncodingSafePrime,
	)

	defer func() {
		if recover() == nil {
			t.Error("NewElementArray accepted elements of another group")
		}
	}()
	memF.NewElementArray(other, randomElems(2))
}

func TestElementFileLifecycle(t *testing.T) {
	_, fileF := testFactories(t)
	a := fileF.NewElementArray(testGroup, randomElems(5))
	fa, ok := a.(*fileElementArray)
	require.True(t, ok)
	path := fa.file.Name()

	a.Free()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("backing file still present after Free: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Elements after Free did not panic")
		}
	}()
	a.Elements()
}

func TestRandomElementArrayMembers(t *testing.T) {
	memF, fileF := testFactories(t)
	for _, f := range []*Factory{memF, fileF} {
		a := f.RandomElementArray(20, testGroup, random.NewDevSource())
		for i := 0; i < a.Size(); i++ {
			if !testGroup.Contains(a.Get(i)) {
				t.Fatalf("element %d outside the group", i)
			}
		}
	}
}
