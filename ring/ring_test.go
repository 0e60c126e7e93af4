package ring

import (
	"errors"
	"math/big"
	"testing"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
)

var testField = MustPField(big.NewInt(2879)) // prime

func testRings() []Ring {
	return []Ring{
		testField,
		Product(testField, testField),
		Product(testField, Product(testField, testField)),
	}
}

func TestNewPFieldComposite(t *testing.T) {
	if _, err := NewPField(big.NewInt(2880)); err == nil {
		t.Error("composite order accepted")
	}
}

func TestFieldAxioms(t *testing.T) {
	src := random.NewDevSource()
	for _, r := range testRings() {
		for i := 0; i < 64; i++ {
			a := r.Random(src)
			b := r.Random(src)
			c := r.Random(src)

			if !a.Add(b).Equal(b.Add(a)) {
				t.Error("addition is not commutative")
			}
			if !a.Add(b.Add(c)).Equal(a.Add(b).Add(c)) {
				t.Error("addition is not associative")
			}
			if !a.Mul(b.Add(c)).Equal(a.Mul(b).Add(a.Mul(c))) {
				t.Error("multiplication does not distribute")
			}
			if !a.Add(r.Zero()).Equal(a) {
				t.Error("zero is not neutral")
			}
			if !a.Mul(r.One()).Equal(a) {
				t.Error("one is not neutral")
			}
			if !a.Add(a.Neg()).Equal(r.Zero()) {
				t.Error("negation is not inverse")
			}
			if !a.Sub(b).Equal(a.Add(b.Neg())) {
				t.Error("subtraction mismatch")
			}
		}
	}
}

// hasZeroComponent reports whether any atomic component of a is zero, i.e.
// whether a is a zero divisor of its ring.
func hasZeroComponent(a Element) bool {
	if pe, ok := a.(*ProductElement); ok {
		for i := 0; i < pe.Ring().Width(); i++ {
			if hasZeroComponent(pe.Project(i)) {
				return true
			}
		}
		return false
	}
	return a.Equal(a.Ring().Zero())
}

func TestFieldInv(t *testing.T) {
	src := random.NewDevSource()
	for _, r := range testRings() {
		for i := 0; i < 32; i++ {
			a := r.Random(src)
			inv, err := a.Inv()
			if errors.Is(err, ErrNotInvertible) {
				if !hasZeroComponent(a) {
					t.Error("invertible element reported non-invertible")
				}
				continue
			}
			if err != nil {
				t.Fatal(err)
			}
			if !a.Mul(inv).Equal(r.One()) {
				t.Error("a * a^-1 != 1")
			}
		}
		if _, err := r.Zero().Inv(); !errors.Is(err, ErrNotInvertible) {
			t.Errorf("Inv(0) = %v, wanted ErrNotInvertible", err)
		}
	}
}

func TestFieldExp(t *testing.T) {
	src := random.NewDevSource()
	for _, r := range testRings() {
		a := r.Random(src)
		got := r.One()
		for k := 0; k <= 8; k++ {
			if !a.Exp(big.NewInt(int64(k))).Equal(got) {
				t.Errorf("a^%d mismatch against repeated multiplication", k)
			}
			got = got.Mul(a)
		}
		if !hasZeroComponent(a) {
			inv, err := a.Inv()
			if err != nil {
				t.Fatal(err)
			}
			if !a.Exp(big.NewInt(-3)).Equal(inv.Exp(big.NewInt(3))) {
				t.Error("a^-3 != (a^-1)^3")
			}
		}
	}
	defer func() {
		if recover() == nil {
			t.Error("negative power of zero did not panic")
		}
	}()
	testField.Zero().Exp(big.NewInt(-1))
}

func TestByteTreeRoundTrip(t *testing.T) {
	src := random.NewDevSource()
	for _, r := range testRings() {
		for i := 0; i < 16; i++ {
			a := r.Random(src)
			bt, err := bytetree.Parse(a.ToByteTree().Bytes())
			if err != nil {
				t.Fatal(err)
			}
			back, err := r.FromByteTree(bt)
			if err != nil {
				t.Fatal(err)
			}
			if !a.Equal(back) {
				t.Error("round trip mismatch")
			}
		}
	}
}

func TestFromByteTreeRejectsOversized(t *testing.T) {
	bt := bytetree.IntLeaf(big.NewInt(2879), testField.ElementByteLen()-bytetree.HeaderLen)
	if _, err := testField.FromByteTree(bt); !errors.Is(err, bytetree.ErrFormat) {
		t.Errorf("got %v, wanted ErrFormat", err)
	}
}

func TestProductProjection(t *testing.T) {
	src := random.NewDevSource()
	r := Product(testField, testField, testField)
	a := testField.Random(src)
	b := testField.Random(src)
	c := testField.Random(src)

	tup := r.Tuple(a, b, c).(*ProductElement)
	if !tup.Project(0).Equal(a) || !tup.Project(1).Equal(b) || !tup.Project(2).Equal(c) {
		t.Error("projection does not invert tuple construction")
	}

	// Selecting one component collapses to the atomic ring.
	single := tup.ProjectMask([]bool{false, true, false})
	if single.Ring().Width() != 1 {
		t.Error("single selection did not collapse")
	}
	if !single.Equal(b) {
		t.Error("collapsed projection mismatch")
	}

	pair := tup.ProjectMask([]bool{true, false, true}).(*ProductElement)
	if pair.Ring().Width() != 2 {
		t.Error("pair projection width")
	}
	if !pair.Project(0).Equal(a) || !pair.Project(1).Equal(c) {
		t.Error("pair projection mismatch")
	}
}

func TestProductDualDispatch(t *testing.T) {
	src := random.NewDevSource()
	r := Product(testField, testField)
	a := testField.Random(src)
	b := testField.Random(src)
	s := testField.Random(src)
	tup := r.Tuple(a, b).(*ProductElement)

	// An atomic operand is pushed down to every component.
	scaled := tup.Mul(s).(*ProductElement)
	if !scaled.Project(0).Equal(a.Mul(s)) || !scaled.Project(1).Equal(b.Mul(s)) {
		t.Error("atomic operand was not broadcast")
	}

	// A same-ring operand combines component-wise.
	other := r.Random(src).(*ProductElement)
	sum := tup.Add(other).(*ProductElement)
	if !sum.Project(0).Equal(a.Add(other.Project(0))) {
		t.Error("same-ring operand was not zipped")
	}
}

func TestProductOrderMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("mismatched orders did not panic")
		}
	}()
	Product(testField, MustPField(big.NewInt(3001)))
}

func TestFlatWidth(t *testing.T) {
	r := Product(testField, Product(testField, testField), testField)
	if r.Width() != 3 {
		t.Errorf("Width = %d, wanted 3", r.Width())
	}
	if r.FlatWidth() != 4 {
		t.Errorf("FlatWidth = %d, wanted 4", r.FlatWidth())
	}
}
