package group

import (
	"errors"
	"testing"

	"github.com/verimix/algebra/random"
	"github.com/verimix/algebra/ring"
)

func TestExpProdWidthThree(t *testing.T) {
	src := random.NewDevSource()
	ep := NewExpProd(toySafeGroup, 3)

	bases := Power(toySafeGroup, 3).Random(src).(*ProductElement)
	exps := ring.Power(toySafeGroup.Ring(), 3).Random(src).(*ring.ProductElement)

	got, err := ep.Map(exps, bases)
	if err != nil {
		t.Fatal(err)
	}
	want := bases.Project(0).Exp(exps.Project(0)).
		Mul(bases.Project(1).Exp(exps.Project(1))).
		Mul(bases.Project(2).Exp(exps.Project(2)))
	if !got.Equal(want) {
		t.Error("exponentiated product mismatch")
	}
}

func TestExpProdDomainChecks(t *testing.T) {
	src := random.NewDevSource()
	ep := NewExpProd(toySafeGroup, 3)

	bases3 := Power(toySafeGroup, 3).Random(src)
	exps3 := ring.Power(toySafeGroup.Ring(), 3).Random(src)

	// Wrong widths.
	bases2 := Power(toySafeGroup, 2).Random(src)
	exps2 := ring.Power(toySafeGroup.Ring(), 2).Random(src)
	if _, err := ep.Map(exps3, bases2); !errors.Is(err, ErrDomain) {
		t.Errorf("narrow bases: got %v, wanted ErrDomain", err)
	}
	if _, err := ep.Map(exps2, bases3); !errors.Is(err, ErrDomain) {
		t.Errorf("narrow exponents: got %v, wanted ErrDomain", err)
	}

	// Atomic operands are not coerced.
	if _, err := ep.Map(toySafeGroup.Ring().Random(src), bases3); !errors.Is(err, ErrDomain) {
		t.Errorf("atomic exponent: got %v, wanted ErrDomain", err)
	}
	if _, err := ep.Map(exps3, toySafeGroup.Random(src)); !errors.Is(err, ErrDomain) {
		t.Errorf("atomic base: got %v, wanted ErrDomain", err)
	}

	// Wrong base group.
	basesCurve := Power(toyCurve, 3).Random(src)
	if _, err := ep.Map(exps3, basesCurve); !errors.Is(err, ErrDomain) {
		t.Errorf("foreign group: got %v, wanted ErrDomain", err)
	}
}
