package ring

import (
	"fmt"
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/prime"
	"github.com/verimix/algebra/random"
)

// Certainty bound applied when validating field orders.
const orderCertainty = 100

// PField is the field of integers modulo a prime order.
type PField struct {
	order   *big.Int
	byteLen int
}

// PFieldElement is a canonical representative in [0, order).
type PFieldElement struct {
	field *PField
	val   *big.Int
}

// NewPField builds the prime field of the given order. A composite order is
// rejected as a domain error.
func NewPField(order *big.Int) (*PField, error) {
	if !prime.IsProbablePrime(order, orderCertainty) {
		return nil, fmt.Errorf("ring: field order %d bits is not prime", order.BitLen())
	}
	return &PField{
		order:   new(big.Int).Set(order),
		byteLen: (order.BitLen() + 7) / 8,
	}, nil
}

// MustPField is NewPField for trusted parameters.
func MustPField(order *big.Int) *PField {
	f, err := NewPField(order)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *PField) Order() *big.Int { return f.order }
func (f *PField) Width() int      { return 1 }
func (f *PField) FlatWidth() int  { return 1 }

func (f *PField) ElementByteLen() int { return bytetree.HeaderLen + f.byteLen }

func (f *PField) Zero() Element { return &PFieldElement{field: f, val: new(big.Int)} }
func (f *PField) One() Element  { return &PFieldElement{field: f, val: big.NewInt(1)} }

func (f *PField) Element(v *big.Int) Element {
	return &PFieldElement{field: f, val: new(big.Int).Mod(v, f.order)}
}

func (f *PField) Random(src random.Source) Element {
	return &PFieldElement{field: f, val: src.IntRange(new(big.Int), f.order, statDistDefault)}
}

// statDistDefault bounds the bias of reductions used for sampling.
const statDistDefault = 80

func (f *PField) FromByteTree(bt *bytetree.ByteTree) (Element, error) {
	v, err := bt.LeafInt(f.byteLen)
	if err != nil {
		return nil, err
	}
	if v.Cmp(f.order) >= 0 {
		return nil, fmt.Errorf("%w: value exceeds field order", bytetree.ErrFormat)
	}
	return &PFieldElement{field: f, val: v}, nil
}

func (f *PField) Equal(r Ring) bool {
	g, ok := r.(*PField)
	return ok && f.order.Cmp(g.order) == 0
}

// Value returns a copy of the canonical representative.
func (e *PFieldElement) Value() *big.Int { return new(big.Int).Set(e.val) }

func (e *PFieldElement) Ring() Ring { return e.field }

func (e *PFieldElement) check(b Element) *PFieldElement {
	eb, ok := b.(*PFieldElement)
	if !ok {
		panic("ring: incompatible element type")
	}
	if !e.field.Equal(eb.field) {
		panic("ring: mismatched fields")
	}
	return eb
}

func (e *PFieldElement) Add(b Element) Element {
	eb := e.check(b)
	v := new(big.Int).Add(e.val, eb.val)
	v.Mod(v, e.field.order)
	return &PFieldElement{field: e.field, val: v}
}

func (e *PFieldElement) Sub(b Element) Element {
	eb := e.check(b)
	v := new(big.Int).Sub(e.val, eb.val)
	v.Mod(v, e.field.order)
	return &PFieldElement{field: e.field, val: v}
}

func (e *PFieldElement) Neg() Element {
	v := new(big.Int).Neg(e.val)
	v.Mod(v, e.field.order)
	return &PFieldElement{field: e.field, val: v}
}

func (e *PFieldElement) Mul(b Element) Element {
	eb := e.check(b)
	v := new(big.Int).Mul(e.val, eb.val)
	v.Mod(v, e.field.order)
	return &PFieldElement{field: e.field, val: v}
}

func (e *PFieldElement) Exp(k *big.Int) Element {
	v := new(big.Int).Exp(e.val, k, e.field.order)
	if v == nil {
		panic("ring: negative exponent of a zero divisor")
	}
	return &PFieldElement{field: e.field, val: v}
}

func (e *PFieldElement) Inv() (Element, error) {
	if e.val.Sign() == 0 {
		return nil, ErrNotInvertible
	}
	v := new(big.Int).ModInverse(e.val, e.field.order)
	if v == nil {
		return nil, ErrNotInvertible
	}
	return &PFieldElement{field: e.field, val: v}, nil
}

func (e *PFieldElement) Equal(b Element) bool {
	eb := e.check(b)
	return e.val.Cmp(eb.val) == 0
}

func (e *PFieldElement) Cmp(b Element) int {
	eb := e.check(b)
	return e.val.Cmp(eb.val)
}

func (e *PFieldElement) ToByteTree() *bytetree.ByteTree {
	return bytetree.IntLeaf(e.val, e.field.byteLen)
}
