// Package ring implements the exponent rings paired with the group layer: a
// prime-order field and finite direct products of rings sharing that order.
package ring

import (
	"errors"
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
)

// ErrNotInvertible is returned by Inv on a zero divisor.
var ErrNotInvertible = errors.New("ring: element is not invertible")

// Ring is a finite commutative ring of known prime characteristic. All
// implementations are immutable and safe for concurrent use.
type Ring interface {
	// Order returns the (prime) order shared by the ring and its paired
	// group. For a product ring this is the common component order.
	Order() *big.Int
	// Zero returns the additive identity.
	Zero() Element
	// One returns the multiplicative identity.
	One() Element
	// Element builds an element from a canonical representative, reducing
	// it modulo the order.
	Element(v *big.Int) Element
	// Random samples a uniform element.
	Random(src random.Source) Element
	// ElementByteLen returns the fixed byte length of one element's
	// serialized ByteTree. Identical for every element of the ring.
	ElementByteLen() int
	// FromByteTree parses an element serialized by Element.ToByteTree.
	FromByteTree(bt *bytetree.ByteTree) (Element, error)
	// Equal compares ring parameters by value, not identity.
	Equal(r Ring) bool
	// Width returns the number of direct components (1 when atomic).
	Width() int
	// FlatWidth returns the number of atomic leaves after recursive
	// flattening.
	FlatWidth() int
}

// Element is an immutable ring element. Binary operations first try to
// interpret the operand as an element of the same ring and otherwise recurse
// component-wise; an operand that matches neither way is a programmer error
// and panics.
type Element interface {
	// Ring returns the ring the element belongs to.
	Ring() Ring
	// Add returns the sum of the element and b.
	Add(b Element) Element
	// Sub returns the difference of the element and b.
	Sub(b Element) Element
	// Neg returns the additive inverse.
	Neg() Element
	// Mul returns the product of the element and b.
	Mul(b Element) Element
	// Inv returns the multiplicative inverse, or ErrNotInvertible.
	Inv() (Element, error)
	// Exp returns the element raised to the k-th power. A negative k
	// inverts first and panics on a zero divisor.
	Exp(k *big.Int) Element
	// Equal reports value equality with b.
	Equal(b Element) bool
	// Cmp imposes a deterministic total order on elements of one ring.
	Cmp(b Element) int
	// ToByteTree serializes the element.
	ToByteTree() *bytetree.ByteTree
}
