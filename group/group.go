// Package group implements prime-order groups: a multiplicative subgroup
// modulo a prime, an elliptic-curve group over a prime field, and finite
// direct products of groups. Each group is paired with the exponent ring of
// its order from the ring package.
package group

import (
	"errors"
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
	"github.com/verimix/algebra/ring"
)

// ErrDomain reports an operand from untrusted input that does not belong to
// the expected group, ring, or width.
var ErrDomain = errors.New("group: domain mismatch")

// ErrEncode reports a message that cannot be embedded into a group element,
// either because it is too long or because the bounded embedding attempts
// were exhausted.
var ErrEncode = errors.New("group: message cannot be encoded")

// Group is a cyclic group of known prime order. Implementations are
// immutable and safe for concurrent use.
type Group interface {
	// Ring returns the exponent ring, of the same order as the group.
	Ring() ring.Ring
	// Order returns the prime element order.
	Order() *big.Int
	// Identity returns the neutral element.
	Identity() Element
	// Generator returns the standard generator.
	Generator() Element
	// Random samples a uniform element.
	Random(src random.Source) Element
	// MaxEncodeLen returns the longest byte string Encode accepts.
	MaxEncodeLen() int
	// Encode embeds a message of at most MaxEncodeLen bytes into an
	// element such that Decode recovers it.
	Encode(msg []byte) (Element, error)
	// Decode recovers the message embedded in an element of this group.
	Decode(e Element) ([]byte, error)
	// ElementByteLen returns the fixed byte length of one element's
	// serialized ByteTree. Identical for every element of the group.
	ElementByteLen() int
	// FromByteTree parses and validates an element serialized by
	// Element.ToByteTree. Values outside the group are a domain error.
	FromByteTree(bt *bytetree.ByteTree) (Element, error)
	// Contains reports whether e is a valid element of this group.
	Contains(e Element) bool
	// Equal compares group parameters by value, not identity.
	Equal(g Group) bool
	// Width returns the number of direct components (1 when atomic).
	Width() int
	// FlatWidth returns the number of atomic leaves after recursive
	// flattening.
	FlatWidth() int
}

// Element is an immutable group element. Binary operations require operands
// of compatible groups; incompatible operands passed by engine code are a
// programmer error and panic. Untrusted values must be validated through
// Group.FromByteTree before they reach these operations.
type Element interface {
	// Group returns the group the element belongs to.
	Group() Group
	// Mul returns the group operation applied to the element and b.
	Mul(b Element) Element
	// Inv returns the group inverse.
	Inv() Element
	// Exp returns the element raised to an exponent-ring element.
	Exp(x ring.Element) Element
	// ExpInt returns the element raised to a raw integer exponent.
	ExpInt(k *big.Int) Element
	// Equal reports value equality with b.
	Equal(b Element) bool
	// Cmp imposes a deterministic total order on elements of one group,
	// used for canonicalization.
	Cmp(b Element) int
	// ToByteTree serializes the element.
	ToByteTree() *bytetree.ByteTree
}

// expValue extracts the integer exponent of an atomic ring element whose
// ring matches r. Any other operand is a programmer error.
func expValue(r ring.Ring, x ring.Element) *big.Int {
	fe, ok := x.(*ring.PFieldElement)
	if !ok {
		panic("group: exponent is not an atomic ring element")
	}
	if !fe.Ring().Equal(r) {
		panic("group: exponent from mismatched ring")
	}
	return fe.Value()
}
