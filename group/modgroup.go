package group

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/prime"
	"github.com/verimix/algebra/random"
	"github.com/verimix/algebra/ring"
)

// Encoding selects how messages are embedded into ModGroup elements.
type Encoding byte

const (
	// EncodingRO hashes messages of at most one byte onto the subgroup.
	// The mapping is one-way: encoded messages are not recoverable.
	EncodingRO Encoding = iota
	// EncodingSafePrime embeds messages as signed residues in a group of
	// order (modulus-1)/2, selecting the quadratic-residue sign.
	EncodingSafePrime
	// EncodingSubgroup pads candidate integers until one lands in the
	// subgroup.
	EncodingSubgroup
)

const (
	// Number of bytes reserved for the big-endian message length prefix
	// in the safe-prime and subgroup encodings. Security arguments of the
	// consuming protocols depend on this exact value.
	lengthPrefixBytes = 4

	// Bounded attempts for the random-oracle encoding.
	roMaxAttempts = 256

	// Largest modulus/order bit-length gap for which subgroup message
	// embedding stays tractable. Beyond it MaxEncodeLen collapses to 0.
	subgroupGapCap = 8

	defaultCertainty = 100
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// ModGroup is a prime-order subgroup of the multiplicative group modulo a
// prime.
type ModGroup struct {
	modulus   *big.Int
	order     *big.Int
	coOrder   *big.Int
	generator *big.Int
	encoding  Encoding

	field      *ring.PField
	modByteLen int
	maxEncode  int
	padBytes   int
}

// ModElement is a canonical residue in [1, modulus) belonging to the
// subgroup.
type ModElement struct {
	group *ModGroup
	val   *big.Int
}

// NewModGroup validates the parameters and builds the group. All failures
// are domain errors, since parameters may arrive from untrusted input.
func NewModGroup(modulus, order, generator *big.Int, encoding Encoding, certainty int) (*ModGroup, error) {
	if !prime.IsProbablePrime(modulus, certainty) {
		return nil, fmt.Errorf("%w: modulus is not prime", ErrDomain)
	}
	field, err := ring.NewPField(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomain, err)
	}
	pm1 := new(big.Int).Sub(modulus, bigOne)
	coOrder, rem := new(big.Int).QuoRem(pm1, order, new(big.Int))
	if rem.Sign() != 0 {
		return nil, fmt.Errorf("%w: order does not divide modulus-1", ErrDomain)
	}
	if generator.Cmp(bigTwo) < 0 || generator.Cmp(modulus) >= 0 {
		return nil, fmt.Errorf("%w: generator is not canonical in [2, modulus)", ErrDomain)
	}

	g := &ModGroup{
		modulus:    new(big.Int).Set(modulus),
		order:      new(big.Int).Set(order),
		coOrder:    coOrder,
		generator:  new(big.Int).Set(generator),
		encoding:   encoding,
		field:      field,
		modByteLen: (modulus.BitLen() + 7) / 8,
	}

	switch encoding {
	case EncodingSafePrime:
		if coOrder.Cmp(bigTwo) != 0 {
			return nil, fmt.Errorf("%w: safe-prime encoding requires modulus = 2*order+1", ErrDomain)
		}
		if big.Jacobi(generator, modulus) != 1 {
			return nil, fmt.Errorf("%w: generator is not a quadratic residue", ErrDomain)
		}
		// One sentinel byte below the message keeps the embedded value
		// nonzero without carry into the message bytes.
		g.padBytes = 1
		g.maxEncode = max(0, (order.BitLen()-2)/8-lengthPrefixBytes-g.padBytes)
	case EncodingSubgroup, EncodingRO:
		if !g.inSubgroup(generator) {
			return nil, fmt.Errorf("%w: generator order does not divide the group order", ErrDomain)
		}
		if encoding == EncodingSubgroup {
			gap := modulus.BitLen() - order.BitLen()
			if gap <= subgroupGapCap {
				// One extra padding byte beyond the gap coverage keeps
				// the expected attempt count below 2^gap.
				g.padBytes = (gap+7)/8 + 1
				g.maxEncode = max(0, (order.BitLen()-2)/8-lengthPrefixBytes-g.padBytes)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrDomain, encoding)
	}
	return g, nil
}

// MustModGroup is NewModGroup for trusted parameters.
func MustModGroup(modulus, order, generator *big.Int, encoding Encoding) *ModGroup {
	g, err := NewModGroup(modulus, order, generator, encoding, defaultCertainty)
	if err != nil {
		panic(err)
	}
	return g
}

// NewRandomModGroup generates a fresh safe-prime group of exactly bits bits
// with a random quadratic-residue generator and safe-prime encoding.
func NewRandomModGroup(bits int, certainty int, src random.Source) *ModGroup {
	p := prime.RandomSafePrime(bits, certainty, src)
	q := new(big.Int).Rsh(new(big.Int).Sub(p, bigOne), 1)
	for {
		h := src.IntRange(bigTwo, p, statDistDefault)
		gen := new(big.Int).Exp(h, bigTwo, p)
		if gen.Cmp(bigOne) == 0 {
			continue
		}
		g, err := NewModGroup(p, q, gen, EncodingSafePrime, certainty)
		if err != nil {
			// Parameters were constructed to satisfy every check.
			panic(err)
		}
		return g
	}
}

const statDistDefault = 80

func (g *ModGroup) Ring() ring.Ring    { return g.field }
func (g *ModGroup) Order() *big.Int    { return new(big.Int).Set(g.order) }
func (g *ModGroup) Modulus() *big.Int  { return new(big.Int).Set(g.modulus) }
func (g *ModGroup) Encoding() Encoding { return g.encoding }
func (g *ModGroup) MaxEncodeLen() int  { return g.maxEncode }
func (g *ModGroup) Width() int         { return 1 }
func (g *ModGroup) FlatWidth() int     { return 1 }

func (g *ModGroup) ElementByteLen() int { return bytetree.HeaderLen + g.modByteLen }

func (g *ModGroup) Identity() Element {
	return &ModElement{group: g, val: big.NewInt(1)}
}

func (g *ModGroup) Generator() Element {
	return &ModElement{group: g, val: new(big.Int).Set(g.generator)}
}

func (g *ModGroup) Random(src random.Source) Element {
	k := src.IntRange(new(big.Int), g.order, statDistDefault)
	return &ModElement{group: g, val: new(big.Int).Exp(g.generator, k, g.modulus)}
}

func (g *ModGroup) Equal(other Group) bool {
	o, ok := other.(*ModGroup)
	return ok &&
		g.modulus.Cmp(o.modulus) == 0 &&
		g.order.Cmp(o.order) == 0 &&
		g.generator.Cmp(o.generator) == 0 &&
		g.encoding == o.encoding
}

func (g *ModGroup) inSubgroup(v *big.Int) bool {
	if v.Sign() <= 0 || v.Cmp(g.modulus) >= 0 {
		return false
	}
	if g.encoding == EncodingSafePrime {
		return big.Jacobi(v, g.modulus) == 1
	}
	return new(big.Int).Exp(v, g.order, g.modulus).Cmp(bigOne) == 0
}

func (g *ModGroup) Contains(e Element) bool {
	me, ok := e.(*ModElement)
	return ok && g.Equal(me.group) && g.inSubgroup(me.val)
}

func (g *ModGroup) Encode(msg []byte) (Element, error) {
	switch g.encoding {
	case EncodingRO:
		return g.encodeRO(msg)
	case EncodingSafePrime:
		return g.encodeSafePrime(msg)
	default:
		return g.encodeSubgroup(msg)
	}
}

// encodeRO maps a message of at most one byte to a subgroup element by
// hashing repeated squarings of the generator. The result is not decodable.
func (g *ModGroup) encodeRO(msg []byte) (Element, error) {
	if len(msg) > 1 {
		return nil, fmt.Errorf("%w: random-oracle encoding takes at most 1 byte, got %d",
			ErrEncode, len(msg))
	}
	h := new(big.Int).Set(g.generator)
	buf := make([]byte, g.modByteLen)
	for i := 0; i < roMaxAttempts; i++ {
		h.Mul(h, h).Mod(h, g.modulus)
		h.FillBytes(buf)
		d := sha3.Sum256(append(buf[:len(buf):len(buf)], msg...))
		v := new(big.Int).SetBytes(d[:])
		v.Mod(v, g.modulus)
		if g.inSubgroup(v) {
			return &ModElement{group: g, val: v}, nil
		}
	}
	return nil, fmt.Errorf("%w: random-oracle attempts exhausted", ErrEncode)
}

// encodeSafePrime embeds [length ‖ msg ‖ sentinel] as the quadratic residue
// among the pair {v, modulus-v}.
func (g *ModGroup) encodeSafePrime(msg []byte) (Element, error) {
	if len(msg) > g.maxEncode {
		return nil, fmt.Errorf("%w: message of %d bytes exceeds limit %d",
			ErrEncode, len(msg), g.maxEncode)
	}
	buf := make([]byte, lengthPrefixBytes+g.maxEncode+g.padBytes)
	binary.BigEndian.PutUint32(buf, uint32(len(msg)))
	copy(buf[lengthPrefixBytes:], msg)
	buf[len(buf)-1] = 1

	v := new(big.Int).SetBytes(buf)
	if big.Jacobi(v, g.modulus) != 1 {
		v.Sub(g.modulus, v)
	}
	return &ModElement{group: g, val: v}, nil
}

// encodeSubgroup appends padding bytes to [length ‖ msg] and increments them
// until the candidate lands in the subgroup.
func (g *ModGroup) encodeSubgroup(msg []byte) (Element, error) {
	if len(msg) > g.maxEncode {
		return nil, fmt.Errorf("%w: message of %d bytes exceeds limit %d",
			ErrEncode, len(msg), g.maxEncode)
	}
	if g.padBytes == 0 {
		return nil, fmt.Errorf("%w: subgroup gap too large for embedding", ErrEncode)
	}
	buf := make([]byte, lengthPrefixBytes+g.maxEncode+g.padBytes)
	binary.BigEndian.PutUint32(buf, uint32(len(msg)))
	copy(buf[lengthPrefixBytes:], msg)

	pad := buf[len(buf)-g.padBytes:]
	attempts := 1 << (8 * g.padBytes)
	for i := 0; i < attempts; i++ {
		for j := len(pad) - 1; j >= 0; j-- {
			pad[j]++
			if pad[j] != 0 {
				break
			}
		}
		v := new(big.Int).SetBytes(buf)
		if g.inSubgroup(v) {
			return &ModElement{group: g, val: v}, nil
		}
	}
	return nil, fmt.Errorf("%w: padding attempts exhausted", ErrEncode)
}

func (g *ModGroup) Decode(e Element) ([]byte, error) {
	me, ok := e.(*ModElement)
	if !ok || !g.Equal(me.group) {
		return nil, fmt.Errorf("%w: element from a different group", ErrDomain)
	}
	switch g.encoding {
	case EncodingRO:
		return nil, nil
	case EncodingSafePrime:
		w := new(big.Int).Set(me.val)
		if neg := new(big.Int).Sub(g.modulus, w); neg.Cmp(w) < 0 {
			w = neg
		}
		return decodePrefixed(w, g.maxEncode, g.padBytes)
	default:
		return decodePrefixed(me.val, g.maxEncode, g.padBytes)
	}
}

// decodePrefixed recovers a length-prefixed message from the canonical byte
// layout [4-byte length ‖ message ‖ zero padding ‖ padBytes].
func decodePrefixed(v *big.Int, maxEncode, padBytes int) ([]byte, error) {
	buf := make([]byte, lengthPrefixBytes+maxEncode+padBytes)
	if v.BitLen() > 8*len(buf) {
		return nil, fmt.Errorf("%w: value too large for message layout", ErrDomain)
	}
	v.FillBytes(buf)
	n := binary.BigEndian.Uint32(buf)
	if n > uint32(maxEncode) {
		return nil, fmt.Errorf("%w: embedded length %d exceeds limit %d",
			ErrDomain, n, maxEncode)
	}
	msg := make([]byte, n)
	copy(msg, buf[lengthPrefixBytes:])
	return msg, nil
}

func (g *ModGroup) FromByteTree(bt *bytetree.ByteTree) (Element, error) {
	v, err := bt.LeafInt(g.modByteLen)
	if err != nil {
		return nil, err
	}
	if !g.inSubgroup(v) {
		return nil, fmt.Errorf("%w: value is not a subgroup member", ErrDomain)
	}
	return &ModElement{group: g, val: v}, nil
}

// ToByteTree serializes the group parameters themselves, so a group can be
// transmitted and revalidated on the far side.
func (g *ModGroup) ToByteTree() *bytetree.ByteTree {
	return bytetree.Node(
		bytetree.IntLeaf(g.modulus, g.modByteLen),
		bytetree.IntLeaf(g.order, g.modByteLen),
		bytetree.IntLeaf(g.generator, g.modByteLen),
		bytetree.Leaf([]byte{byte(g.encoding)}),
	)
}

// ModGroupFromByteTree parses serialized parameters and revalidates them as
// untrusted input.
func ModGroupFromByteTree(bt *bytetree.ByteTree, certainty int) (*ModGroup, error) {
	children, err := bt.NodeOfLen(4)
	if err != nil {
		return nil, err
	}
	modData, err := children[0].LeafData()
	if err != nil {
		return nil, err
	}
	byteLen := len(modData)
	modulus := new(big.Int).SetBytes(modData)
	order, err := children[1].LeafInt(byteLen)
	if err != nil {
		return nil, err
	}
	generator, err := children[2].LeafInt(byteLen)
	if err != nil {
		return nil, err
	}
	encByte, err := children[3].LeafOfLen(1)
	if err != nil {
		return nil, err
	}
	return NewModGroup(modulus, order, generator, Encoding(encByte[0]), certainty)
}

func (e *ModElement) Group() Group { return e.group }

// Value returns a copy of the canonical representative.
func (e *ModElement) Value() *big.Int { return new(big.Int).Set(e.val) }

func (e *ModElement) check(b Element) *ModElement {
	eb, ok := b.(*ModElement)
	if !ok {
		panic("group: incompatible element type")
	}
	if !e.group.Equal(eb.group) {
		panic("group: mismatched groups")
	}
	return eb
}

func (e *ModElement) Mul(b Element) Element {
	eb := e.check(b)
	v := new(big.Int).Mul(e.val, eb.val)
	v.Mod(v, e.group.modulus)
	return &ModElement{group: e.group, val: v}
}

func (e *ModElement) Inv() Element {
	v := new(big.Int).ModInverse(e.val, e.group.modulus)
	if v == nil {
		// Subgroup members are units by construction.
		panic("group: non-invertible subgroup member")
	}
	return &ModElement{group: e.group, val: v}
}

func (e *ModElement) Exp(x ring.Element) Element {
	return e.ExpInt(expValue(e.group.field, x))
}

func (e *ModElement) ExpInt(k *big.Int) Element {
	r := new(big.Int).Mod(k, e.group.order)
	return &ModElement{group: e.group, val: new(big.Int).Exp(e.val, r, e.group.modulus)}
}

func (e *ModElement) Equal(b Element) bool {
	eb := e.check(b)
	return e.val.Cmp(eb.val) == 0
}

func (e *ModElement) Cmp(b Element) int {
	eb := e.check(b)
	return e.val.Cmp(eb.val)
}

func (e *ModElement) ToByteTree() *bytetree.ByteTree {
	return bytetree.IntLeaf(e.val, e.group.modByteLen)
}
