package group

import (
	"fmt"
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/prime"
	"github.com/verimix/algebra/random"
	"github.com/verimix/algebra/ring"
)

// Reserved low bytes of the x-coordinate in curve message embedding: one
// length byte and one counter byte incremented until x lands on the curve.
const (
	curveLenBytes     = 1
	curveCounterBytes = 1
	curveMaxAttempts  = 256
)

// CurveGroup is a prime-order group of points on a short Weierstrass curve
// y^2 = x^3 + ax + b over a prime field. The point at infinity is
// represented by the sentinel coordinates (-1, -1).
type CurveGroup struct {
	name  string
	p     *big.Int // field prime
	a, b  *big.Int
	gx    *big.Int
	gy    *big.Int
	order *big.Int

	field        *ring.PField
	ops          curveOps
	fieldByteLen int
	maxEncode    int
}

// CurvePoint is an affine point or the infinity sentinel.
type CurvePoint struct {
	group *CurveGroup
	x, y  *big.Int
}

// curveOps is the arithmetic strategy behind a CurveGroup. The portable
// implementation is always available; fixed named curves may dispatch to an
// accelerated backend instead.
type curveOps interface {
	scalarMul(g *CurveGroup, x, y, k *big.Int) (*big.Int, *big.Int)
	fixedBase(g *CurveGroup, x, y *big.Int) fixedBaseImpl
}

// fixedBaseImpl answers many scalar multiplications against one precomputed
// base. Free releases the table; accelerated backends may hold resources
// that are not reclaimed otherwise.
type fixedBaseImpl interface {
	exp(k *big.Int) (*big.Int, *big.Int)
	free()
}

var infCoord = big.NewInt(-1)

// NewCurveGroup validates the curve parameters and builds the group. The
// standard P-256 parameters select the accelerated backend.
func NewCurveGroup(name string, p, a, b, gx, gy, order *big.Int, certainty int) (*CurveGroup, error) {
	if !prime.IsProbablePrime(p, certainty) {
		return nil, fmt.Errorf("%w: field prime is not prime", ErrDomain)
	}
	field, err := ring.NewPField(order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomain, err)
	}
	for _, v := range []*big.Int{a, b, gx, gy} {
		if v.Sign() < 0 || v.Cmp(p) >= 0 {
			return nil, fmt.Errorf("%w: curve parameter is not canonical in [0, p)", ErrDomain)
		}
	}
	g := &CurveGroup{
		name:         name,
		p:            new(big.Int).Set(p),
		a:            new(big.Int).Set(a),
		b:            new(big.Int).Set(b),
		gx:           new(big.Int).Set(gx),
		gy:           new(big.Int).Set(gy),
		order:        new(big.Int).Set(order),
		field:        field,
		fieldByteLen: (p.BitLen() + 7) / 8,
	}
	g.maxEncode = max(0, g.fieldByteLen-curveLenBytes-curveCounterBytes-1)
	if !g.onCurve(gx, gy) {
		return nil, fmt.Errorf("%w: generator is not on the curve", ErrDomain)
	}
	g.ops = selectCurveOps(g)
	return g, nil
}

// MustCurveGroup is NewCurveGroup for trusted parameters.
func MustCurveGroup(name string, p, a, b, gx, gy, order *big.Int) *CurveGroup {
	g, err := NewCurveGroup(name, p, a, b, gx, gy, order, defaultCertainty)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *CurveGroup) Name() string       { return g.name }
func (g *CurveGroup) Ring() ring.Ring    { return g.field }
func (g *CurveGroup) Order() *big.Int    { return new(big.Int).Set(g.order) }
func (g *CurveGroup) FieldPrime() *big.Int { return new(big.Int).Set(g.p) }
func (g *CurveGroup) MaxEncodeLen() int  { return g.maxEncode }
func (g *CurveGroup) Width() int         { return 1 }
func (g *CurveGroup) FlatWidth() int     { return 1 }

// pointLen is the raw point encoding: a sign byte followed by the
// x-coordinate.
func (g *CurveGroup) pointLen() int { return 1 + g.fieldByteLen }

func (g *CurveGroup) ElementByteLen() int { return bytetree.HeaderLen + g.pointLen() }

func (g *CurveGroup) Identity() Element {
	return &CurvePoint{group: g, x: infCoord, y: infCoord}
}

func (g *CurveGroup) Generator() Element {
	return g.point(new(big.Int).Set(g.gx), new(big.Int).Set(g.gy))
}

func (g *CurveGroup) Random(src random.Source) Element {
	k := src.IntRange(new(big.Int), g.order, statDistDefault)
	return g.Generator().ExpInt(k)
}

func (g *CurveGroup) Equal(other Group) bool {
	o, ok := other.(*CurveGroup)
	return ok &&
		g.p.Cmp(o.p) == 0 &&
		g.a.Cmp(o.a) == 0 &&
		g.b.Cmp(o.b) == 0 &&
		g.gx.Cmp(o.gx) == 0 &&
		g.gy.Cmp(o.gy) == 0 &&
		g.order.Cmp(o.order) == 0
}

func (g *CurveGroup) Contains(e Element) bool {
	cp, ok := e.(*CurvePoint)
	if !ok || !g.Equal(cp.group) {
		return false
	}
	return isInf(cp.x) || g.onCurve(cp.x, cp.y)
}

func isInf(x *big.Int) bool { return x.Sign() < 0 }

func (g *CurveGroup) onCurve(x, y *big.Int) bool {
	if x.Sign() < 0 || x.Cmp(g.p) >= 0 || y.Sign() < 0 || y.Cmp(g.p) >= 0 {
		return false
	}
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, g.p)
	return lhs.Cmp(g.rhs(x)) == 0
}

// rhs evaluates x^3 + ax + b mod p.
func (g *CurveGroup) rhs(x *big.Int) *big.Int {
	r := new(big.Int).Mul(x, x)
	r.Mod(r, g.p)
	r.Mul(r, x)
	r.Add(r, new(big.Int).Mul(g.a, x))
	r.Add(r, g.b)
	return r.Mod(r, g.p)
}

// point wraps freshly computed coordinates, enforcing the curve-membership
// invariant. A violation is an engine bug, not an input error.
func (g *CurveGroup) point(x, y *big.Int) *CurvePoint {
	if !isInf(x) && !g.onCurve(x, y) {
		panic("group: computed point is off the curve")
	}
	return &CurvePoint{group: g, x: x, y: y}
}

// add implements the chord rule with the identity and inverse
// short-circuits of the affine representation.
func (g *CurveGroup) add(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int) {
	if isInf(x1) {
		return x2, y2
	}
	if isInf(x2) {
		return x1, y1
	}
	if x1.Cmp(x2) == 0 {
		ysum := new(big.Int).Add(y1, y2)
		if ysum.Cmp(g.p) == 0 || (y1.Sign() == 0 && y2.Sign() == 0) {
			return infCoord, infCoord
		}
		return g.double(x1, y1)
	}
	// s = (y2 - y1) / (x2 - x1)
	den := new(big.Int).Sub(x2, x1)
	den.Mod(den, g.p)
	den.ModInverse(den, g.p)
	s := new(big.Int).Sub(y2, y1)
	s.Mul(s, den)
	s.Mod(s, g.p)

	x3 := new(big.Int).Mul(s, s)
	x3.Sub(x3, x1)
	x3.Sub(x3, x2)
	x3.Mod(x3, g.p)

	y3 := new(big.Int).Sub(x1, x3)
	y3.Mul(y3, s)
	y3.Sub(y3, y1)
	y3.Mod(y3, g.p)
	return x3, y3
}

// double implements the tangent rule. Doubling a 2-torsion point (y = 0)
// yields infinity.
func (g *CurveGroup) double(x, y *big.Int) (*big.Int, *big.Int) {
	if isInf(x) || y.Sign() == 0 {
		return infCoord, infCoord
	}
	// s = (3x^2 + a) / 2y
	den := new(big.Int).Lsh(y, 1)
	den.Mod(den, g.p)
	den.ModInverse(den, g.p)
	s := new(big.Int).Mul(x, x)
	s.Mul(s, big.NewInt(3))
	s.Add(s, g.a)
	s.Mul(s, den)
	s.Mod(s, g.p)

	x3 := new(big.Int).Mul(s, s)
	x3.Sub(x3, new(big.Int).Lsh(x, 1))
	x3.Mod(x3, g.p)

	y3 := new(big.Int).Sub(x, x3)
	y3.Mul(y3, s)
	y3.Sub(y3, y)
	y3.Mod(y3, g.p)
	return x3, y3
}

func (g *CurveGroup) neg(x, y *big.Int) (*big.Int, *big.Int) {
	if isInf(x) || y.Sign() == 0 {
		return x, y
	}
	return x, new(big.Int).Sub(g.p, y)
}

// Encode embeds msg into the low bytes of an x-coordinate: the final byte
// holds the message length, the byte above the message area counts
// candidate x values until one lies on the curve.
func (g *CurveGroup) Encode(msg []byte) (Element, error) {
	if len(msg) > g.maxEncode {
		return nil, fmt.Errorf("%w: message of %d bytes exceeds limit %d",
			ErrEncode, len(msg), g.maxEncode)
	}
	if g.fieldByteLen < curveLenBytes+curveCounterBytes {
		return nil, fmt.Errorf("%w: field too small for embedding", ErrEncode)
	}
	buf := make([]byte, g.fieldByteLen)
	buf[len(buf)-1] = byte(len(msg))
	copy(buf[len(buf)-1-len(msg):len(buf)-1], msg)
	counterIdx := len(buf) - 2 - g.maxEncode

	for i := 0; i < curveMaxAttempts; i++ {
		buf[counterIdx] = byte(i)
		x := new(big.Int).SetBytes(buf)
		if x.Cmp(g.p) >= 0 {
			break
		}
		y := new(big.Int).ModSqrt(g.rhs(x), g.p)
		if y != nil {
			return g.point(x, y), nil
		}
	}
	return nil, fmt.Errorf("%w: no curve point found in %d attempts", ErrEncode, curveMaxAttempts)
}

func (g *CurveGroup) Decode(e Element) ([]byte, error) {
	cp, ok := e.(*CurvePoint)
	if !ok || !g.Equal(cp.group) {
		return nil, fmt.Errorf("%w: element from a different group", ErrDomain)
	}
	if isInf(cp.x) {
		return nil, fmt.Errorf("%w: the identity carries no message", ErrDomain)
	}
	buf := make([]byte, g.fieldByteLen)
	cp.x.FillBytes(buf)
	n := int(buf[len(buf)-1])
	if n > g.maxEncode {
		return nil, fmt.Errorf("%w: embedded length %d exceeds limit %d", ErrDomain, n, g.maxEncode)
	}
	msg := make([]byte, n)
	copy(msg, buf[len(buf)-1-n:len(buf)-1])
	return msg, nil
}

// Points serialize as a sign byte and the x-coordinate; the sign byte
// records whether y is the larger of the two roots. Infinity is the
// all-ones leaf.
func (e *CurvePoint) ToByteTree() *bytetree.ByteTree {
	g := e.group
	buf := make([]byte, g.pointLen())
	if isInf(e.x) {
		for i := range buf {
			buf[i] = 0xff
		}
		return bytetree.Leaf(buf)
	}
	if neg := new(big.Int).Sub(g.p, e.y); e.y.Cmp(neg) > 0 {
		buf[0] = 1
	}
	e.x.FillBytes(buf[1:])
	return bytetree.Leaf(buf)
}

func (g *CurveGroup) FromByteTree(bt *bytetree.ByteTree) (Element, error) {
	buf, err := bt.LeafOfLen(g.pointLen())
	if err != nil {
		return nil, err
	}
	allOnes := true
	for _, c := range buf {
		if c != 0xff {
			allOnes = false
			break
		}
	}
	if allOnes {
		return g.Identity(), nil
	}
	if buf[0] > 1 {
		return nil, fmt.Errorf("%w: invalid sign byte 0x%02x", ErrDomain, buf[0])
	}
	x := new(big.Int).SetBytes(buf[1:])
	if x.Cmp(g.p) >= 0 {
		return nil, fmt.Errorf("%w: x-coordinate exceeds the field prime", ErrDomain)
	}
	y := new(big.Int).ModSqrt(g.rhs(x), g.p)
	if y == nil {
		return nil, fmt.Errorf("%w: x-coordinate is not on the curve", ErrDomain)
	}
	if y.Sign() == 0 {
		// A zero root marks a two-torsion point, which cannot belong to a
		// group of odd prime order.
		return nil, fmt.Errorf("%w: x-coordinate maps outside the group", ErrDomain)
	}
	neg := new(big.Int).Sub(g.p, y)
	larger, smaller := y, neg
	if larger.Cmp(smaller) < 0 {
		larger, smaller = smaller, larger
	}
	if buf[0] == 1 {
		return g.point(x, larger), nil
	}
	return g.point(x, smaller), nil
}

func (e *CurvePoint) Group() Group { return e.group }

// Coordinates returns copies of the affine coordinates, (-1, -1) for the
// identity.
func (e *CurvePoint) Coordinates() (*big.Int, *big.Int) {
	return new(big.Int).Set(e.x), new(big.Int).Set(e.y)
}

func (e *CurvePoint) check(b Element) *CurvePoint {
	eb, ok := b.(*CurvePoint)
	if !ok {
		panic("group: incompatible element type")
	}
	if !e.group.Equal(eb.group) {
		panic("group: mismatched groups")
	}
	return eb
}

func (e *CurvePoint) Mul(b Element) Element {
	eb := e.check(b)
	x, y := e.group.add(e.x, e.y, eb.x, eb.y)
	return e.group.point(x, y)
}

// Double returns the point added to itself via the tangent rule.
func (e *CurvePoint) Double() Element {
	x, y := e.group.double(e.x, e.y)
	return e.group.point(x, y)
}

func (e *CurvePoint) Inv() Element {
	x, y := e.group.neg(e.x, e.y)
	return e.group.point(x, y)
}

func (e *CurvePoint) Exp(x ring.Element) Element {
	return e.ExpInt(expValue(e.group.field, x))
}

func (e *CurvePoint) ExpInt(k *big.Int) Element {
	r := new(big.Int).Mod(k, e.group.order)
	x, y := e.group.ops.scalarMul(e.group, e.x, e.y, r)
	return e.group.point(x, y)
}

func (e *CurvePoint) Equal(b Element) bool {
	eb := e.check(b)
	if isInf(e.x) || isInf(eb.x) {
		return isInf(e.x) == isInf(eb.x)
	}
	return e.x.Cmp(eb.x) == 0 && e.y.Cmp(eb.y) == 0
}

// Cmp sorts the identity first, then by x and y.
func (e *CurvePoint) Cmp(b Element) int {
	eb := e.check(b)
	if d := e.x.Cmp(eb.x); d != 0 {
		return d
	}
	return e.y.Cmp(eb.y)
}

// FixedBaseTable precomputes a single base point once and answers many
// scalar multiplications against it. Free must be called when the table is
// no longer needed.
type FixedBaseTable struct {
	group *CurveGroup
	impl  fixedBaseImpl
}

// NewFixedBaseTable builds the table for a base of this group.
func (g *CurveGroup) NewFixedBaseTable(base Element) *FixedBaseTable {
	cp, ok := base.(*CurvePoint)
	if !ok || !g.Equal(cp.group) {
		panic("group: fixed base from mismatched group")
	}
	return &FixedBaseTable{group: g, impl: g.ops.fixedBase(g, cp.x, cp.y)}
}

// Exp returns base^k.
func (t *FixedBaseTable) Exp(k *big.Int) Element {
	if t.impl == nil {
		panic("group: fixed-base table used after Free")
	}
	r := new(big.Int).Mod(k, t.group.order)
	x, y := t.impl.exp(r)
	return t.group.point(x, y)
}

// Free releases the precomputed table.
func (t *FixedBaseTable) Free() {
	if t.impl != nil {
		t.impl.free()
		t.impl = nil
	}
}
