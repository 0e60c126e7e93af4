package group

import (
	"math/big"

	"github.com/cloudflare/circl/group"
)

// namedCurve holds the hex parameters of a standard curve.
type namedCurve struct {
	name                 string
	p, a, b, gx, gy, ord string
}

var p256Params = namedCurve{
	name: "P-256",
	p:    "ffffffff00000001000000000000000000000000ffffffffffffffffffffffff",
	a:    "ffffffff00000001000000000000000000000000fffffffffffffffffffffffc",
	b:    "5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b",
	gx:   "6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296",
	gy:   "4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5",
	ord:  "ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551",
}

func (nc namedCurve) group() *CurveGroup {
	return MustCurveGroup(nc.name,
		hexInt(nc.p), hexInt(nc.a), hexInt(nc.b),
		hexInt(nc.gx), hexInt(nc.gy), hexInt(nc.ord))
}

func (nc namedCurve) matches(g *CurveGroup) bool {
	return g.p.Cmp(hexInt(nc.p)) == 0 &&
		g.a.Cmp(hexInt(nc.a)) == 0 &&
		g.b.Cmp(hexInt(nc.b)) == 0 &&
		g.gx.Cmp(hexInt(nc.gx)) == 0 &&
		g.gy.Cmp(hexInt(nc.gy)) == 0 &&
		g.order.Cmp(hexInt(nc.ord)) == 0
}

func hexInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("group: invalid hex constant")
	}
	return v
}

// P256 returns the NIST P-256 group, backed by the accelerated
// implementation.
func P256() *CurveGroup { return p256Params.group() }

// circlP256Ops dispatches scalar multiplication to circl's formally
// optimized P-256 code.
type circlP256Ops struct{}

const p256CoordBytes = 32

// toCircl converts affine coordinates to a circl element through the
// uncompressed SEC1 encoding; the single zero byte is the identity.
func toCircl(x, y *big.Int) group.Element {
	e := group.P256.NewElement()
	if isInf(x) {
		if err := e.UnmarshalBinary([]byte{0}); err != nil {
			panic("group: circl identity decode: " + err.Error())
		}
		return e
	}
	buf := make([]byte, 1+2*p256CoordBytes)
	buf[0] = 4
	x.FillBytes(buf[1 : 1+p256CoordBytes])
	y.FillBytes(buf[1+p256CoordBytes:])
	if err := e.UnmarshalBinary(buf); err != nil {
		panic("group: circl point decode: " + err.Error())
	}
	return e
}

func fromCircl(e group.Element) (*big.Int, *big.Int) {
	if e.IsIdentity() {
		return infCoord, infCoord
	}
	buf, err := e.MarshalBinary()
	if err != nil || len(buf) != 1+2*p256CoordBytes {
		panic("group: circl point encode")
	}
	x := new(big.Int).SetBytes(buf[1 : 1+p256CoordBytes])
	y := new(big.Int).SetBytes(buf[1+p256CoordBytes:])
	return x, y
}

func (circlP256Ops) scalarMul(_ *CurveGroup, x, y, k *big.Int) (*big.Int, *big.Int) {
	s := group.P256.NewScalar().SetBigInt(k)
	r := group.P256.NewElement().Mul(toCircl(x, y), s)
	return fromCircl(r)
}

func (circlP256Ops) fixedBase(_ *CurveGroup, x, y *big.Int) fixedBaseImpl {
	return &circlFixedBase{base: toCircl(x, y)}
}

type circlFixedBase struct {
	base group.Element
}

func (t *circlFixedBase) exp(k *big.Int) (*big.Int, *big.Int) {
	s := group.P256.NewScalar().SetBigInt(k)
	return fromCircl(group.P256.NewElement().Mul(t.base, s))
}

func (t *circlFixedBase) free() {
	t.base = nil
}
