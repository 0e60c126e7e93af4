package group

import "math/big"

// softwareOps is the portable affine implementation, available for every
// curve.
type softwareOps struct{}

func selectCurveOps(g *CurveGroup) curveOps {
	if p256Params.matches(g) {
		return circlP256Ops{}
	}
	return softwareOps{}
}

// scalarMul is a binary ladder from the highest exponent bit down: one
// doubling per bit and an addition where the bit is set.
func (softwareOps) scalarMul(g *CurveGroup, x, y, k *big.Int) (*big.Int, *big.Int) {
	rx, ry := infCoord, infCoord
	for i := k.BitLen() - 1; i >= 0; i-- {
		rx, ry = g.double(rx, ry)
		if k.Bit(i) == 1 {
			rx, ry = g.add(rx, ry, x, y)
		}
	}
	return rx, ry
}

func (softwareOps) fixedBase(g *CurveGroup, x, y *big.Int) fixedBaseImpl {
	bits := g.order.BitLen()
	t := &softwareFixedBase{
		group: g,
		xs:    make([]*big.Int, bits),
		ys:    make([]*big.Int, bits),
	}
	// Table entry i holds base * 2^i, so a query costs only additions.
	cx, cy := x, y
	for i := 0; i < bits; i++ {
		t.xs[i], t.ys[i] = cx, cy
		cx, cy = g.double(cx, cy)
	}
	return t
}

type softwareFixedBase struct {
	group  *CurveGroup
	xs, ys []*big.Int
}

func (t *softwareFixedBase) exp(k *big.Int) (*big.Int, *big.Int) {
	rx, ry := infCoord, infCoord
	for i := 0; i < k.BitLen() && i < len(t.xs); i++ {
		if k.Bit(i) == 1 {
			rx, ry = t.group.add(rx, ry, t.xs[i], t.ys[i])
		}
	}
	return rx, ry
}

func (t *softwareFixedBase) free() {
	t.xs, t.ys = nil, nil
}
