package group

import (
	"fmt"

	"github.com/verimix/algebra/ring"
)

// ExpProd is the bilinear map (exponent tuple, base tuple) -> prod_i
// bases[i]^exps[i] over a fixed base group and width. It is shared,
// immutable state for the protocol layers that batch-verify exponentiated
// products.
type ExpProd struct {
	group   Group
	width   int
	bases   *ProductGroup
	expRing *ring.ProductRing
}

// NewExpProd fixes the base group and width of the map.
func NewExpProd(g Group, width int) *ExpProd {
	if width < 1 {
		panic("group: ExpProd width must be positive")
	}
	return &ExpProd{
		group:   g,
		width:   width,
		bases:   Power(g, width),
		expRing: ring.Power(g.Ring(), width),
	}
}

// Width returns the fixed width of the map.
func (ep *ExpProd) Width() int { return ep.width }

// Map computes prod_i bases[i]^exps[i]. Both operands must be product
// values of exactly the configured width over the configured group and its
// ring; anything else is a domain error.
func (ep *ExpProd) Map(exps ring.Element, bases Element) (Element, error) {
	pe, ok := exps.(*ring.ProductElement)
	if !ok || !pe.Ring().Equal(ep.expRing) {
		return nil, fmt.Errorf("%w: exponents are not a width-%d tuple over the group ring",
			ErrDomain, ep.width)
	}
	pb, ok := bases.(*ProductElement)
	if !ok || !pb.Group().Equal(ep.bases) {
		return nil, fmt.Errorf("%w: bases are not a width-%d tuple over the group",
			ErrDomain, ep.width)
	}
	acc := ep.group.Identity()
	for i := 0; i < ep.width; i++ {
		acc = acc.Mul(pb.Project(i).Exp(pe.Project(i)))
	}
	return acc, nil
}
