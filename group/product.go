package group

import (
	"fmt"
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
	"github.com/verimix/algebra/ring"
)

// ProductGroup is a finite direct product of groups sharing one prime
// order. Components may themselves be products, so a product group is a
// tree with atomic groups at the leaves. Its exponent ring is the matching
// product of the component rings.
type ProductGroup struct {
	components []Group
	expRing    *ring.ProductRing
	flatWidth  int
	byteLen    int
}

// ProductElement is an ordered tuple of component elements.
type ProductElement struct {
	group      *ProductGroup
	components []Element
}

// Product composes the given groups. Components reporting different orders
// are a programmer error.
func Product(components ...Group) *ProductGroup {
	if len(components) == 0 {
		panic("group: empty product")
	}
	order := components[0].Order()
	rings := make([]ring.Ring, len(components))
	flat := 0
	byteLen := bytetree.HeaderLen
	for i, g := range components {
		if g.Order().Cmp(order) != 0 {
			panic("group: mismatched component orders")
		}
		rings[i] = g.Ring()
		flat += g.FlatWidth()
		byteLen += g.ElementByteLen()
	}
	c := make([]Group, len(components))
	copy(c, components)
	return &ProductGroup{
		components: c,
		expRing:    ring.Product(rings...),
		flatWidth:  flat,
		byteLen:    byteLen,
	}
}

// Power composes w copies of g.
func Power(g Group, w int) *ProductGroup {
	components := make([]Group, w)
	for i := range components {
		components[i] = g
	}
	return Product(components...)
}

func (g *ProductGroup) Ring() ring.Ring    { return g.expRing }
func (g *ProductGroup) Order() *big.Int    { return g.components[0].Order() }
func (g *ProductGroup) ElementByteLen() int { return g.byteLen }
func (g *ProductGroup) Width() int         { return len(g.components) }
func (g *ProductGroup) FlatWidth() int     { return g.flatWidth }

// Component returns the i-th component group.
func (g *ProductGroup) Component(i int) Group { return g.components[i] }

// ProjectMask returns the sub-product selecting the components where mask
// is true, collapsing to the atomic component when exactly one is selected.
func (g *ProductGroup) ProjectMask(mask []bool) Group {
	if len(mask) != len(g.components) {
		panic("group: mask width mismatch")
	}
	var sel []Group
	for i, keep := range mask {
		if keep {
			sel = append(sel, g.components[i])
		}
	}
	if len(sel) == 0 {
		panic("group: empty projection")
	}
	if len(sel) == 1 {
		return sel[0]
	}
	return Product(sel...)
}

func (g *ProductGroup) lift(f func(Group) Element) Element {
	components := make([]Element, len(g.components))
	for i, c := range g.components {
		components[i] = f(c)
	}
	return &ProductElement{group: g, components: components}
}

func (g *ProductGroup) Identity() Element {
	return g.lift(Group.Identity)
}

func (g *ProductGroup) Generator() Element {
	return g.lift(Group.Generator)
}

func (g *ProductGroup) Random(src random.Source) Element {
	return g.lift(func(c Group) Element { return c.Random(src) })
}

// Tuple builds a product element from per-component elements. Width or
// group mismatches are programmer errors.
func (g *ProductGroup) Tuple(components ...Element) Element {
	if len(components) != len(g.components) {
		panic("group: tuple width mismatch")
	}
	c := make([]Element, len(components))
	for i, e := range components {
		if !e.Group().Equal(g.components[i]) {
			panic("group: tuple component group mismatch")
		}
		c[i] = e
	}
	return &ProductElement{group: g, components: c}
}

func (g *ProductGroup) Equal(other Group) bool {
	o, ok := other.(*ProductGroup)
	if !ok || len(o.components) != len(g.components) {
		return false
	}
	for i, c := range g.components {
		if !c.Equal(o.components[i]) {
			return false
		}
	}
	return true
}

func (g *ProductGroup) Contains(e Element) bool {
	pe, ok := e.(*ProductElement)
	if !ok || !g.Equal(pe.group) {
		return false
	}
	for i, c := range pe.components {
		if !g.components[i].Contains(c) {
			return false
		}
	}
	return true
}

// MaxEncodeLen is the sum of the component capacities: messages are split
// greedily across components.
func (g *ProductGroup) MaxEncodeLen() int {
	n := 0
	for _, c := range g.components {
		n += c.MaxEncodeLen()
	}
	return n
}

func (g *ProductGroup) Encode(msg []byte) (Element, error) {
	if len(msg) > g.MaxEncodeLen() {
		return nil, fmt.Errorf("%w: message of %d bytes exceeds limit %d",
			ErrEncode, len(msg), g.MaxEncodeLen())
	}
	components := make([]Element, len(g.components))
	rest := msg
	for i, c := range g.components {
		n := c.MaxEncodeLen()
		if n > len(rest) {
			n = len(rest)
		}
		e, err := c.Encode(rest[:n])
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		components[i] = e
		rest = rest[n:]
	}
	return &ProductElement{group: g, components: components}, nil
}

func (g *ProductGroup) Decode(e Element) ([]byte, error) {
	pe, ok := e.(*ProductElement)
	if !ok || !g.Equal(pe.group) {
		return nil, fmt.Errorf("%w: element from a different group", ErrDomain)
	}
	var msg []byte
	for i, c := range pe.components {
		part, err := g.components[i].Decode(c)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		msg = append(msg, part...)
	}
	return msg, nil
}

func (g *ProductGroup) FromByteTree(bt *bytetree.ByteTree) (Element, error) {
	children, err := bt.NodeOfLen(len(g.components))
	if err != nil {
		return nil, err
	}
	components := make([]Element, len(children))
	for i, child := range children {
		e, err := g.components[i].FromByteTree(child)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		components[i] = e
	}
	return &ProductElement{group: g, components: components}, nil
}

func (e *ProductElement) Group() Group { return e.group }

// Project returns the i-th component.
func (e *ProductElement) Project(i int) Element { return e.components[i] }

// ProjectMask mirrors ProductGroup.ProjectMask on the element.
func (e *ProductElement) ProjectMask(mask []bool) Element {
	if len(mask) != len(e.components) {
		panic("group: mask width mismatch")
	}
	var sel []Element
	for i, keep := range mask {
		if keep {
			sel = append(sel, e.components[i])
		}
	}
	if len(sel) == 0 {
		panic("group: empty projection")
	}
	if len(sel) == 1 {
		return sel[0]
	}
	groups := make([]Group, len(sel))
	for i, c := range sel {
		groups[i] = c.Group()
	}
	return &ProductElement{group: Product(groups...), components: sel}
}

// sameGroup interprets b as an element of the same product group, or
// returns nil to request component-wise recursion.
func (e *ProductElement) sameGroup(b Element) *ProductElement {
	eb, ok := b.(*ProductElement)
	if ok && e.group.Equal(eb.group) {
		return eb
	}
	return nil
}

func (e *ProductElement) Mul(b Element) Element {
	components := make([]Element, len(e.components))
	if eb := e.sameGroup(b); eb != nil {
		for i, c := range e.components {
			components[i] = c.Mul(eb.components[i])
		}
	} else {
		for i, c := range e.components {
			components[i] = c.Mul(b)
		}
	}
	return &ProductElement{group: e.group, components: components}
}

func (e *ProductElement) Inv() Element {
	components := make([]Element, len(e.components))
	for i, c := range e.components {
		components[i] = c.Inv()
	}
	return &ProductElement{group: e.group, components: components}
}

// Exp applies a matching product-ring exponent component-wise; any other
// exponent is pushed down to every component.
func (e *ProductElement) Exp(x ring.Element) Element {
	components := make([]Element, len(e.components))
	if px, ok := x.(*ring.ProductElement); ok && px.Ring().Equal(e.group.expRing) {
		for i, c := range e.components {
			components[i] = c.Exp(px.Project(i))
		}
	} else {
		for i, c := range e.components {
			components[i] = c.Exp(x)
		}
	}
	return &ProductElement{group: e.group, components: components}
}

func (e *ProductElement) ExpInt(k *big.Int) Element {
	components := make([]Element, len(e.components))
	for i, c := range e.components {
		components[i] = c.ExpInt(k)
	}
	return &ProductElement{group: e.group, components: components}
}

func (e *ProductElement) Equal(b Element) bool {
	eb := e.sameGroup(b)
	if eb == nil {
		panic("group: mismatched groups")
	}
	for i, c := range e.components {
		if !c.Equal(eb.components[i]) {
			return false
		}
	}
	return true
}

func (e *ProductElement) Cmp(b Element) int {
	eb := e.sameGroup(b)
	if eb == nil {
		panic("group: mismatched groups")
	}
	for i, c := range e.components {
		if d := c.Cmp(eb.components[i]); d != 0 {
			return d
		}
	}
	return 0
}

func (e *ProductElement) ToByteTree() *bytetree.ByteTree {
	children := make([]*bytetree.ByteTree, len(e.components))
	for i, c := range e.components {
		children[i] = c.ToByteTree()
	}
	return bytetree.Node(children...)
}
