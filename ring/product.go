package ring

import (
	"fmt"
	"math/big"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
)

// ProductRing is a finite direct product of rings sharing one order. The
// components may themselves be product rings, so a product ring is a tree
// with atomic rings at the leaves.
type ProductRing struct {
	components []Ring
	flatWidth  int
}

// ProductElement is an ordered tuple of component elements.
type ProductElement struct {
	ring       *ProductRing
	components []Element
}

// Product composes the given rings. Components reporting different orders
// are a programmer error.
func Product(components ...Ring) *ProductRing {
	if len(components) == 0 {
		panic("ring: empty product")
	}
	order := components[0].Order()
	flat := 0
	for _, r := range components {
		if r.Order().Cmp(order) != 0 {
			panic("ring: mismatched component orders")
		}
		flat += r.FlatWidth()
	}
	c := make([]Ring, len(components))
	copy(c, components)
	return &ProductRing{components: c, flatWidth: flat}
}

// Power composes w copies of r.
func Power(r Ring, w int) *ProductRing {
	components := make([]Ring, w)
	for i := range components {
		components[i] = r
	}
	return Product(components...)
}

func (r *ProductRing) Order() *big.Int { return r.components[0].Order() }
func (r *ProductRing) Width() int      { return len(r.components) }
func (r *ProductRing) FlatWidth() int  { return r.flatWidth }

func (r *ProductRing) ElementByteLen() int {
	n := bytetree.HeaderLen
	for _, c := range r.components {
		n += c.ElementByteLen()
	}
	return n
}

// Component returns the i-th component ring.
func (r *ProductRing) Component(i int) Ring { return r.components[i] }

// ProjectMask returns the sub-product selecting the components where mask is
// true, collapsing to the atomic component when exactly one is selected.
func (r *ProductRing) ProjectMask(mask []bool) Ring {
	if len(mask) != len(r.components) {
		panic("ring: mask width mismatch")
	}
	var sel []Ring
	for i, keep := range mask {
		if keep {
			sel = append(sel, r.components[i])
		}
	}
	if len(sel) == 0 {
		panic("ring: empty projection")
	}
	if len(sel) == 1 {
		return sel[0]
	}
	return Product(sel...)
}

func (r *ProductRing) Zero() Element { return r.lift(Ring.Zero) }
func (r *ProductRing) One() Element  { return r.lift(Ring.One) }

func (r *ProductRing) lift(f func(Ring) Element) Element {
	components := make([]Element, len(r.components))
	for i, c := range r.components {
		components[i] = f(c)
	}
	return &ProductElement{ring: r, components: components}
}

// Element embeds v diagonally: every component holds v reduced modulo the
// shared order.
func (r *ProductRing) Element(v *big.Int) Element {
	return r.lift(func(c Ring) Element { return c.Element(v) })
}

func (r *ProductRing) Random(src random.Source) Element {
	return r.lift(func(c Ring) Element { return c.Random(src) })
}

// Tuple builds a product element from per-component elements. Width or ring
// mismatches are programmer errors.
func (r *ProductRing) Tuple(components ...Element) Element {
	if len(components) != len(r.components) {
		panic("ring: tuple width mismatch")
	}
	c := make([]Element, len(components))
	for i, e := range components {
		if !e.Ring().Equal(r.components[i]) {
			panic("ring: tuple component ring mismatch")
		}
		c[i] = e
	}
	return &ProductElement{ring: r, components: c}
}

func (r *ProductRing) FromByteTree(bt *bytetree.ByteTree) (Element, error) {
	children, err := bt.NodeOfLen(len(r.components))
	if err != nil {
		return nil, err
	}
	components := make([]Element, len(children))
	for i, child := range children {
		e, err := r.components[i].FromByteTree(child)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		components[i] = e
	}
	return &ProductElement{ring: r, components: components}, nil
}

func (r *ProductRing) Equal(other Ring) bool {
	o, ok := other.(*ProductRing)
	if !ok || len(o.components) != len(r.components) {
		return false
	}
	for i, c := range r.components {
		if !c.Equal(o.components[i]) {
			return false
		}
	}
	return true
}

func (e *ProductElement) Ring() Ring { return e.ring }

// Project returns the i-th component.
func (e *ProductElement) Project(i int) Element { return e.components[i] }

// ProjectMask mirrors ProductRing.ProjectMask on the element.
func (e *ProductElement) ProjectMask(mask []bool) Element {
	if len(mask) != len(e.components) {
		panic("ring: mask width mismatch")
	}
	var sel []Element
	for i, keep := range mask {
		if keep {
			sel = append(sel, e.components[i])
		}
	}
	if len(sel) == 0 {
		panic("ring: empty projection")
	}
	if len(sel) == 1 {
		return sel[0]
	}
	rings := make([]Ring, len(sel))
	for i, c := range sel {
		rings[i] = c.Ring()
	}
	return &ProductElement{ring: Product(rings...), components: sel}
}

// sameRing interprets b as an element of the same product ring, or returns
// nil to request component-wise recursion.
func (e *ProductElement) sameRing(b Element) *ProductElement {
	eb, ok := b.(*ProductElement)
	if ok && e.ring.Equal(eb.ring) {
		return eb
	}
	return nil
}

func (e *ProductElement) zip(b Element, f func(a, b Element) Element) Element {
	components := make([]Element, len(e.components))
	if eb := e.sameRing(b); eb != nil {
		for i, c := range e.components {
			components[i] = f(c, eb.components[i])
		}
	} else {
		for i, c := range e.components {
			components[i] = f(c, b)
		}
	}
	return &ProductElement{ring: e.ring, components: components}
}

func (e *ProductElement) Add(b Element) Element {
	return e.zip(b, func(a, b Element) Element { return a.Add(b) })
}

func (e *ProductElement) Sub(b Element) Element {
	return e.zip(b, func(a, b Element) Element { return a.Sub(b) })
}

func (e *ProductElement) Mul(b Element) Element {
	return e.zip(b, func(a, b Element) Element { return a.Mul(b) })
}

func (e *ProductElement) Neg() Element {
	components := make([]Element, len(e.components))
	for i, c := range e.components {
		components[i] = c.Neg()
	}
	return &ProductElement{ring: e.ring, components: components}
}

func (e *ProductElement) Exp(k *big.Int) Element {
	components := make([]Element, len(e.components))
	for i, c := range e.components {
		components[i] = c.Exp(k)
	}
	return &ProductElement{ring: e.ring, components: components}
}

func (e *ProductElement) Inv() (Element, error) {
	components := make([]Element, len(e.components))
	for i, c := range e.components {
		inv, err := c.Inv()
		if err != nil {
			return nil, err
		}
		components[i] = inv
	}
	return &ProductElement{ring: e.ring, components: components}, nil
}

func (e *ProductElement) Equal(b Element) bool {
	eb := e.sameRing(b)
	if eb == nil {
		panic("ring: mismatched rings")
	}
	for i, c := range e.components {
		if !c.Equal(eb.components[i]) {
			return false
		}
	}
	return true
}

func (e *ProductElement) Cmp(b Element) int {
	eb := e.sameRing(b)
	if eb == nil {
		panic("ring: mismatched rings")
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
