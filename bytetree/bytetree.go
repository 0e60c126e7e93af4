// Package bytetree implements the length-prefixed recursive container used
// to serialize group and ring values. A tree is either a leaf holding raw
// bytes or a node holding an ordered list of child trees.
package bytetree

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// ErrFormat reports malformed serialized input. Callers should treat it as
// untrusted-input rejection, not as an engine failure.
var ErrFormat = errors.New("bytetree: malformed data")

const (
	tagNode byte = 0x00
	tagLeaf byte = 0x01
)

// HeaderLen is the serialized size of a leaf or node header: one tag byte
// and a 4-byte big-endian length or child count.
const HeaderLen = 5

// ByteTree is an immutable leaf-or-node container.
type ByteTree struct {
	data     []byte
	children []*ByteTree
	leaf     bool
}

// Leaf wraps raw bytes as a leaf. The input is copied.
func Leaf(data []byte) *ByteTree {
	d := make([]byte, len(data))
	copy(d, data)
	return &ByteTree{data: d, leaf: true}
}

// Node builds a node over the given children, in order.
func Node(children ...*ByteTree) *ByteTree {
	c := make([]*ByteTree, len(children))
	copy(c, children)
	return &ByteTree{children: c}
}

// IsLeaf reports whether the tree is a leaf.
func (bt *ByteTree) IsLeaf() bool {
	return bt.leaf
}

// Len returns the payload length of a leaf or the child count of a node.
func (bt *ByteTree) Len() int {
	if bt.leaf {
		return len(bt.data)
	}
	return len(bt.children)
}

// LeafData returns the payload of a leaf.
func (bt *ByteTree) LeafData() ([]byte, error) {
	if !bt.leaf {
		return nil, fmt.Errorf("%w: expected leaf, got node of %d children",
			ErrFormat, len(bt.children))
	}
	d := make([]byte, len(bt.data))
	copy(d, bt.data)
	return d, nil
}

// LeafOfLen returns the payload of a leaf after checking its exact length.
func (bt *ByteTree) LeafOfLen(n int) ([]byte, error) {
	d, err := bt.LeafData()
	if err != nil {
		return nil, err
	}
	if len(d) != n {
		return nil, fmt.Errorf("%w: expected leaf of %d bytes, got %d",
			ErrFormat, n, len(d))
	}
	return d, nil
}

// Child returns the i-th child of a node.
func (bt *ByteTree) Child(i int) (*ByteTree, error) {
	if bt.leaf {
		return nil, fmt.Errorf("%w: expected node, got leaf", ErrFormat)
	}
	if i < 0 || i >= len(bt.children) {
		return nil, fmt.Errorf("%w: child index %d out of %d", ErrFormat,
			i, len(bt.children))
	}
	return bt.children[i], nil
}

// Children returns the ordered children of a node.
func (bt *ByteTree) Children() ([]*ByteTree, error) {
	if bt.leaf {
		return nil, fmt.Errorf("%w: expected node, got leaf", ErrFormat)
	}
	c := make([]*ByteTree, len(bt.children))
	copy(c, bt.children)
	return c, nil
}

// NodeOfLen returns the children of a node after checking the exact count.
func (bt *ByteTree) NodeOfLen(n int) ([]*ByteTree, error) {
	c, err := bt.Children()
	if err != nil {
		return nil, err
	}
	if len(c) != n {
		return nil, fmt.Errorf("%w: expected node of %d children, got %d",
			ErrFormat, n, len(c))
	}
	return c, nil
}

// Bytes returns the canonical serialization: a tag byte (0x01 leaf, 0x00
// node), a 4-byte big-endian length or child count, then the payload or the
// serialized children in order.
func (bt *ByteTree) Bytes() []byte {
	var out []byte
	return bt.appendTo(out)
}

func (bt *ByteTree) appendTo(out []byte) []byte {
	var hdr [5]byte
	if bt.leaf {
		hdr[0] = tagLeaf
		binary.BigEndian.PutUint32(hdr[1:], uint32(len(bt.data)))
		out = append(out, hdr[:]...)
		return append(out, bt.data...)
	}
	hdr[0] = tagNode
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(bt.children)))
	out = append(out, hdr[:]...)
	for _, c := range bt.children {
		out = c.appendTo(out)
	}
	return out
}

// Parse reads a tree from its canonical serialization. Trailing bytes are a
// format error.
func Parse(data []byte) (*ByteTree, error) {
	bt, rest, err := parse(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(rest))
	}
	return bt, nil
}

func parse(data []byte) (*ByteTree, []byte, error) {
	if len(data) < 5 {
		return nil, nil, fmt.Errorf("%w: truncated header (%d bytes)",
			ErrFormat, len(data))
	}
	tag := data[0]
	n := binary.BigEndian.Uint32(data[1:5])
	rest := data[5:]

	switch tag {
	case tagLeaf:
		if uint32(len(rest)) < n {
			return nil, nil, fmt.Errorf("%w: leaf of %d bytes, %d available",
				ErrFormat, n, len(rest))
		}
		return Leaf(rest[:n]), rest[n:], nil
	case tagNode:
		// Each child occupies at least a header, which bounds any honest
		// count; checking first keeps a forged count from sizing the slice.
		if uint64(n) > uint64(len(rest)/HeaderLen) {
			return nil, nil, fmt.Errorf("%w: node of %d children, %d bytes available",
				ErrFormat, n, len(rest))
		}
		children := make([]*ByteTree, 0, n)
		for i := uint32(0); i < n; i++ {
			var (
				c   *ByteTree
				err error
			)
			c, rest, err = parse(rest)
			if err != nil {
				return nil, nil, fmt.Errorf("child %d: %w", i, err)
			}
			children = append(children, c)
		}
		return Node(children...), rest, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrFormat, tag)
	}
}

// IntLeaf encodes a non-negative integer as a leaf of the given byte length,
// big-endian with leading zeroes.
func IntLeaf(v *big.Int, byteLen int) *ByteTree {
	if v.Sign() < 0 {
		panic("bytetree: negative integer leaf")
	}
	buf := make([]byte, byteLen)
	v.FillBytes(buf)
	return Leaf(buf)
}

// LeafInt decodes a leaf of the given exact byte length as a non-negative
// big-endian integer.
func (bt *ByteTree) LeafInt(byteLen int) (*big.Int, error) {
	d, err := bt.LeafOfLen(byteLen)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(d), nil
}

// IntsLeaf encodes a slice of non-negative integers as a single leaf of
// fixed-size big-endian records.
func IntsLeaf(vs []*big.Int, byteLen int) *ByteTree {
	buf := make([]byte, len(vs)*byteLen)
	for i, v := range vs {
		if v.Sign() < 0 {
			panic("bytetree: negative integer leaf")
		}
		v.FillBytes(buf[i*byteLen : (i+1)*byteLen])
	}
	return Leaf(buf)
}

// LeafInts decodes a leaf of fixed-size big-endian records.
func (bt *ByteTree) LeafInts(byteLen int) ([]*big.Int, error) {
	d, err := bt.LeafData()
	if err != nil {
		return nil, err
	}
	if byteLen <= 0 || len(d)%byteLen != 0 {
		return nil, fmt.Errorf("%w: leaf of %d bytes is not a multiple of record size %d",
			ErrFormat, len(d), byteLen)
	}
	vs := make([]*big.Int, len(d)/byteLen)
	for i := range vs {
		vs[i] = new(big.Int).SetBytes(d[i*byteLen : (i+1)*byteLen])
	}
	return vs, nil
}
