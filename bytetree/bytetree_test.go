package bytetree

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	trees := []*ByteTree{
		Leaf(nil),
		Leaf([]byte{0xde, 0xad}),
		Node(),
		Node(Leaf([]byte{1}), Leaf([]byte{2, 3})),
		Node(Node(Leaf([]byte("abc"))), Leaf(nil), Node(Node(), Leaf([]byte{0}))),
	}
	for i, bt := range trees {
		enc := bt.Bytes()
		got, err := Parse(enc)
		if err != nil {
			t.Fatalf("tree %d: parse: %v", i, err)
		}
		if !bytes.Equal(got.Bytes(), enc) {
			t.Errorf("tree %d: round trip mismatch", i)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte{0x01, 0, 0}},
		{"bad tag", []byte{0x07, 0, 0, 0, 0}},
		{"truncated leaf", []byte{0x01, 0, 0, 0, 4, 0xaa}},
		{"truncated node", []byte{0x00, 0, 0, 0, 2, 0x01, 0, 0, 0, 0}},
		{"forged child count", []byte{0x00, 0xff, 0xff, 0xff, 0xff}},
		{"overlong child count", []byte{0x00, 0, 0, 0, 3, 0x01, 0, 0, 0, 0}},
		{"trailing bytes", append(Leaf([]byte{1}).Bytes(), 0xff)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse(c.data); !errors.Is(err, ErrFormat) {
				t.Errorf("got %v, wanted ErrFormat", err)
			}
		})
	}
}

func TestLeafOfLen(t *testing.T) {
	bt := Leaf([]byte{1, 2, 3})
	if _, err := bt.LeafOfLen(3); err != nil {
		t.Error(err)
	}
	if _, err := bt.LeafOfLen(4); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, wanted ErrFormat", err)
	}
	if _, err := Node().LeafData(); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, wanted ErrFormat", err)
	}
}

func TestIntLeaves(t *testing.T) {
	v := big.NewInt(0xbeef)
	bt := IntLeaf(v, 8)
	got, err := bt.LeafInt(8)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(v) != 0 {
		t.Errorf("got %v, wanted %v", got, v)
	}

	vs := []*big.Int{big.NewInt(1), big.NewInt(255), big.NewInt(1 << 20)}
	ints := IntsLeaf(vs, 4)
	back, err := ints.LeafInts(4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range vs {
		if back[i].Cmp(vs[i]) != 0 {
			t.Errorf("record %d: got %v, wanted %v", i, back[i], vs[i])
		}
	}

	if _, err := Leaf([]byte{1, 2, 3}).LeafInts(2); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, wanted ErrFormat", err)
	}
}
