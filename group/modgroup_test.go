package group

import (
	"errors"
	"math/big"
	"testing"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/random"
)

func TestNewModGroupValidation(t *testing.T) {
	cases := []struct {
		name     string
		modulus  int64
		order    int64
		gen      int64
		encoding Encoding
	}{
		{"composite modulus", 1189, 593, 4, EncodingSafePrime},
		{"composite order", 1187, 592, 4, EncodingSafePrime},
		{"order does not divide", 1187, 7, 4, EncodingSafePrime},
		{"generator too small", 1187, 593, 1, EncodingSafePrime},
		{"generator too large", 1187, 593, 1187, EncodingSafePrime},
		{"generator not a residue", 1187, 593, 2, EncodingSafePrime},
		{"generator wrong order", 1187, 593, 2, EncodingSubgroup},
		{"co-order not two", 29, 7, 4, EncodingSafePrime},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewModGroup(big.NewInt(c.modulus), big.NewInt(c.order),
				big.NewInt(c.gen), c.encoding, 100)
			if !errors.Is(err, ErrDomain) {
				t.Errorf("got %v, wanted ErrDomain", err)
			}
		})
	}
}

func TestSafePrimeEncodingSign(t *testing.T) {
	// Messages land on whichever of {v, p-v} is the quadratic residue, so
	// both signs must decode identically.
	src := random.NewDevSource()
	for i := 0; i < 64; i++ {
		msg := src.Bytes(1 + i%bigSafeGroup.MaxEncodeLen())
		e, err := bigSafeGroup.Encode(msg)
		if err != nil {
			t.Fatal(err)
		}
		if !bigSafeGroup.Contains(e) {
			t.Fatal("encoded element is not a quadratic residue")
		}
	}
}

func TestSubgroupEncodingMembers(t *testing.T) {
	src := random.NewDevSource()
	if subGroup.MaxEncodeLen() == 0 {
		t.Fatal("subgroup test fixture cannot embed messages")
	}
	for i := 0; i < 32; i++ {
		msg := src.Bytes(subGroup.MaxEncodeLen())
		e, err := subGroup.Encode(msg)
		if err != nil {
			t.Fatal(err)
		}
		if !subGroup.Contains(e) {
			t.Fatal("encoded element is outside the subgroup")
		}
		got, err := subGroup.Decode(e)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(msg) {
			t.Fatalf("round trip mismatch: %x != %x", got, msg)
		}
	}
}

func TestROEncoding(t *testing.T) {
	e0, err := roGroup.Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	e1, err := roGroup.Encode([]byte{0x42})
	if err != nil {
		t.Fatal(err)
	}
	if !roGroup.Contains(e0) || !roGroup.Contains(e1) {
		t.Error("random-oracle image is outside the subgroup")
	}
	if e0.Equal(e1) {
		t.Error("distinct messages hashed to the same element")
	}
	// Deterministic: the same message maps to the same element.
	e1b, err := roGroup.Encode([]byte{0x42})
	if err != nil {
		t.Fatal(err)
	}
	if !e1.Equal(e1b) {
		t.Error("random-oracle encoding is not deterministic")
	}
	if _, err := roGroup.Encode([]byte{1, 2}); !errors.Is(err, ErrEncode) {
		t.Errorf("two-byte message: got %v, wanted ErrEncode", err)
	}
}

func TestModGroupFromByteTreeRejectsNonMembers(t *testing.T) {
	// 2 is not a quadratic residue mod 1187.
	leaf := bytetree.IntLeaf(big.NewInt(2), 2)
	if _, err := toySafeGroup.FromByteTree(leaf); !errors.Is(err, ErrDomain) {
		t.Errorf("got %v, wanted ErrDomain", err)
	}
	// Zero is not a group member either.
	leaf = bytetree.IntLeaf(big.NewInt(0), 2)
	if _, err := toySafeGroup.FromByteTree(leaf); !errors.Is(err, ErrDomain) {
		t.Errorf("got %v, wanted ErrDomain", err)
	}
	// Wrong leaf length is a format error.
	leaf = bytetree.IntLeaf(big.NewInt(4), 3)
	if _, err := toySafeGroup.FromByteTree(leaf); !errors.Is(err, bytetree.ErrFormat) {
		t.Errorf("got %v, wanted ErrFormat", err)
	}
}

func TestModGroupParameterRoundTrip(t *testing.T) {
	for _, g := range []*ModGroup{toySafeGroup, subGroup, roGroup} {
		bt, err := bytetree.Parse(g.ToByteTree().Bytes())
		if err != nil {
			t.Fatal(err)
		}
		back, err := ModGroupFromByteTree(bt, 100)
		if err != nil {
			t.Fatal(err)
		}
		if !g.Equal(back) {
			t.Error("group parameter round trip mismatch")
		}
	}
}

func TestNewRandomModGroup(t *testing.T) {
	src := random.NewDevSource()
	g := NewRandomModGroup(64, 80, src)
	if g.Modulus().BitLen() != 64 {
		t.Errorf("modulus of %d bits, wanted 64", g.Modulus().BitLen())
	}
	if g.Encoding() != EncodingSafePrime {
		t.Error("random group is not safe-prime encoded")
	}
	if !g.Generator().ExpInt(g.Order()).Equal(g.Identity()) {
		t.Error("generator order mismatch")
	}
}

func TestScenarioToySafePrime(t *testing.T) {
	// An 11-bit safe prime group: the generator raised to the group order
	// is the identity and no smaller power of it is.
	g := toySafeGroup
	if !g.Generator().ExpInt(g.Order()).Equal(g.Identity()) {
		t.Error("g^order != identity")
	}
	if g.Generator().ExpInt(big.NewInt(1)).Equal(g.Identity()) {
		t.Error("generator is trivial")
	}
}
