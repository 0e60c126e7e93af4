// Package random supplies the uniform randomness consumed by group
// generation, array sampling and permutation shuffling.
package random

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Source yields random bytes and integers. A Source must be safe for use
// from multiple goroutines.
type Source interface {
	// Bytes fills and returns a fresh slice of n uniformly random bytes.
	Bytes(n int) []byte
	// Int returns a uniformly random integer in [0, 2^bits).
	Int(bits int) *big.Int
	// IntRange returns an integer in [lower, upper) whose distribution is
	// within statistical distance 2^-statDist of uniform.
	IntRange(lower, upper *big.Int, statDist int) *big.Int
}

type devSource struct {
	r io.Reader
}

// NewDevSource returns a Source backed by crypto/rand.
func NewDevSource() Source {
	return &devSource{r: rand.Reader}
}

// NewReaderSource returns a Source drawing from r. Intended for tests that
// need a deterministic stream.
func NewReaderSource(r io.Reader) Source {
	return &devSource{r: r}
}

func (s *devSource) Bytes(n int) []byte {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		panic("random: source exhausted: " + err.Error())
	}
	return buf
}

func (s *devSource) Int(bits int) *big.Int {
	if bits <= 0 {
		return new(big.Int)
	}
	buf := s.Bytes((bits + 7) / 8)
	// Mask the excess high bits of the first byte.
	if rem := bits % 8; rem != 0 {
		buf[0] &= byte(1<<rem) - 1
	}
	return new(big.Int).SetBytes(buf)
}

func (s *devSource) IntRange(lower, upper *big.Int, statDist int) *big.Int {
	if lower.Cmp(upper) >= 0 {
		panic("random: empty range")
	}
	span := new(big.Int).Sub(upper, lower)
	// Oversampling by statDist bits bounds the modular bias of the
	// reduction by 2^-statDist.
	r := s.Int(span.BitLen() + statDist)
	r.Mod(r, span)
	return r.Add(r, lower)
}
