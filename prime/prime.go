// Package prime provides the probabilistic primality oracle used when
// validating and generating group parameters.
package prime

import (
	"math/big"

	"github.com/verimix/algebra/random"
)

// Trial division by the primes below 100 rejects most candidates before the
// Miller-Rabin rounds run.
var smallPrimes = []int64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47,
	53, 59, 61, 67, 71, 73, 79, 83, 89, 97,
}

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// IsProbablePrime reports whether n is prime with error probability at most
// 2^-certainty.
func IsProbablePrime(n *big.Int, certainty int) bool {
	if n.Sign() <= 0 {
		return false
	}
	if n.Cmp(big.NewInt(100)) < 0 {
		v := n.Int64()
		for _, p := range smallPrimes {
			if v == p {
				return true
			}
		}
		return false
	}
	m := new(big.Int)
	for _, p := range smallPrimes {
		if m.Mod(n, big.NewInt(p)).Sign() == 0 {
			return false
		}
	}
	// Each Miller-Rabin round has error at most 1/4, so (certainty+1)/2
	// rounds reach the requested bound. ProbablyPrime also runs a
	// Baillie-PSW test, which only strengthens the answer.
	return n.ProbablyPrime((certainty + 1) / 2)
}

// IsSafePrime reports whether p and (p-1)/2 are both probably prime.
func IsSafePrime(p *big.Int, certainty int) bool {
	if !IsProbablePrime(p, certainty) {
		return false
	}
	q := new(big.Int).Sub(p, one)
	q.Rsh(q, 1)
	return IsProbablePrime(q, certainty)
}

// NextProbablePrime returns the smallest probable prime >= n.
func NextProbablePrime(n *big.Int, certainty int) *big.Int {
	c := new(big.Int).Set(n)
	if c.Cmp(two) <= 0 {
		return big.NewInt(2)
	}
	if c.Bit(0) == 0 {
		c.Add(c, one)
	}
	for !IsProbablePrime(c, certainty) {
		c.Add(c, two)
	}
	return c
}

// NextSafePrime returns the smallest probable safe prime >= n.
func NextSafePrime(n *big.Int, certainty int) *big.Int {
	p := new(big.Int).Set(n)
	// 5 and 7 are the only safe primes not congruent to 11 mod 12.
	if p.Cmp(big.NewInt(5)) <= 0 {
		return big.NewInt(5)
	}
	if p.Cmp(big.NewInt(7)) <= 0 {
		return big.NewInt(7)
	}
	// Stepping by 12 over the 11 mod 12 residue class skips candidates
	// divisible by 2 or 3.
	rem := new(big.Int).Mod(p, big.NewInt(12)).Int64()
	p.Add(p, big.NewInt((11-rem+12)%12))
	for !IsSafePrime(p, certainty) {
		p.Add(p, big.NewInt(12))
	}
	return p
}

// RandomSafePrime samples a probable safe prime of exactly bits bits.
func RandomSafePrime(bits int, certainty int, src random.Source) *big.Int {
	if bits < 3 {
		panic("prime: safe prime needs at least 3 bits")
	}
	for {
		c := src.Int(bits - 1)
		c.SetBit(c, bits-1, 1) // force the exact bit length
		c.SetBit(c, 0, 1)
		p := NextSafePrime(c, certainty)
		if p.BitLen() == bits {
			return p
		}
	}
}
