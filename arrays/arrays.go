// Package arrays implements the scalable array engine: ordered sequences of
// big integers or group elements with two interchangeable backends. The
// memory backend keeps values resident; the file backend streams fixed-size
// records through a bounded batch buffer. Both backends produce bit-exact
// identical results for every operation.
package arrays

import (
	"errors"
	"fmt"
	"math/big"
	"runtime"

	logging "github.com/ipfs/go-log/v2"

	"github.com/verimix/algebra/bytetree"
	"github.com/verimix/algebra/group"
	"github.com/verimix/algebra/perm"
	"github.com/verimix/algebra/random"
)

var log = logging.Logger("arrays")

// ErrPolicy reports an invalid factory configuration.
var ErrPolicy = errors.New("arrays: invalid policy")

// Policy fixes the backend and tuning of every array built by one Factory.
// It replaces a process-wide switch: choose it once, construct a Factory,
// and thread the factory to the code that builds arrays.
type Policy struct {
	// FileBacked selects the streaming backend for new arrays.
	FileBacked bool
	// Dir is where backing files are created. Empty means the system
	// temporary directory.
	Dir string
	// BatchSize is the number of records held in memory at a time by the
	// file backend.
	BatchSize int
	// ParallelThreshold is the smallest array length for which
	// exponentiation fans out across the worker pool.
	ParallelThreshold int
	// Workers bounds the pool. Zero means runtime.NumCPU.
	Workers int
}

// DefaultPolicy is the in-memory configuration used when no tuning is
// needed.
func DefaultPolicy() Policy {
	return Policy{
		BatchSize:         1 << 16,
		ParallelThreshold: 1 << 10,
	}
}

// Factory builds arrays under one immutable policy.
type Factory struct {
	policy Policy
}

// NewFactory validates the policy and fixes it for the factory's lifetime.
func NewFactory(p Policy) (*Factory, error) {
	if p.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", ErrPolicy, p.BatchSize)
	}
	if p.ParallelThreshold < 0 {
		return nil, fmt.Errorf("%w: parallel threshold %d", ErrPolicy, p.ParallelThreshold)
	}
	if p.Workers < 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrPolicy, p.Workers)
	}
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	return &Factory{policy: p}, nil
}

// Policy returns the factory's fixed configuration.
func (f *Factory) Policy() Policy { return f.policy }

// IntegerArray is an immutable ordered sequence of big integers. Operations
// that produce arrays allocate fresh backing storage; they never alias the
// receiver's. Operations combining two arrays require equal sizes; a
// mismatch is a programmer error. File-backed arrays own their backing file
// until Free is called.
type IntegerArray interface {
	// Size returns the immutable length.
	Size() int
	// Get returns a copy of the i-th value.
	Get(i int) *big.Int
	// Ints materializes all values. Intended for small arrays and tests.
	Ints() []*big.Int
	// ModAdd returns self[i] + b[i] mod m.
	ModAdd(b IntegerArray, m *big.Int) IntegerArray
	// ModAddScalar returns self[i] + s mod m.
	ModAddScalar(s, m *big.Int) IntegerArray
	// ModMul returns self[i] * b[i] mod m.
	ModMul(b IntegerArray, m *big.Int) IntegerArray
	// ModMulScalar returns self[i] * s mod m.
	ModMulScalar(s, m *big.Int) IntegerArray
	// ModPow returns self[i]^b[i] mod m.
	ModPow(b IntegerArray, m *big.Int) IntegerArray
	// ModPowScalar returns self[i]^s mod m.
	ModPowScalar(s, m *big.Int) IntegerArray
	// ModProd returns the product of all values mod m.
	ModProd(m *big.Int) *big.Int
	// ModPowProd returns the product of self[i]^b[i] mod m.
	ModPowProd(b IntegerArray, m *big.Int) *big.Int
	// ModRecLin evaluates the linear recurrence out[i] = out[i-1]*b[i] +
	// self[i] mod m, seeded so that out[0] = self[0] mod m.
	ModRecLin(b IntegerArray, m *big.Int) IntegerArray
	// CopyOfRange returns a fresh array holding self[lo:hi].
	CopyOfRange(lo, hi int) IntegerArray
	// Extract returns the values at the true positions of the mask.
	Extract(mask []bool) IntegerArray
	// Permute returns out with out[p(i)] = self[i].
	Permute(p *perm.Permutation) IntegerArray
	// Concat returns self followed by b in fresh storage.
	Concat(b IntegerArray) IntegerArray
	// Equal reports whether both arrays hold the same values.
	Equal(b IntegerArray) bool
	// Free releases backing storage. Using the array afterwards is a
	// programmer error. A no-op for memory-backed arrays.
	Free()
}

// ElementArray is the group-element analogue of IntegerArray.
type ElementArray interface {
	// Size returns the immutable length.
	Size() int
	// Group returns the group all elements belong to.
	Group() group.Group
	// Get returns the i-th element.
	Get(i int) group.Element
	// Elements materializes all elements. Intended for small arrays and
	// tests.
	Elements() []group.Element
	// Mul returns self[i] * b[i].
	Mul(b ElementArray) ElementArray
	// Exp returns self[i]^exps[i], fanning out across the worker pool for
	// long arrays.
	Exp(exps IntegerArray) ElementArray
	// ExpScalar returns self[i]^k.
	ExpScalar(k *big.Int) ElementArray
	// Inverse returns the element-wise inverses.
	Inverse() ElementArray
	// Prod returns the product of all elements.
	Prod() group.Element
	// PowProd returns the multi-exponentiation prod self[i]^exps[i].
	PowProd(exps IntegerArray) group.Element
	// CopyOfRange returns a fresh array holding self[lo:hi].
	CopyOfRange(lo, hi int) ElementArray
	// Extract returns the elements at the true positions of the mask.
	Extract(mask []bool) ElementArray
	// Permute returns out with out[p(i)] = self[i].
	Permute(p *perm.Permutation) ElementArray
	// Concat returns self followed by b in fresh storage.
	Concat(b ElementArray) ElementArray
	// Equal reports whether both arrays hold equal elements.
	Equal(b ElementArray) bool
	// ToByteTree serializes the array as a node of element leaves.
	ToByteTree() *bytetree.ByteTree
	// Free releases backing storage. A no-op for memory-backed arrays.
	Free()
}

// NewIntegerArray copies vs into an array under the factory's backend.
func (f *Factory) NewIntegerArray(vs []*big.Int) IntegerArray {
	if f.policy.FileBacked {
		return newFileIntegerArray(f, vs)
	}
	return newMemIntegerArray(f, vs)
}

// RandomIntegerArray samples n uniform integers in [0, 2^bits).
func (f *Factory) RandomIntegerArray(n, bits int, src random.Source) IntegerArray {
	vs := make([]*big.Int, n)
	for i := range vs {
		vs[i] = src.Int(bits)
	}
	return f.NewIntegerArray(vs)
}

// NewElementArray copies es, which must all belong to g, into an array
// under the factory's backend.
func (f *Factory) NewElementArray(g group.Group, es []group.Element) ElementArray {
	for _, e := range es {
		if !e.Group().Equal(g) {
			panic("arrays: element from mismatched group")
		}
	}
	if f.policy.FileBacked {
		return newFileElementArray(f, g, es)
	}
	return newMemElementArray(f, g, es)
}

// RandomElementArray samples n uniform elements of g.
func (f *Factory) RandomElementArray(n int, g group.Group, src random.Source) ElementArray {
	es := make([]group.Element, n)
	for i := range es {
		es[i] = g.Random(src)
	}
	return f.NewElementArray(g, es)
}

// ElementArrayFromByteTree parses a node of element trees, validating every
// element against g.
func (f *Factory) ElementArrayFromByteTree(g group.Group, bt *bytetree.ByteTree) (ElementArray, error) {
	children, err := bt.Children()
	if err != nil {
		return nil, err
	}
	es := make([]group.Element, len(children))
	for i, child := range children {
		e, err := g.FromByteTree(child)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		es[i] = e
	}
	return f.NewElementArray(g, es), nil
}

func checkSameSize(a, b int) {
	if a != b {
		panic(fmt.Sprintf("arrays: size mismatch %d != %d", a, b))
	}
}

func checkRange(lo, hi, size int) {
	if lo < 0 || hi < lo || hi > size {
		panic(fmt.Sprintf("arrays: range [%d, %d) out of size %d", lo, hi, size))
	}
}
