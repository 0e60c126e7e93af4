package arrays

import (
	"fmt"
	"math/big"
	"os"

	"github.com/verimix/algebra/group"
)

// The file backend treats backing storage as part of the engine's own
// address space: an I/O failure on a file the engine created is not a
// recoverable condition for callers, so it is logged and escalated as a
// panic rather than threaded through every arithmetic signature.
func ioCheck(err error, op, path string) {
	if err != nil {
		log.Errorw("backing file failure", "op", op, "path", path, "err", err)
		panic(fmt.Sprintf("arrays: %s %s: %v", op, path, err))
	}
}

func (f *Factory) newBackingFile(prefix string) *os.File {
	file, err := os.CreateTemp(f.policy.Dir, prefix+"-*.bin")
	ioCheck(err, "create", f.policy.Dir)
	log.Debugw("backing file created", "path", file.Name())
	return file
}

// recSizeForMod returns the record size holding any residue mod m.
func recSizeForMod(m *big.Int) int {
	n := (m.BitLen() + 7) / 8
	if n == 0 {
		n = 1
	}
	return n
}

// recSizeForValues returns the record size holding every value in vs.
func recSizeForValues(vs []*big.Int) int {
	n := 1
	for _, v := range vs {
		if v.Sign() < 0 {
			panic("arrays: negative integer value")
		}
		if b := (v.BitLen() + 7) / 8; b > n {
			n = b
		}
	}
	return n
}

// intRange returns b[lo:hi], reading from the backing file when b is
// file-backed and aliasing the resident slice when it is not.
func intRange(b IntegerArray, lo, hi int) []*big.Int {
	switch t := b.(type) {
	case *memIntegerArray:
		return t.vs[lo:hi]
	case *fileIntegerArray:
		return t.readRange(lo, hi)
	default:
		out := make([]*big.Int, hi-lo)
		for i := range out {
			out[i] = b.Get(lo + i)
		}
		return out
	}
}

// elemRange is the element analogue of intRange.
func elemRange(b ElementArray, lo, hi int) []group.Element {
	switch t := b.(type) {
	case *memElementArray:
		return t.es[lo:hi]
	case *fileElementArray:
		return t.readRange(lo, hi)
	default:
		out := make([]group.Element, hi-lo)
		for i := range out {
			out[i] = b.Get(lo + i)
		}
		return out
	}
}
