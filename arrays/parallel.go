package arrays

import "golang.org/x/sync/errgroup"

// forRanges partitions [0, n) into contiguous chunks and runs fn on each,
// fanning out across the worker pool when n reaches the parallel threshold.
// Workers touch disjoint index ranges only, so fn needs no locking as long
// as it writes results at its own indices.
func (f *Factory) forRanges(n int, fn func(lo, hi int)) {
	w := f.policy.Workers
	if n < f.policy.ParallelThreshold || w <= 1 || n <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + w - 1) / w
	log.Debugw("fanning out", "size", n, "workers", w, "chunk", chunk)
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		lo, hi := lo, hi
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
}
