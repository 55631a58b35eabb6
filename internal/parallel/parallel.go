// Package parallel partitions per-agent work in a data-parallel phase
// across disjoint index ranges, per §5's concurrency model: the phase
// boundary is a synchronization barrier, and within a phase workers write
// only to their own slot or to per-worker accumulators reduced at the
// barrier.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers is the number of goroutines a Range call will use; overridable
// for tests that need single-threaded, bitwise-deterministic runs (§5,
// §9 "Per-thread RNG").
var Workers = runtime.GOMAXPROCS(0)

// MinChunk is the smallest per-worker chunk size below which Range falls
// back to a single goroutine, avoiding pointless fan-out on small
// populations.
const MinChunk = 256

// Range calls fn(lo, hi) for each of a set of disjoint index ranges that
// partition [0, n), running them concurrently, and blocks until all have
// returned. fn must write only within [lo, hi) or to a per-call local
// accumulator.
func Range(n int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}
	workers := Workers
	if workers < 1 {
		workers = 1
	}
	if workers == 1 || n < MinChunk*2 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	if chunk < MinChunk {
		chunk = MinChunk
	}

	g, _ := errgroup.WithContext(context.Background())
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
	_ = g.Wait()
}
