// Package parallel splits an index range into disjoint chunks and runs them
// on a bounded number of goroutines.
//
// Chunks never overlap, so callers give each chunk its own output slot and
// merge the slots afterwards without locking.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest automatic chunk size. Below this the goroutine
// overhead dominates the per-node work.
const minChunk = 64

// Range is the half-open index interval [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.Hi - r.Lo }

// Workers resolves a worker count. Non-positive values mean GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Chunks splits [0, n) into contiguous ranges.
// A non-positive chunkSize picks one that gives every worker about four
// chunks, but never less than minChunk indices per chunk.
func Chunks(n, workers, chunkSize int) []Range {
	if n <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = n / (Workers(workers) * 4)
		if chunkSize < minChunk {
			chunkSize = minChunk
		}
	}

	out := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for lo := 0; lo < n; lo += chunkSize {
		hi := min(lo+chunkSize, n)
		out = append(out, Range{Lo: lo, Hi: hi})
	}
	return out
}

// ForEach calls fn for every chunk with at most workers calls in flight.
// It returns the first error, after all started calls have finished.
func ForEach(chunks []Range, workers int, fn func(i int, r Range) error) error {
	if len(chunks) == 1 {
		return fn(0, chunks[0])
	}

	var g errgroup.Group
	g.SetLimit(Workers(workers))

	for i, r := range chunks {
		g.Go(func() error {
			return fn(i, r)
		})
	}

	return g.Wait()
}
