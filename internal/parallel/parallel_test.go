package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	assert.Nil(t, Chunks(0, 4, 10))

	got := Chunks(25, 4, 10)
	assert.Equal(t, []Range{{0, 10}, {10, 20}, {20, 25}}, got)

	auto := Chunks(100, 4, 0)
	require.Len(t, auto, 2, "auto chunks respect the minimum size")
	assert.Equal(t, 64, auto[0].Len())
	assert.Equal(t, 36, auto[1].Len())
}

func TestChunks_Cover(t *testing.T) {
	for _, n := range []int{1, 63, 64, 65, 1000, 12345} {
		next := 0
		for _, r := range Chunks(n, 3, 0) {
			assert.Equal(t, next, r.Lo)
			assert.Greater(t, r.Hi, r.Lo)
			next = r.Hi
		}
		assert.Equal(t, n, next)
	}
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, runtime.GOMAXPROCS(0), Workers(0))
	assert.Equal(t, 3, Workers(3))
}

func TestForEach(t *testing.T) {
	chunks := Chunks(1000, 4, 7)
	out := make([]int, len(chunks))

	var inFlight, peak atomic.Int64
	err := ForEach(chunks, 2, func(i int, r Range) error {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		for j := r.Lo; j < r.Hi; j++ {
			out[i] += j
		}
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(2))

	total := 0
	for _, v := range out {
		total += v
	}
	assert.Equal(t, 999*1000/2, total)
}

func TestForEach_Error(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(Chunks(10, 1, 1), 4, func(i int, r Range) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	err = ForEach([]Range{{0, 1}}, 4, func(int, Range) error { return boom })
	assert.ErrorIs(t, err, boom)
}
