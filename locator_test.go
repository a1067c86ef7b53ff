package geomsearch_test

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/geomsearch"
	"github.com/hupe1980/geomsearch/geom"
	"github.com/hupe1980/geomsearch/mesh"
	"github.com/hupe1980/geomsearch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	master = testutil.MasterBoundary
	slave  = testutil.SlaveBoundary
)

func newLocator(t *testing.T, m mesh.Mesh, opts ...geomsearch.Option) *geomsearch.Locator {
	t.Helper()
	loc, err := geomsearch.New(m, master, slave, opts...)
	require.NoError(t, err)
	return loc
}

func collect(loc *geomsearch.Locator) map[mesh.NodeID]geomsearch.Match {
	out := make(map[mesh.NodeID]geomsearch.Match)
	for m := range loc.All() {
		out[m.Slave] = m
	}
	return out
}

func TestLocator_Scenario(t *testing.T) {
	m := testutil.Scenario()
	loc := newLocator(t, m)

	assert.Equal(t, geomsearch.StateUninitialized, loc.State())
	require.NoError(t, loc.FindNodes())
	assert.Equal(t, geomsearch.StateReady, loc.State())
	assert.Equal(t, "1to2", loc.Name())

	n, err := loc.NearestNode(3)
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeID(0), n.ID)
	d, err := loc.Distance(3)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, d, 1e-12)

	// Slave 4 is equidistant from masters 1 and 2.
	n, err = loc.NearestNode(4)
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeID(1), n.ID)
	d, err = loc.Distance(4)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.26), d, 1e-12)

	assert.Equal(t, []mesh.NodeID{3, 4}, loc.SlaveNodes())
	c, ok := loc.Neighbors(3)
	require.True(t, ok)
	assert.Equal(t, []mesh.NodeID{0, 1, 2}, c)
	assert.InDelta(t, 3.0/float64(mesh.DefaultPatchSize), loc.MaxPatchRatio(), 1e-12)
	assert.Empty(t, loc.GhostedElems())
}

func TestLocator_NotReady(t *testing.T) {
	loc := newLocator(t, testutil.Scenario())

	_, err := loc.Distance(3)
	assert.ErrorIs(t, err, geomsearch.ErrNotReady)
	_, err = loc.NearestNode(3)
	assert.ErrorIs(t, err, geomsearch.ErrNotReady)
	_, ok := loc.Lookup(3)
	assert.False(t, ok)
	assert.Nil(t, loc.SlaveNodes())

	var n int
	for range loc.All() {
		n++
	}
	assert.Zero(t, n)
}

func TestLocator_NotFound(t *testing.T) {
	loc := newLocator(t, testutil.Scenario())
	require.NoError(t, loc.FindNodes())

	// Node 0 is a master node, 42 does not exist.
	for _, id := range []mesh.NodeID{0, 42} {
		_, err := loc.Distance(id)
		assert.ErrorIs(t, err, geomsearch.ErrNotFound)
		_, err = loc.NearestNode(id)
		assert.ErrorIs(t, err, geomsearch.ErrNotFound)
	}
}

func TestNew_Errors(t *testing.T) {
	m := testutil.Scenario()

	_, err := geomsearch.New(m, master, 9)
	var ub *geomsearch.ErrUnknownBoundary
	require.ErrorAs(t, err, &ub)
	assert.Equal(t, mesh.BoundaryID(9), ub.ID)
	assert.Contains(t, err.Error(), "boundary 9")

	_, err = geomsearch.New(nil, master, slave)
	assert.ErrorIs(t, err, geomsearch.ErrInvalidOption)

	_, err = geomsearch.New(m, master, slave, geomsearch.WithPatchSize(-1))
	assert.ErrorIs(t, err, geomsearch.ErrInvalidPatchSize)

	_, err = geomsearch.New(m, master, slave, geomsearch.WithWorkers(-2))
	assert.ErrorIs(t, err, geomsearch.ErrInvalidOption)

	_, err = geomsearch.New(m, master, slave, geomsearch.WithPatchWarnThreshold(0))
	assert.ErrorIs(t, err, geomsearch.ErrInvalidOption)

	_, err = geomsearch.New(m, master, slave, geomsearch.WithStrategy(geomsearch.Strategy(7)))
	assert.ErrorIs(t, err, geomsearch.ErrInvalidOption)
}

func TestLocator_InvalidMeshPatchSize(t *testing.T) {
	m := testutil.Scenario()
	m.SetPatchSize(0)

	loc := newLocator(t, m)
	err := loc.FindNodes()
	require.ErrorIs(t, err, geomsearch.ErrInvalidPatchSize)
	assert.Equal(t, geomsearch.StateUninitialized, loc.State())

	// The option overrides the mesh.
	loc = newLocator(t, m, geomsearch.WithPatchSize(2))
	require.NoError(t, loc.FindNodes())
	assert.Equal(t, 2, loc.PatchSize())
}

func TestLocator_InvalidInflation(t *testing.T) {
	m := testutil.Scenario()
	m.SetInflation(0.1, 0.1, 0.1, 0.1)

	loc := newLocator(t, m)
	require.ErrorIs(t, loc.FindNodes(), geom.ErrInvalidInflation)
	assert.Equal(t, geomsearch.StateUninitialized, loc.State())
}

func TestLocator_SelfContact(t *testing.T) {
	m := testutil.Scenario()
	loc, err := geomsearch.New(m, master, master)
	require.NoError(t, err)
	require.NoError(t, loc.FindNodes())

	assert.Equal(t, []mesh.NodeID{0, 1, 2}, loc.SlaveNodes())
	for _, id := range loc.SlaveNodes() {
		n, err := loc.NearestNode(id)
		require.NoError(t, err)
		assert.Equal(t, id, n.ID)
		d, err := loc.Distance(id)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
}

func TestLocator_BruteForceAgreement(t *testing.T) {
	rng := testutil.NewRNG(4711)
	opts := testutil.GridOptions{NX: 8, NY: 2, Jitter: 0.3}

	for _, strategy := range []geomsearch.Strategy{geomsearch.StrategyAdjacency, geomsearch.StrategyProximity} {
		t.Run(strategy.String(), func(t *testing.T) {
			rng.Reset()
			m := testutil.Grid(rng, opts)

			// A patch covering every master node makes the search exact.
			loc := newLocator(t, m,
				geomsearch.WithStrategy(strategy),
				geomsearch.WithPatchSize(opts.NX+1),
				geomsearch.WithChunkSize(2),
			)
			require.NoError(t, loc.FindNodes())

			want := testutil.BruteForce(m, master, slave)
			got := collect(loc)
			require.Len(t, got, len(want))

			for id, w := range want {
				g := got[id]
				assert.Equal(t, w.Node, g.Node.ID, "slave %d", id)
				assert.InDelta(t, w.Distance, g.Distance, 1e-12, "slave %d", id)
			}
		})
	}
}

func TestLocator_PatchLargerThanMasters(t *testing.T) {
	for _, strategy := range []geomsearch.Strategy{geomsearch.StrategyAdjacency, geomsearch.StrategyProximity} {
		t.Run(strategy.String(), func(t *testing.T) {
			loc := newLocator(t, testutil.Scenario(),
				geomsearch.WithStrategy(strategy),
				geomsearch.WithPatchSize(math.MaxInt),
			)
			require.NoError(t, loc.FindNodes())

			n, err := loc.NearestNode(4)
			require.NoError(t, err)
			assert.Equal(t, mesh.NodeID(1), n.ID)
			c, ok := loc.Neighbors(3)
			require.True(t, ok)
			assert.Len(t, c, 3)
		})
	}
}

func TestLocator_DistanceConsistency(t *testing.T) {
	rng := testutil.NewRNG(7)
	m := testutil.Grid(rng, testutil.GridOptions{NX: 6, NY: 3, Jitter: 0.25})

	loc := newLocator(t, m, geomsearch.WithPatchSize(3))
	require.NoError(t, loc.FindNodes())

	for _, id := range loc.SlaveNodes() {
		s, ok := m.Node(id)
		require.True(t, ok)
		n, err := loc.NearestNode(id)
		require.NoError(t, err)
		d, err := loc.Distance(id)
		require.NoError(t, err)
		assert.InDelta(t, geom.Distance(s.Point, n.Point), d, 1e-12)

		candidates, ok := loc.Neighbors(id)
		require.True(t, ok)
		assert.Contains(t, candidates, n.ID)
		want, ok := testutil.NearestAmong(m, s.Point, candidates)
		require.True(t, ok)
		assert.Equal(t, want.Node, n.ID)
	}
}

func TestLocator_ReinitMatchesFresh(t *testing.T) {
	rng := testutil.NewRNG(99)
	m := testutil.Grid(rng, testutil.GridOptions{NX: 10, NY: 2, Jitter: 0.2})

	loc := newLocator(t, m, geomsearch.WithPatchSize(4))
	require.NoError(t, loc.FindNodes())
	before := collect(loc)

	require.NoError(t, loc.Reinit())
	assert.Equal(t, geomsearch.StateReady, loc.State())
	assert.Equal(t, before, collect(loc))

	fresh := newLocator(t, m, geomsearch.WithPatchSize(4))
	require.NoError(t, fresh.FindNodes())
	assert.Equal(t, before, collect(fresh))
	assert.Equal(t, loc.SlaveNodes(), fresh.SlaveNodes())
}

func TestLocator_RefreshDeterministic(t *testing.T) {
	m := testutil.Grid(testutil.NewRNG(3), testutil.GridOptions{NX: 12, NY: 2, Jitter: 0.3})

	serial := newLocator(t, m, geomsearch.WithWorkers(1))
	parallel := newLocator(t, m, geomsearch.WithWorkers(4), geomsearch.WithChunkSize(1))
	require.NoError(t, serial.FindNodes())
	require.NoError(t, parallel.FindNodes())

	first := collect(serial)
	require.NoError(t, serial.FindNodes())
	assert.Equal(t, first, collect(serial))
	assert.Equal(t, first, collect(parallel))
}

func TestLocator_PatchMonotonicity(t *testing.T) {
	m := testutil.Grid(testutil.NewRNG(21), testutil.GridOptions{NX: 10, NY: 3, Jitter: 0.35})

	for _, strategy := range []geomsearch.Strategy{geomsearch.StrategyAdjacency, geomsearch.StrategyProximity} {
		small := newLocator(t, m, geomsearch.WithStrategy(strategy), geomsearch.WithPatchSize(2))
		large := newLocator(t, m, geomsearch.WithStrategy(strategy), geomsearch.WithPatchSize(4))
		require.NoError(t, small.FindNodes())
		require.NoError(t, large.FindNodes())

		for id, s := range collect(small) {
			l, ok := large.Lookup(id)
			require.True(t, ok, "slave %d", id)
			assert.LessOrEqual(t, l.Distance, s.Distance, "%s slave %d", strategy, id)
		}
	}
}

func TestLocator_RefreshUsesCurrentCoordinates(t *testing.T) {
	m := testutil.Strip(5, 0.5, 0)
	loc := newLocator(t, m, geomsearch.WithPatchSize(2))
	require.NoError(t, loc.FindNodes())

	n, err := loc.NearestNode(5)
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeID(0), n.ID)
	c, _ := loc.Neighbors(5)
	assert.Equal(t, []mesh.NodeID{0, 1}, c)

	require.NoError(t, m.MoveNode(0, geom.Pt(0, 5, 0)))
	require.NoError(t, loc.FindNodes())

	n, err = loc.NearestNode(5)
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeID(1), n.ID)
	d, err := loc.Distance(5)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(1.25), d, 1e-12)

	after, _ := loc.Neighbors(5)
	assert.Equal(t, c, after)
}

func TestLocator_GhostsAndRelevance(t *testing.T) {
	// Columns 0-1 belong to partition 0, columns 2-4 to partition 1.
	m := testutil.Grid(nil, testutil.GridOptions{NX: 4, NY: 1, Split: 2})
	metrics := &geomsearch.BasicMetricsCollector{}

	loc := newLocator(t, m, geomsearch.WithPatchSize(2), geomsearch.WithMetricsCollector(metrics))
	require.NoError(t, loc.FindNodes())

	assert.Equal(t, []mesh.NodeID{5, 6, 7}, loc.SlaveNodes())
	assert.Equal(t, []mesh.ElemID{2}, loc.GhostedElems())
	assert.Equal(t, []mesh.ElemID{2}, m.GhostedElems())
	assert.Equal(t, int64(1), metrics.GetStats().GhostsRequested)
}

func TestLocator_InflationFiltersTrialNodes(t *testing.T) {
	// Partition 0 owns elements 0 and 1. Element 2 reaches out to x=50 on
	// partition 1.
	m := mesh.NewMemory(0)
	for i := range 3 {
		require.NoError(t, m.AddNode(mesh.Node{ID: mesh.NodeID(i), Point: geom.Pt(float64(i), 0, 0)}))
		require.NoError(t, m.AddNode(mesh.Node{ID: mesh.NodeID(10 + i), Point: geom.Pt(float64(i), 0.5, 0)}))
	}
	require.NoError(t, m.AddNode(mesh.Node{ID: 3, Point: geom.Pt(50, 0, 0), Partition: 1}))
	require.NoError(t, m.AddNode(mesh.Node{ID: 13, Point: geom.Pt(50, 0.5, 0), Partition: 1}))
	require.NoError(t, m.AddElem(0, 0, 0, 1, 11, 10))
	require.NoError(t, m.AddElem(1, 0, 1, 2, 12, 11))
	require.NoError(t, m.AddElem(2, 1, 2, 3, 13, 12))
	require.NoError(t, m.Tag(master, 0, 1, 2, 3))
	require.NoError(t, m.Tag(slave, 10, 11, 12, 13))

	unfiltered := newLocator(t, m, geomsearch.WithPatchSize(8))
	require.NoError(t, unfiltered.FindNodes())
	assert.Equal(t, []mesh.NodeID{10, 11, 12, 13}, unfiltered.SlaveNodes())

	m.SetInflation(1, 1, 1)
	loc := newLocator(t, m, geomsearch.WithPatchSize(8))
	require.NoError(t, loc.FindNodes())

	// Nodes 3 and 13 lie outside the inflated box of partition 0.
	assert.Equal(t, []mesh.NodeID{10, 11, 12}, loc.SlaveNodes())
	for _, id := range loc.SlaveNodes() {
		c, _ := loc.Neighbors(id)
		assert.NotContains(t, c, mesh.NodeID(3))
	}
	assert.Equal(t, []mesh.ElemID{2}, loc.GhostedElems())
}

func TestLocator_PatchExhaustionWarning(t *testing.T) {
	newLogged := func(interval time.Duration) (*geomsearch.Locator, *bytes.Buffer) {
		var buf bytes.Buffer
		logger := geomsearch.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		loc := newLocator(t, testutil.Scenario(),
			geomsearch.WithLogger(logger),
			geomsearch.WithPatchSize(1),
			geomsearch.WithWarnInterval(interval),
		)
		return loc, &buf
	}

	t.Run("throttled", func(t *testing.T) {
		loc, buf := newLogged(time.Hour)
		for range 3 {
			require.NoError(t, loc.FindNodes())
		}
		assert.InDelta(t, 1.0, loc.MaxPatchRatio(), 1e-12)
		assert.Equal(t, 1, strings.Count(buf.String(), "patch exhausted"))
	})

	t.Run("every refresh", func(t *testing.T) {
		loc, buf := newLogged(0)
		for range 3 {
			require.NoError(t, loc.FindNodes())
		}
		assert.Equal(t, 3, strings.Count(buf.String(), "patch exhausted"))
		assert.Contains(t, buf.String(), "master=1")
	})

	t.Run("below threshold", func(t *testing.T) {
		var buf bytes.Buffer
		logger := geomsearch.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		loc := newLocator(t, testutil.Scenario(), geomsearch.WithLogger(logger))
		require.NoError(t, loc.FindNodes())
		assert.Empty(t, buf.String())
	})
}

func TestLocator_Metrics(t *testing.T) {
	metrics := &geomsearch.BasicMetricsCollector{}
	loc := newLocator(t, testutil.Scenario(), geomsearch.WithMetricsCollector(metrics))

	for range 3 {
		require.NoError(t, loc.FindNodes())
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(3), stats.RefreshCount)
	assert.Zero(t, stats.BuildErrors)
	assert.Zero(t, stats.RefreshErrors)
	assert.Equal(t, int64(2), stats.LastMatched)
	assert.InDelta(t, loc.MaxPatchRatio(), stats.LastPatchRatio, 1e-12)

	require.NoError(t, loc.Reinit())
	assert.Equal(t, int64(2), metrics.GetStats().BuildCount)
}
