package geomsearch

import (
	"math"
	"sync/atomic"
	"time"
)

// BuildStats describes one neighborhood build.
type BuildStats struct {
	// TrialMasters and TrialSlaves count boundary nodes that passed the
	// bounding box filter.
	TrialMasters int
	TrialSlaves  int
	// Slaves counts slave nodes kept with at least one candidate.
	Slaves int
	// Ghosts counts elements registered for ghosting.
	Ghosts int
	// Empty counts slave nodes dropped without candidates.
	Empty int
	// Remote counts slave nodes dropped as irrelevant to this partition.
	Remote int
	// PatchSize is the patch size the build used.
	PatchSize int
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see the
// prommetrics package for a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each neighborhood build.
	// err is nil if successful.
	RecordBuild(duration time.Duration, stats BuildStats, err error)

	// RecordRefresh is called after each nearest-node match.
	// matched is the number of slave nodes in the result set.
	RecordRefresh(duration time.Duration, matched int, maxPatchRatio float64, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(time.Duration, BuildStats, error)     {}
func (NoopMetricsCollector) RecordRefresh(time.Duration, int, float64, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	BuildTotalNanos   atomic.Int64
	GhostsRequested   atomic.Int64
	RefreshCount      atomic.Int64
	RefreshErrors     atomic.Int64
	RefreshTotalNanos atomic.Int64
	LastMatched       atomic.Int64
	maxPatchRatio     atomic.Uint64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, stats BuildStats, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.GhostsRequested.Add(int64(stats.Ghosts))
}

// RecordRefresh implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefresh(duration time.Duration, matched int, maxPatchRatio float64, err error) {
	b.RefreshCount.Add(1)
	b.RefreshTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RefreshErrors.Add(1)
		return
	}
	b.LastMatched.Store(int64(matched))
	b.maxPatchRatio.Store(math.Float64bits(maxPatchRatio))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildAvgNanos:   avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		GhostsRequested: b.GhostsRequested.Load(),
		RefreshCount:    b.RefreshCount.Load(),
		RefreshErrors:   b.RefreshErrors.Load(),
		RefreshAvgNanos: avg(b.RefreshTotalNanos.Load(), b.RefreshCount.Load()),
		LastMatched:     b.LastMatched.Load(),
		LastPatchRatio:  math.Float64frombits(b.maxPatchRatio.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount      int64
	BuildErrors     int64
	BuildAvgNanos   int64
	GhostsRequested int64
	RefreshCount    int64
	RefreshErrors   int64
	RefreshAvgNanos int64
	LastMatched     int64
	LastPatchRatio  float64
}
