package geomsearch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hupe1980/geomsearch/internal/neighborhood"
)

// Strategy selects how candidate master nodes are discovered.
type Strategy = neighborhood.Strategy

const (
	// StrategyAdjacency expands outward through node/element adjacency from
	// each slave node. This is the default.
	StrategyAdjacency = neighborhood.Adjacency

	// StrategyProximity keeps the patch-size nearest trial master nodes.
	// It does not need the two boundaries to share elements.
	StrategyProximity = neighborhood.Proximity
)

// ParseStrategy parses "adjacency" or "proximity".
func ParseStrategy(name string) (Strategy, error) {
	return neighborhood.ParseStrategy(name)
}

const (
	// DefaultPatchWarnThreshold is the patch ratio that triggers a warning.
	DefaultPatchWarnThreshold = 1.0

	// DefaultWarnInterval is the minimum time between two patch warnings.
	DefaultWarnInterval = 30 * time.Second
)

type options struct {
	logger             *Logger
	metricsCollector   MetricsCollector
	workers            int
	chunkSize          int
	strategy           Strategy
	patchSize          int
	patchWarnThreshold float64
	warnInterval       time.Duration
}

func defaultOptions() options {
	return options{
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
		strategy:           StrategyAdjacency,
		patchWarnThreshold: DefaultPatchWarnThreshold,
		warnInterval:       DefaultWarnInterval,
	}
}

func (o *options) validate() error {
	if o.workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidOption, o.workers)
	}
	if o.chunkSize < 0 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidOption, o.chunkSize)
	}
	if o.patchSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPatchSize, o.patchSize)
	}
	if o.patchWarnThreshold <= 0 {
		return fmt.Errorf("%w: patch warn threshold %g", ErrInvalidOption, o.patchWarnThreshold)
	}
	if o.warnInterval < 0 {
		return fmt.Errorf("%w: warn interval %s", ErrInvalidOption, o.warnInterval)
	}
	if o.strategy != StrategyAdjacency && o.strategy != StrategyProximity {
		return fmt.Errorf("%w: strategy %s", ErrInvalidOption, o.strategy)
	}
	return nil
}

// Option configures a Locator.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := geomsearch.NewJSONLogger(slog.LevelInfo)
//	loc, _ := geomsearch.New(m, 1, 2, geomsearch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &geomsearch.BasicMetricsCollector{}
//	loc, _ := geomsearch.New(m, 1, 2, geomsearch.WithMetricsCollector(metrics))
//	// ... use loc ...
//	stats := metrics.GetStats()
//	fmt.Printf("Refreshes: %d, Avg latency: %dns\n", stats.RefreshCount, stats.RefreshAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWorkers bounds the number of chunks processed concurrently.
// Zero (the default) uses GOMAXPROCS; 1 runs everything on the caller's
// goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithChunkSize sets the number of slave nodes per parallel chunk.
// Zero (the default) derives it from the worker count.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithStrategy selects candidate discovery.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithPatchSize overrides the patch size reported by the mesh.
func WithPatchSize(k int) Option {
	return func(o *options) {
		o.patchSize = k
	}
}

// WithPatchWarnThreshold sets the patch ratio at or above which a warning
// is logged after a refresh. The default is 1.0, a completely full patch.
func WithPatchWarnThreshold(ratio float64) Option {
	return func(o *options) {
		o.patchWarnThreshold = ratio
	}
}

// WithWarnInterval sets the minimum time between two patch warnings.
// Zero logs the warning on every refresh that crosses the threshold.
func WithWarnInterval(d time.Duration) Option {
	return func(o *options) {
		o.warnInterval = d
	}
}
