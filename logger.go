package geomsearch

import (
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/geomsearch/mesh"
)

// Logger wraps slog.Logger with locator-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithBoundaries tags every record with the boundary pair.
func (l *Logger) WithBoundaries(master, slave mesh.BoundaryID) *Logger {
	return &Logger{
		Logger: l.Logger.With("master", master, "slave", slave),
	}
}

// LogBuild logs a neighborhood build.
func (l *Logger) LogBuild(stats BuildStats, d time.Duration, err error) {
	if err != nil {
		l.Error("neighborhood build failed",
			"duration", d,
			"error", err,
		)
		return
	}
	l.Info("neighborhood build completed",
		"trial_masters", stats.TrialMasters,
		"trial_slaves", stats.TrialSlaves,
		"slaves", stats.Slaves,
		"ghosts", stats.Ghosts,
		"empty", stats.Empty,
		"remote", stats.Remote,
		"patch_size", stats.PatchSize,
		"duration", d,
	)
}

// LogRefresh logs a nearest-node match.
func (l *Logger) LogRefresh(matched int, maxPatchRatio float64, d time.Duration, err error) {
	if err != nil {
		l.Error("nearest node refresh failed",
			"duration", d,
			"error", err,
		)
		return
	}
	l.Debug("nearest node refresh completed",
		"matched", matched,
		"max_patch_ratio", maxPatchRatio,
		"duration", d,
	)
}

// LogPatchExhaustion warns that neighborhoods filled their patch.
func (l *Logger) LogPatchExhaustion(maxPatchRatio float64, patchSize int) {
	l.Warn("neighborhood patch exhausted; nearest node may lie outside the patch",
		"max_patch_ratio", maxPatchRatio,
		"patch_size", patchSize,
	)
}
