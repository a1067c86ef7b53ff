// Package config loads locator settings from a TOML file.
//
// Keys left out of the file keep their Default value:
//
//	master = 1
//	slave = 2
//	patch_size = 40
//	inflation = [0.5, 0.5, 0.0]
//	strategy = "proximity"
//	workers = 8
//	log_level = "debug"
//	log_format = "json"
//	compression = "lz4"
//	warn_interval = "1m"
//	patch_warn_threshold = 0.9
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/geomsearch"
	"github.com/hupe1980/geomsearch/checkpoint"
	"github.com/hupe1980/geomsearch/mesh"
)

var validate = validator.New()

// Config holds the settings of one locator.
type Config struct {
	Master mesh.BoundaryID
	Slave  mesh.BoundaryID

	// PatchSize overrides the mesh patch size when positive.
	PatchSize int `validate:"gte=0"`
	// Inflation overrides the mesh inflation when non-nil.
	Inflation []float64 `validate:"omitempty,max=3,dive,gte=0"`

	Strategy  string `validate:"oneof=adjacency proximity"`
	Workers   int    `validate:"gte=0"`
	ChunkSize int    `validate:"gte=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	Compression string `validate:"oneof=none lz4 zstd"`

	WarnInterval       time.Duration `validate:"gte=0"`
	PatchWarnThreshold float64       `validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Master:             1,
		Slave:              2,
		Strategy:           "adjacency",
		LogLevel:           "info",
		LogFormat:          "text",
		Compression:        "zstd",
		WarnInterval:       geomsearch.DefaultWarnInterval,
		PatchWarnThreshold: geomsearch.DefaultPatchWarnThreshold,
	}
}

type fileConfig struct {
	Master             int32     `toml:"master"`
	Slave              int32     `toml:"slave"`
	PatchSize          int       `toml:"patch_size"`
	Inflation          []float64 `toml:"inflation"`
	Strategy           string    `toml:"strategy"`
	Workers            int       `toml:"workers"`
	ChunkSize          int       `toml:"chunk_size"`
	LogLevel           string    `toml:"log_level"`
	LogFormat          string    `toml:"log_format"`
	Compression        string    `toml:"compression"`
	WarnInterval       string    `toml:"warn_interval"`
	PatchWarnThreshold float64   `toml:"patch_warn_threshold"`
}

// Load reads a TOML file and overlays it onto Default.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return overlay(meta, raw)
}

// Parse decodes TOML text and overlays it onto Default.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return overlay(meta, raw)
}

func overlay(meta toml.MetaData, raw fileConfig) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	cfg := Default()

	if meta.IsDefined("master") {
		cfg.Master = mesh.BoundaryID(raw.Master)
	}
	if meta.IsDefined("slave") {
		cfg.Slave = mesh.BoundaryID(raw.Slave)
	}
	if meta.IsDefined("patch_size") {
		cfg.PatchSize = raw.PatchSize
	}
	if meta.IsDefined("inflation") {
		cfg.Inflation = raw.Inflation
		if cfg.Inflation == nil {
			cfg.Inflation = []float64{}
		}
	}
	if meta.IsDefined("strategy") {
		cfg.Strategy = normalize(raw.Strategy)
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("chunk_size") {
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = normalize(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = normalize(raw.LogFormat)
	}
	if meta.IsDefined("compression") {
		cfg.Compression = normalize(raw.Compression)
	}
	if meta.IsDefined("warn_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WarnInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse warn_interval: %w", err)
		}
		cfg.WarnInterval = d
	}
	if meta.IsDefined("patch_warn_threshold") {
		cfg.PatchWarnThreshold = raw.PatchWarnThreshold
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks field ranges and enumerations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Logger builds the configured logger, writing to stderr.
func (c Config) Logger() *geomsearch.Logger {
	if c.LogFormat == "json" {
		return geomsearch.NewJSONLogger(c.Level())
	}
	return geomsearch.NewTextLogger(c.Level())
}

// CheckpointCompression returns the configured checkpoint compression.
func (c Config) CheckpointCompression() (checkpoint.Compression, error) {
	return checkpoint.ParseCompression(c.Compression)
}

// Options maps the settings to locator options. The logger is built with
// Logger.
func (c Config) Options() ([]geomsearch.Option, error) {
	strategy, err := geomsearch.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}

	return []geomsearch.Option{
		geomsearch.WithLogger(c.Logger()),
		geomsearch.WithStrategy(strategy),
		geomsearch.WithPatchSize(c.PatchSize),
		geomsearch.WithWorkers(c.Workers),
		geomsearch.WithChunkSize(c.ChunkSize),
		geomsearch.WithWarnInterval(c.WarnInterval),
		geomsearch.WithPatchWarnThreshold(c.PatchWarnThreshold),
	}, nil
}

// Apply writes the mesh-level overrides to m.
func (c Config) Apply(m *mesh.Memory) {
	if c.PatchSize > 0 {
		m.SetPatchSize(c.PatchSize)
	}
	if c.Inflation != nil {
		m.SetInflation(c.Inflation...)
	}
}
