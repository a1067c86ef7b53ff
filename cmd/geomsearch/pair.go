package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/geomsearch"
	"github.com/hupe1980/geomsearch/config"
	"github.com/hupe1980/geomsearch/mesh"
)

type pairFlags struct {
	meshPath   string
	configPath string
	master     int32
	slave      int32
	patchSize  int
	strategy   string
	jsonOut    bool
	refresh    int
	checkpoint string
	restore    string
}

type pairResult struct {
	Slave    uint32  `json:"slave"`
	Nearest  uint32  `json:"nearest"`
	Distance float64 `json:"distance"`
}

func newPairCmd() *cobra.Command {
	var f pairFlags

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Find the nearest master node of every slave node",
		Long: `Loads a YAML mesh fixture, builds the slave node neighborhoods and prints
the nearest master node of every slave node tracked by the local partition.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPair(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.meshPath, "mesh", "", "YAML mesh fixture")
	fl.StringVar(&f.configPath, "config", "", "TOML settings file")
	fl.Int32Var(&f.master, "master", 1, "master boundary id")
	fl.Int32Var(&f.slave, "slave", 2, "slave boundary id")
	fl.IntVar(&f.patchSize, "patch-size", 0, "candidates per slave node (0 uses the mesh value)")
	fl.StringVar(&f.strategy, "strategy", "adjacency", "candidate discovery: adjacency or proximity")
	fl.BoolVar(&f.jsonOut, "json", false, "print JSON")
	fl.IntVar(&f.refresh, "refresh", 0, "extra refreshes after the first search")
	fl.StringVar(&f.checkpoint, "checkpoint", "", "write a checkpoint to this path")
	fl.StringVar(&f.restore, "restore", "", "restore neighborhoods from this checkpoint instead of building")
	_ = cmd.MarkFlagRequired("mesh")

	return cmd
}

func loadConfig(cmd *cobra.Command, f pairFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}

	fl := cmd.Flags()
	if fl.Changed("master") {
		cfg.Master = mesh.BoundaryID(f.master)
	}
	if fl.Changed("slave") {
		cfg.Slave = mesh.BoundaryID(f.slave)
	}
	if fl.Changed("patch-size") {
		cfg.PatchSize = f.patchSize
	}
	if fl.Changed("strategy") {
		cfg.Strategy = strings.ToLower(strings.TrimSpace(f.strategy))
	}

	return cfg, cfg.Validate()
}

func runPair(cmd *cobra.Command, f pairFlags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	m, err := mesh.LoadYAMLFile(f.meshPath)
	if err != nil {
		return err
	}
	cfg.Apply(m)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	metrics := &geomsearch.BasicMetricsCollector{}
	opts = append(opts, geomsearch.WithMetricsCollector(metrics))

	loc, err := geomsearch.New(m, cfg.Master, cfg.Slave, opts...)
	if err != nil {
		return err
	}

	if f.restore != "" {
		if err := restore(loc, f.restore); err != nil {
			return err
		}
	}

	for i := 0; i <= f.refresh; i++ {
		if err := loc.FindNodes(); err != nil {
			return err
		}
	}

	if f.checkpoint != "" {
		if err := writeCheckpoint(loc, cfg, f.checkpoint); err != nil {
			return err
		}
	}

	if err := printResults(cmd.OutOrStdout(), loc, f.jsonOut); err != nil {
		return err
	}

	stats := metrics.GetStats()
	cfg.Logger().Info("pairing finished",
		"name", loc.Name(),
		"matched", stats.LastMatched,
		"builds", stats.BuildCount,
		"refreshes", stats.RefreshCount,
		"avg_refresh", time.Duration(stats.RefreshAvgNanos),
		"max_patch_ratio", loc.MaxPatchRatio(),
		"ghosted_elements", len(loc.GhostedElems()),
	)
	return nil
}

func restore(loc *geomsearch.Locator, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer file.Close()
	return loc.Restore(file)
}

func writeCheckpoint(loc *geomsearch.Locator, cfg config.Config, path string) error {
	c, err := cfg.CheckpointCompression()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	if err := loc.Snapshot(file, c); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func printResults(w io.Writer, loc *geomsearch.Locator, jsonOut bool) error {
	results := make([]pairResult, 0, len(loc.SlaveNodes()))
	for match := range loc.All() {
		results = append(results, pairResult{
			Slave:    uint32(match.Slave),
			Nearest:  uint32(match.Node.ID),
			Distance: match.Distance,
		})
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%.6g\n", r.Slave, r.Nearest, r.Distance); err != nil {
			return err
		}
	}
	return nil
}
