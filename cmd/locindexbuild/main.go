// Command locindexbuild builds a location index (spec §4.4, §6.1) from an
// OSM PBF extract: administrative boundaries, populated-place aliases,
// addresses, and POIs, all resolved through a grid-accelerated region
// tree.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/config"
	"github.com/mapstack/osmindex/pkg/locindex"
	"github.com/mapstack/osmindex/pkg/logging"
	"github.com/mapstack/osmindex/pkg/osmsource"
)

func main() {
	cfg, err := config.LoadImportParameter()
	if err != nil {
		fmt.Fprintln(os.Stderr, "locindexbuild:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "locindexbuild: failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	start := time.Now()

	f, err := os.Open(cfg.InputDir)
	if err != nil {
		logger.Fatal("failed to open input file", zap.String("path", cfg.InputDir), zap.Error(err))
	}
	defer f.Close()

	logger.Info("importing OSM extract", zap.String("path", cfg.InputDir))
	res, err := osmsource.Import(context.Background(), f, logger)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	logger.Info("import complete",
		zap.Int("boundaries", len(res.Boundaries)), zap.Int("places", len(res.Places)),
		zap.Int("addresses", len(res.Addresses)), zap.Int("pois", len(res.POIs)))

	logger.Info("building location index", zap.Int("grid_level", cfg.GridLevel))
	idx := locindex.Build(res, locindex.Params{GridLevel: cfg.GridLevel}, logger)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Fatal("failed to create output directory", zap.String("path", cfg.OutputDir), zap.Error(err))
	}
	outPath := filepath.Join(cfg.OutputDir, "locationindex.dat")
	if err := locindex.Write(idx, outPath); err != nil {
		logger.Fatal("failed to write location index", zap.String("path", outPath), zap.Error(err))
	}

	logger.Info("done", zap.String("output", outPath), zap.Duration("elapsed", time.Since(start).Round(time.Second)))
}
