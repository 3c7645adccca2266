// Command routegraphbuild builds a route-node graph (spec §4.7, §6.2-§6.4)
// from an OSM PBF extract, one dedicated output file set per entry in
// IMPORT_VEHICLE_PROFILES (default "car").
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/config"
	"github.com/mapstack/osmindex/pkg/logging"
	"github.com/mapstack/osmindex/pkg/osmsource"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/routegraph"
)

func main() {
	cfg, err := config.LoadImportParameter()
	if err != nil {
		fmt.Fprintln(os.Stderr, "routegraphbuild:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "routegraphbuild: failed to build logger:", err)
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
	logger.Info("import complete", zap.Int("ways", len(res.Ways)), zap.Int("nodes", len(res.NodeCoord)),
		zap.Int("restrictions", len(res.Restrictions)))

	restrictions := routegraph.RestrictionsFromRaw(res.Restrictions)

	for _, name := range cfg.VehicleProfiles {
		vehicle, ok := profile.Parse(name)
		if !ok {
			logger.Warn("skipping unrecognized vehicle profile", zap.String("vehicle", name))
			continue
		}

		logger.Info("building route-node graph", zap.String("vehicle", name))
		g := routegraph.Build(res, restrictions, vehicle, logger)

		if err := routegraph.Write(g, routegraph.Params{
			OutputDir:         cfg.OutputDir,
			TileMagnification: 14,
			Vehicle:           vehicle,
		}); err != nil {
			logger.Fatal("failed to write route-node graph", zap.String("vehicle", name), zap.Error(err))
		}
		logger.Info("wrote route-node graph", zap.String("vehicle", name), zap.Int("nodes", len(g.Nodes)))

		runtime.GC()
		debug.FreeOSMemory()
	}

	logger.Info("done", zap.Duration("elapsed", time.Since(start).Round(time.Second)))
}
