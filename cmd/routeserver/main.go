// Command routeserver serves the HTTP routing API (spec §6.5/§6.6) over
// one or more route-node databases, each built by cmd/routegraphbuild.
//
// SERVER_GRAPH_DIR is expected to hold one subdirectory per vehicle
// (foot/bicycle/car, as written by routegraphbuild) for a single-database
// deployment, or one subdirectory per database -- each in turn holding
// the same per-vehicle layout -- for a multi-database deployment. Both
// shapes are auto-detected: SERVER_GRAPH_DIR is a single database if every
// one of its immediate subdirectories parses as a vehicle name; otherwise
// each of its subdirectories is treated as a database directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/api"
	"github.com/mapstack/osmindex/pkg/config"
	"github.com/mapstack/osmindex/pkg/logging"
	"github.com/mapstack/osmindex/pkg/profile"
	"github.com/mapstack/osmindex/pkg/routecache"
	"github.com/mapstack/osmindex/pkg/routegraph"
	"github.com/mapstack/osmindex/pkg/router"
)

// loadSnapperNodes loads every node's coordinate (and routing data) from
// path, used to build the Snapper's spatial grid. Unlike router.TileGraph,
// snapping needs every node's coordinate up front to build its grid, so
// this is the one place a routeserver still pays ReadRouteNodes' full-file
// cost; the route search itself runs against the lazily tile-decoded
// TileGraph built alongside it.
func loadSnapperNodes(path string) (map[uint64]*routegraph.RouteNode, error) {
	return routegraph.ReadRouteNodes(path)
}

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "routeserver:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "routeserver: failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	start := time.Now()

	cache, err := routecache.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build tile cache", zap.Error(err))
	}

	databases, err := discoverDatabases(cfg.GraphDir)
	if err != nil {
		logger.Fatal("failed to discover graph directories", zap.String("graph_dir", cfg.GraphDir), zap.Error(err))
	}

	var (
		loaded []api.Loaded
		names  []string

		// Per-vehicle, for building one DatabaseSet per vehicle below:
		// cross-database twin expansion for a "car" query must walk the
		// "car" graphs, not a different vehicle's.
		nodeIDsByVehicle = make(map[string]map[string][]uint64) // vehicle -> database -> node ids
		graphsByVehicle  = make(map[string]map[string]router.Graph)
	)
	for _, db := range databases {
		names = append(names, db.name)
		for _, vehicleName := range db.vehicles {
			if _, ok := profile.Parse(vehicleName); !ok {
				logger.Warn("skipping unrecognized vehicle directory",
					zap.String("database", db.name), zap.String("vehicle", vehicleName))
				continue
			}
			routerDat := filepath.Join(db.path, vehicleName, "router.dat")

			g, err := router.NewTileGraph(routerDat, db.name, cache)
			if err != nil {
				logger.Fatal("failed to open route-node graph",
					zap.String("database", db.name), zap.String("vehicle", vehicleName),
					zap.String("path", routerDat), zap.Error(err))
			}

			nodes, err := loadSnapperNodes(routerDat)
			if err != nil {
				logger.Fatal("failed to load nodes for snapping",
					zap.String("database", db.name), zap.String("vehicle", vehicleName), zap.Error(err))
			}
			snapper := router.NewSnapper(nodes)

			variantDat := filepath.Join(db.path, vehicleName, "routevariant.dat")
			variants, err := routegraph.ReadObjectVariants(variantDat)
			if err != nil {
				logger.Warn("failed to load object-variant table, falling back to vehicle ceiling speed",
					zap.String("database", db.name), zap.String("vehicle", vehicleName),
					zap.String("path", variantDat), zap.Error(err))
				variants = nil
			}

			loaded = append(loaded, api.Loaded{
				Database: db.name,
				Vehicle:  vehicleName,
				Graph:    g,
				Snapper:  snapper,
				Variants: variants,
				NumNodes: len(nodes),
			})

			if _, ok := nodeIDsByVehicle[vehicleName]; !ok {
				nodeIDsByVehicle[vehicleName] = make(map[string][]uint64)
				graphsByVehicle[vehicleName] = make(map[string]router.Graph)
			}
			ids := make([]uint64, 0, len(nodes))
			for id := range nodes {
				ids = append(ids, id)
			}
			nodeIDsByVehicle[vehicleName][db.name] = ids
			graphsByVehicle[vehicleName][db.name] = g

			logger.Info("loaded route-node graph",
				zap.String("database", db.name), zap.String("vehicle", vehicleName),
				zap.Int("node_count", len(nodes)))
		}
	}

	if len(loaded) == 0 {
		logger.Fatal("no route-node graphs found under graph_dir", zap.String("graph_dir", cfg.GraphDir))
	}

	twins := make(map[string]*router.DatabaseSet)
	if len(databases) > 1 {
		for vehicleName, byDB := range graphsByVehicle {
			if len(byDB) > 1 {
				twins[vehicleName] = router.NewDatabaseSet(byDB, nodeIDsByVehicle[vehicleName])
			}
		}
	}

	handlers := api.NewHandlers(loaded, twins, logger)
	srv := api.NewServer(cfg, handlers, logger)

	runtime.GC()
	debug.FreeOSMemory()

	logger.Info("ready", zap.Duration("load_time", time.Since(start).Round(time.Millisecond)),
		zap.Strings("databases", names))

	if err := api.ListenAndServe(srv, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

// databaseDir is one discovered database directory and the vehicle
// subdirectories found inside it.
type databaseDir struct {
	name     string
	path     string
	vehicles []string
}

// discoverDatabases walks graphDir and returns one databaseDir per
// database. graphDir itself is treated as a single database named
// "default" when its immediate children are vehicle directories rather
// than database directories.
func discoverDatabases(graphDir string) ([]databaseDir, error) {
	entries, err := os.ReadDir(graphDir)
	if err != nil {
		return nil, fmt.Errorf("routeserver: read graph_dir: %w", err)
	}

	var childDirs []string
	for _, e := range entries {
		if e.IsDir() {
			childDirs = append(childDirs, e.Name())
		}
	}

	if allVehicleNames(childDirs) {
		return []databaseDir{{name: "default", path: graphDir, vehicles: childDirs}}, nil
	}

	var dbs []databaseDir
	for _, name := range childDirs {
		dbPath := filepath.Join(graphDir, name)
		sub, err := os.ReadDir(dbPath)
		if err != nil {
			return nil, fmt.Errorf("routeserver: read database dir %s: %w", dbPath, err)
		}
		var vehicles []string
		for _, e := range sub {
			if e.IsDir() {
				vehicles = append(vehicles, e.Name())
			}
		}
		dbs = append(dbs, databaseDir{name: name, path: dbPath, vehicles: vehicles})
	}
	return dbs, nil
}

func allVehicleNames(names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if _, ok := profile.Parse(n); !ok {
			return false
		}
	}
	return true
}
