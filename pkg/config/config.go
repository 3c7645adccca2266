// Package config loads the builder's ImportParameter and the query side's
// ServerConfig from the environment via viper, grounded on
// SoySergo-location_microservice/internal/config.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ImportParameter configures a location-index or route-graph build (spec
// §6.6): input/output directories, per-component memory-map flags, block
// sizes, and which vehicle profiles to emit dedicated route-node files for.
type ImportParameter struct {
	InputDir  string
	OutputDir string

	MemoryMapAreas bool
	MemoryMapWays  bool
	MemoryMapNodes bool

	RouteNodeBlockSize int
	GridLevel          int // L in spec §4.4 step 5 (grid is 2^L x 2^L)
	QuorumPercent      int // q in spec §4.3 (ring-sub-of-ring-quorum threshold)

	VehicleProfiles []string // e.g. ["foot","bicycle","car"]

	LogLevel string
}

// DefaultImportParameter returns the documented defaults (L=16, q=80%,
// car-only unless overridden).
func DefaultImportParameter() ImportParameter {
	return ImportParameter{
		RouteNodeBlockSize: 4096,
		GridLevel:          16,
		QuorumPercent:      80,
		VehicleProfiles:    []string{"car"},
		LogLevel:           "info",
	}
}

// LoadImportParameter reads an ImportParameter from the environment
// (IMPORT_INPUT_DIR, IMPORT_OUTPUT_DIR, ...), falling back to
// DefaultImportParameter for anything unset.
func LoadImportParameter() (ImportParameter, error) {
	v := viper.New()
	v.SetEnvPrefix("IMPORT")
	v.AutomaticEnv()

	p := DefaultImportParameter()
	if s := v.GetString("INPUT_DIR"); s != "" {
		p.InputDir = s
	}
	if s := v.GetString("OUTPUT_DIR"); s != "" {
		p.OutputDir = s
	}
	if v.IsSet("ROUTE_NODE_BLOCK_SIZE") {
		p.RouteNodeBlockSize = v.GetInt("ROUTE_NODE_BLOCK_SIZE")
	}
	if v.IsSet("GRID_LEVEL") {
		p.GridLevel = v.GetInt("GRID_LEVEL")
	}
	if v.IsSet("QUORUM_PERCENT") {
		p.QuorumPercent = v.GetInt("QUORUM_PERCENT")
	}
	if s := v.GetString("LOG_LEVEL"); s != "" {
		p.LogLevel = s
	}
	if profiles := v.GetStringSlice("VEHICLE_PROFILES"); len(profiles) > 0 {
		p.VehicleProfiles = profiles
	}
	p.MemoryMapAreas = v.GetBool("MMAP_AREAS")
	p.MemoryMapWays = v.GetBool("MMAP_WAYS")
	p.MemoryMapNodes = v.GetBool("MMAP_NODES")

	if p.InputDir == "" {
		return p, fmt.Errorf("config: IMPORT_INPUT_DIR is required")
	}
	return p, nil
}

// ServerConfig configures the query-side HTTP server: addr/timeouts/CORS
// plus the route-node tile-cache DSN.
type ServerConfig struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxConcurrent int
	CORSOrigin    string

	GraphDir string // directory of per-database route-node files (multi-db)
	LogLevel string

	RedisDSN       string // optional; empty means in-process LRU cache only
	TileCacheSize  int    // in-process LRU capacity when RedisDSN is unset
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:          addr,
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
		MaxConcurrent: 64,
		TileCacheSize: 4096,
		LogLevel:      "info",
	}
}

// LoadServerConfig reads a ServerConfig from the environment
// (SERVER_ADDR, SERVER_GRAPH_DIR, ...), falling back to
// DefaultServerConfig for anything unset.
func LoadServerConfig() (ServerConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SERVER")
	v.AutomaticEnv()

	cfg := DefaultServerConfig(":8080")
	if s := v.GetString("ADDR"); s != "" {
		cfg.Addr = s
	}
	if s := v.GetString("GRAPH_DIR"); s != "" {
		cfg.GraphDir = s
	}
	if s := v.GetString("CORS_ORIGIN"); s != "" {
		cfg.CORSOrigin = s
	}
	if s := v.GetString("REDIS_DSN"); s != "" {
		cfg.RedisDSN = s
	}
	if v.IsSet("MAX_CONCURRENT") {
		cfg.MaxConcurrent = v.GetInt("MAX_CONCURRENT")
	}
	if v.IsSet("TILE_CACHE_SIZE") {
		cfg.TileCacheSize = v.GetInt("TILE_CACHE_SIZE")
	}
	if s := v.GetString("LOG_LEVEL"); s != "" {
		cfg.LogLevel = s
	}
	if cfg.GraphDir == "" {
		return cfg, fmt.Errorf("config: SERVER_GRAPH_DIR is required")
	}
	return cfg, nil
}
