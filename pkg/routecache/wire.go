package routecache

import (
	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/config"
)

// New builds the tile cache a routeserver process should use: Redis when
// cfg.RedisDSN is set, otherwise an in-process LRU sized by
// cfg.TileCacheSize, so the server runs standalone with no external
// dependency configured.
func New(cfg config.ServerConfig, logger *zap.Logger) (TileCache, error) {
	if cfg.RedisDSN != "" {
		return NewRedis(cfg.RedisDSN, logger)
	}
	return NewLRU(cfg.TileCacheSize), nil
}
