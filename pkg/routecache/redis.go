package routecache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mapstack/osmindex/pkg/routegraph"
)

// defaultTileTTL keeps a stale server's cached tiles from outliving a
// fresh build of the same database indefinitely.
const defaultTileTTL = 30 * time.Minute

// Redis is a TileCache backed by a shared Redis instance, for a
// multi-instance routeserver deployment where each instance would
// otherwise cold-decode the same hot tiles.
//
// Grounded on SoySergo-location_microservice/internal/repository/cache/
// redis.go + cache_repository.go's GetTile/SetTile key scheme, adapted
// from "z/x/y map tile" to routegraph.TileKey.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedis connects to dsn (a redis:// URL) and pings it once so
// misconfiguration fails at startup rather than on the first query.
func NewRedis(dsn string, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("route-node tile cache connected", zap.String("addr", opts.Addr))
	return &Redis{client: client, logger: logger, ttl: defaultTileTTL}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) GetTile(ctx context.Context, dbID string, key routegraph.TileKey) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, tileCacheKey(dbID, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("tile cache get failed", zap.String("db", dbID), zap.Error(err))
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) SetTile(ctx context.Context, dbID string, key routegraph.TileKey, data []byte) error {
	if err := r.client.Set(ctx, tileCacheKey(dbID, key), data, r.ttl).Err(); err != nil {
		r.logger.Error("tile cache set failed", zap.String("db", dbID), zap.Error(err))
		return err
	}
	return nil
}
