// Package bootstrap builds the lead form service and its integrations from
// configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/smp-leadform/internal/config"
	"github.com/wolfman30/smp-leadform/internal/session"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || cfg.UseMemoryStore || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to memory stores", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// Stores bundles the session persistence the lead service needs.
type Stores struct {
	Sessions session.Store
	Progress session.ProgressCache
}

// BuildStores returns Redis-backed stores when a client is available and
// in-memory ones otherwise.
func BuildStores(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) Stores {
	if logger == nil {
		logger = logging.Default()
	}
	ttl := cfg.SessionTTL
	if redisClient == nil {
		logger.Info("using in-memory session store", "ttl", ttl)
		return Stores{
			Sessions: session.NewMemoryStore(ttl),
			Progress: session.NewMemoryProgress(),
		}
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", ttl)
	return Stores{
		Sessions: session.NewRedisStore(redisClient, ttl),
		Progress: session.NewRedisProgress(redisClient, ttl),
	}
}
