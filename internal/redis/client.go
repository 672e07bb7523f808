package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Beegash/BBWallet/internal/config"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Options maps the service configuration onto go-redis options. The pool is
// sized for the API's cached reads plus one blocking XREADGROUP per subscriber.
func Options(cfg *config.Config) *goredis.Options {
	return &goredis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	}
}

// Connect opens the shared cache/stream connection, retrying while Redis
// starts up alongside the service.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(Options(cfg))
	if err := waitReady(ctx, rdb.Ping, connectAttempts, connectBackoff, logger); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return rdb, nil
}

func waitReady(ctx context.Context, ping func(context.Context) *goredis.StatusCmd, attempts int, backoff time.Duration, logger *zap.Logger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		logger.Warn("Redis not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("no PONG after %d attempts: %w", attempts, err)
}
