package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/redis/go-redis/v9"

	"fleets-server/internal/shared/config"
	"fleets-server/internal/world"
)

// RedisStore keeps the world as one zstd-compressed value under a fixed key.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	logger := slog.With("component", "redis_store", "operation", "connect")

	var rdb *redis.Client

	if cfg.URL != "" {
		logger.Debug("Connecting to Redis using URL")
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			logger.Error("Failed to parse Redis URL", "error", err)
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		rdb = redis.NewClient(opts)
	} else {
		logger.Debug("Connecting to Redis using host/port",
			"host", cfg.Host,
			"port", cfg.Port)

		rdb = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to ping Redis", "error", err)
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", "key", cfg.Key)

	return NewRedisStore(rdb, cfg.Key), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		logger: slog.With("component", "redis_store", "key", key),
	}
}

func (s *RedisStore) Load(ctx context.Context) (*world.World, error) {
	blob, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrWorldNotFound
		}
		return nil, fmt.Errorf("failed to load world: %w", err)
	}
	return decodeCompressed(blob)
}

// Replace overwrites the key; a single SET is atomic.
func (s *RedisStore) Replace(ctx context.Context, w *world.World) error {
	blob, err := encodeCompressed(w)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to store world: %w", err)
	}
	s.logger.Debug("World replaced", "size", humanize.Bytes(uint64(len(blob))), "players", len(w.Accounts))
	return nil
}

func (s *RedisStore) Seed(ctx context.Context) (bool, error) {
	blob, err := encodeCompressed(world.New())
	if err != nil {
		return false, err
	}
	created, err := s.client.SetNX(ctx, s.key, blob, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to seed world: %w", err)
	}
	return created, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
