package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
	"go.uber.org/zap"
)

// RedisOptions configures a Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Redis connection failed", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", opts.Addr))
	return client, nil
}

// RedisStore shares cached archive responses between instances. Keys expire
// after retention; freshness per class is still decided by the caller.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	logger    *zap.Logger
}

// NewRedisStore creates a store writing keys as prefix+url.
func NewRedisStore(client redis.UniversalClient, prefix string, retention time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		retention: retention,
		logger:    logger,
	}
}

var _ repository.CacheRepository = (*RedisStore)(nil)

func (s *RedisStore) Get(ctx context.Context, key string) (*entity.CacheEntry, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.logger.Error("Redis get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry entity.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return &entry, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry *entity.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+key, raw, s.retention).Err(); err != nil {
		s.logger.Error("Redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
