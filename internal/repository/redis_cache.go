package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/cookbook-upload/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisResponseCache implements domain.ResponseCache using Redis
type RedisResponseCache struct {
	client *redis.Client
	prefix string
}

// NewRedisResponseCache creates a response cache whose keys live under prefix
func NewRedisResponseCache(client *redis.Client, prefix string) *RedisResponseCache {
	return &RedisResponseCache{
		client: client,
		prefix: prefix,
	}
}

// Get returns the cached body, or domain.ErrCacheMiss
func (r *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", r.prefix+key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return nil, domain.ErrCacheMiss
		}
		span.RecordError(err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	return data, nil
}

// Set stores value with a TTL
func (r *RedisResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", r.prefix+key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}
