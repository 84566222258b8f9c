package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type redisLocalStore struct {
	client *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *zap.Logger
}

func NewRedisLocalStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) LocalCartRepository {
	return &redisLocalStore{
		client: client,
		ttl:    ttl,
		tracer: otel.Tracer("repository/redis_local_store"),
		logger: logger,
	}
}

func (r *redisLocalStore) Load(ctx context.Context, key string) ([]domain.CartLineItem, error) {
	ctx, span := r.tracer.Start(ctx, "LocalCartRepository.Load")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.CartLineItem{}, nil
		}

		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to read local cart", zap.String("key", key), zap.Error(err))

		return nil, fmt.Errorf("failed to read local cart: %w", err)
	}

	items, err := decodeItems(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("item_count", len(items)))
	return items, nil
}

func (r *redisLocalStore) Save(ctx context.Context, key string, items []domain.CartLineItem) error {
	ctx, span := r.tracer.Start(ctx, "LocalCartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("key", key),
		attribute.Int("item_count", len(items)),
	)

	data, err := encodeItems(items)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to write local cart", zap.String("key", key), zap.Error(err))

		return fmt.Errorf("failed to write local cart: %w", err)
	}

	return nil
}

func (r *redisLocalStore) Delete(ctx context.Context, key string) error {
	ctx, span := r.tracer.Start(ctx, "LocalCartRepository.Delete")
	defer span.End()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete local cart: %w", err)
	}

	return nil
}
