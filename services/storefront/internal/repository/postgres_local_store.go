package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type postgresLocalStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewPostgresLocalStore(pool *pgxpool.Pool, logger *zap.Logger) LocalCartRepository {
	return &postgresLocalStore{
		pool:   pool,
		tracer: otel.Tracer("repository/postgres_local_store"),
		logger: logger,
	}
}

func (r *postgresLocalStore) Load(ctx context.Context, key string) ([]domain.CartLineItem, error) {
	ctx, span := r.tracer.Start(ctx, "LocalCartRepository.Load")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	query := `
		SELECT items
		FROM local_carts
		WHERE slot_key = $1;
	`

	var data []byte
	if err := r.pool.QueryRow(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.CartLineItem{}, nil
		}

		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to query local cart", zap.String("key", key), zap.Error(err))

		return nil, fmt.Errorf("failed to query local cart: %w", err)
	}

	items, err := decodeItems(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return items, nil
}

func (r *postgresLocalStore) Save(ctx context.Context, key string, items []domain.CartLineItem) error {
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

	query := `
		INSERT INTO local_carts (slot_key, items, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot_key)
		DO UPDATE SET items = EXCLUDED.items, updated_at = NOW();
	`

	if _, err := r.pool.Exec(ctx, query, key, data); err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to upsert local cart", zap.String("key", key), zap.Error(err))

		return fmt.Errorf("failed to upsert local cart: %w", err)
	}

	return nil
}

func (r *postgresLocalStore) Delete(ctx context.Context, key string) error {
	ctx, span := r.tracer.Start(ctx, "LocalCartRepository.Delete")
	defer span.End()

	query := `
		DELETE FROM local_carts
		WHERE slot_key = $1;
	`

	if _, err := r.pool.Exec(ctx, query, key); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete local cart: %w", err)
	}

	return nil
}
