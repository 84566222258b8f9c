package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/client"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.uber.org/zap"
)

const (
	productKeyPrefix = "product:"
	productsListKey  = "products:all"
	categoriesKey    = "categories:all"
)

type cachedCatalog struct {
	next        client.Catalog
	redisClient *redis.Client
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewCachedCatalog(next client.Catalog, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) client.Catalog {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &cachedCatalog{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    ttl,
		logger:      logger,
	}
}

func (c *cachedCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if c.lookup(ctx, productsListKey, &products) {
		return products, nil
	}

	products, err := c.next.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, productsListKey, products)
	return products, nil
}

func (c *cachedCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	key := productKeyPrefix + id

	var product domain.Product
	if c.lookup(ctx, key, &product) {
		return &product, nil
	}

	found, err := c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, found)
	return found, nil
}

func (c *cachedCatalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if c.lookup(ctx, categoriesKey, &categories) {
		return categories, nil
	}

	categories, err := c.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, categoriesKey, categories)
	return categories, nil
}

func (c *cachedCatalog) lookup(ctx context.Context, key string, out any) bool {
	return readCache(ctx, c.redisClient, c.logger, key, out)
}

func (c *cachedCatalog) store(ctx context.Context, key string, value any) {
	writeCache(ctx, c.redisClient, c.logger, key, value, c.cacheTTL)
}

func readCache(ctx context.Context, rdb *redis.Client, logger *zap.Logger, key string, out any) bool {
	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			mylogger.Warn(ctx, logger, "cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(val, out); err != nil {
		mylogger.Warn(ctx, logger, "dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		rdb.Del(ctx, key)
		return false
	}

	return true
}

func writeCache(ctx context.Context, rdb *redis.Client, logger *zap.Logger, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		mylogger.Warn(ctx, logger, "cache write failed", zap.String("key", key), zap.Error(err))
	}
}
