package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sakashimaa/storefront/pkg/testsuite"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type countingCatalog struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingCatalog) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
}

func (c *countingCatalog) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *countingCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	c.hit("ListProducts")
	return []domain.Product{{ID: "p1", Name: "Beans", Price: 10}}, nil
}

func (c *countingCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	c.hit("GetProduct")
	if id != "p1" {
		return nil, domain.ErrProductNotFound
	}
	return &domain.Product{ID: "p1", Name: "Beans", Price: 10}, nil
}

func (c *countingCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	c.hit("ListCategories")
	return []domain.Category{{ID: "c1", Name: "Coffee"}}, nil
}

type CacheSuite struct {
	testsuite.BaseSuite
}

func (s *CacheSuite) SetupSuite() {
	s.BaseSuite.SetupRedis()
}

func (s *CacheSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *CacheSuite) SetupTest() {
	s.FlushRedis()
}

func (s *CacheSuite) TestCatalog_ServesRepeatedReadsFromRedis() {
	next := &countingCatalog{calls: map[string]int{}}
	catalog := NewCachedCatalog(next, s.RedisClient, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		product, err := catalog.GetProduct(s.Ctx, "p1")
		s.Require().NoError(err)
		s.Require().Equal("Beans", product.Name)

		products, err := catalog.ListProducts(s.Ctx)
		s.Require().NoError(err)
		s.Require().Len(products, 1)

		categories, err := catalog.ListCategories(s.Ctx)
		s.Require().NoError(err)
		s.Require().Len(categories, 1)
	}

	s.Require().Equal(1, next.count("GetProduct"))
	s.Require().Equal(1, next.count("ListProducts"))
	s.Require().Equal(1, next.count("ListCategories"))
}

func (s *CacheSuite) TestCatalog_DoesNotCacheMisses() {
	next := &countingCatalog{calls: map[string]int{}}
	catalog := NewCachedCatalog(next, s.RedisClient, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := catalog.GetProduct(s.Ctx, "ghost")
		s.Require().ErrorIs(err, domain.ErrNotFound)
	}
	s.Require().Equal(2, next.count("GetProduct"))
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(CacheSuite))
}
