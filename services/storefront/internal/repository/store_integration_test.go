package repository

import (
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sakashimaa/storefront/pkg/testsuite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type RedisStoreSuite struct {
	testsuite.BaseSuite
}

func (s *RedisStoreSuite) SetupSuite() {
	s.BaseSuite.SetupRedis()
}

func (s *RedisStoreSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *RedisStoreSuite) TestContract() {
	s.FlushRedis()
	testLocalStoreContract(s.T(), NewRedisLocalStore(s.RedisClient, time.Hour, zap.NewNop()))
}

func (s *RedisStoreSuite) TestSaveSetsTTL() {
	s.FlushRedis()
	store := NewRedisLocalStore(s.RedisClient, time.Hour, zap.NewNop())

	s.Require().NoError(store.Save(s.Ctx, "cart:local:ttl", nil))

	ttl, err := s.RedisClient.TTL(s.Ctx, "cart:local:ttl").Result()
	s.Require().NoError(err)
	s.Require().Greater(ttl, 59*time.Minute)
}

func (s *RedisStoreSuite) TestCorruptSlot() {
	s.FlushRedis()
	s.Require().NoError(s.RedisClient.Set(s.Ctx, "cart:local:bad", "{{", 0).Err())

	_, err := NewRedisLocalStore(s.RedisClient, time.Hour, zap.NewNop()).Load(s.Ctx, "cart:local:bad")
	s.Require().ErrorIs(err, ErrCorruptLocalCart)
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(RedisStoreSuite))
}

type PostgresStoreSuite struct {
	testsuite.BaseSuite
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.BaseSuite.SetupPostgres("../../migrations")
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.BaseSuite.TruncateTable("local_carts")
}

func (s *PostgresStoreSuite) TestContract() {
	testLocalStoreContract(s.T(), NewPostgresLocalStore(s.DbPool, zap.NewNop()))
}

func (s *PostgresStoreSuite) TestSaveTouchesUpdatedAt() {
	store := NewPostgresLocalStore(s.DbPool, zap.NewNop())
	s.Require().NoError(store.Save(s.Ctx, "cart:local:ts", nil))

	var first time.Time
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT updated_at FROM local_carts WHERE slot_key = $1`, "cart:local:ts").Scan(&first))

	time.Sleep(10 * time.Millisecond)
	s.Require().NoError(store.Save(s.Ctx, "cart:local:ts", nil))

	var second time.Time
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT updated_at FROM local_carts WHERE slot_key = $1`, "cart:local:ts").Scan(&second))
	s.Require().True(second.After(first))
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(PostgresStoreSuite))
}
