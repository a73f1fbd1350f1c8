package pgdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/DRSN-tech/cart-sync/pkg/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

type SnapshotRepoSuite struct {
	suite.Suite

	container *tcpostgres.PostgresContainer
	db        *postgres.PgDatabase
	clock     *clock.Fake
	repo      *SnapshotRepo
}

func TestSnapshotRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	suite.Run(t, new(SnapshotRepoSuite))
}

func (s *SnapshotRepoSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("carts"),
		tcpostgres.WithUsername("cart"),
		tcpostgres.WithPassword("cart"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	s.Require().NoError(err)

	migrations, err := filepath.Abs("../../../db/migrations")
	s.Require().NoError(err)

	config := &cfg.PGDBCfg{
		Host:           host,
		Port:           port.Port(),
		User:           "cart",
		Password:       "cart",
		DBName:         "carts",
		SSLMode:        "disable",
		MigrationsPath: "file://" + migrations,
	}

	s.db, err = postgres.Connect(ctx, config)
	s.Require().NoError(err)
	s.Require().NoError(s.db.RunMigrations(logger.NewNopLogger()))
}

func (s *SnapshotRepoSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *SnapshotRepoSuite) SetupTest() {
	_, err := s.db.Pool.Exec(context.Background(), "TRUNCATE cart_snapshots, cart_snapshot_history;")
	s.Require().NoError(err)

	s.clock = clock.NewFake(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s.repo = NewSnapshotRepo(s.db.Pool, "sess-1", s.clock)
}

func (s *SnapshotRepoSuite) cart(quantity int) *domain.Cart {
	price := decimal.RequireFromString("25.50")
	return domain.NewCart("c1", []domain.CartItem{{
		ID:       "i2",
		Product:  domain.ProductSnapshot{ID: "p2", Name: "Cable", Price: price, CurrentPrice: price, Stock: 5},
		Quantity: quantity,
	}})
}

func (s *SnapshotRepoSuite) historyRows(session string) int {
	var n int
	err := s.db.Pool.QueryRow(context.Background(),
		"SELECT count(*) FROM cart_snapshot_history WHERE session_id = $1;", session).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *SnapshotRepoSuite) TestLoadMissing() {
	_, err := s.repo.Load(context.Background())
	s.ErrorIs(err, e.ErrSnapshotNotFound)
}

func (s *SnapshotRepoSuite) TestSaveAndLoad() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Save(ctx, s.cart(2)))

	s.clock.Advance(time.Second)
	s.Require().NoError(s.repo.Save(ctx, s.cart(3)))

	got, err := s.repo.Load(ctx)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 1)
	s.Equal(3, got.Items[0].Quantity)
	s.Equal(3, got.TotalItems)
	s.True(decimal.RequireFromString("76.50").Equal(got.Subtotal))
	s.Equal(2, s.historyRows("sess-1"))
}

func (s *SnapshotRepoSuite) TestEmptyCartIsStored() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Save(ctx, s.cart(2)))

	s.clock.Advance(time.Second)
	s.Require().NoError(s.repo.Save(ctx, nil))

	got, err := s.repo.Load(ctx)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *SnapshotRepoSuite) TestOlderSaveDoesNotOverwriteNewer() {
	ctx := context.Background()

	s.clock.Advance(time.Minute)
	s.Require().NoError(s.repo.Save(ctx, s.cart(4)))

	// вторая копия сервиса с отстающими часами
	lagging := NewSnapshotRepo(s.db.Pool, "sess-1", clock.NewFake(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	s.Require().NoError(lagging.Save(ctx, s.cart(1)))

	got, err := s.repo.Load(ctx)
	s.Require().NoError(err)
	s.Equal(4, got.Items[0].Quantity)
	s.Equal(2, s.historyRows("sess-1"))
}

func (s *SnapshotRepoSuite) TestHistoryIsPruned() {
	ctx := context.Background()

	for i := 1; i <= historyLimit+5; i++ {
		s.clock.Advance(time.Second)
		s.Require().NoError(s.repo.Save(ctx, s.cart(i%5+1)))
	}

	s.Equal(historyLimit, s.historyRows("sess-1"))

	var oldest time.Time
	err := s.db.Pool.QueryRow(ctx,
		"SELECT min(saved_at) FROM cart_snapshot_history WHERE session_id = $1;", "sess-1").Scan(&oldest)
	s.Require().NoError(err)
	s.True(oldest.Equal(time.Date(2026, 3, 1, 10, 0, 6, 0, time.UTC)), "oldest kept: %s", oldest)
}

func (s *SnapshotRepoSuite) TestSessionsAreIsolated() {
	ctx := context.Background()
	other := NewSnapshotRepo(s.db.Pool, "sess-2", s.clock)

	s.Require().NoError(s.repo.Save(ctx, s.cart(2)))

	_, err := other.Load(ctx)
	s.ErrorIs(err, e.ErrSnapshotNotFound)
	s.Equal(0, s.historyRows("sess-2"))
}
