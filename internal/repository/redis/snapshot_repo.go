package redis

import (
	"context"
	"errors"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/repository/snapshot"
	"github.com/DRSN-tech/cart-sync/pkg/clients"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "cart:snapshot:"

// SnapshotRepo хранит снимок корзины сессии в Redis с TTL.
type SnapshotRepo struct {
	client  *clients.RedisClient
	cfg     *cfg.RedisCfg
	clock   clock.Clock
	logger  logger.Logger
	session string
}

func NewSnapshotRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, session string,
	clock clock.Clock, logger logger.Logger) *SnapshotRepo {
	return &SnapshotRepo{
		client:  client,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		session: session,
	}
}

// Save перезаписывает снимок и продлевает TTL.
func (s *SnapshotRepo) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := snapshot.Encode(cart, s.clock.Now())
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := s.client.Client.Set(ctx, s.key(), data, s.cfg.SnapshotTTL).Err(); err != nil {
		s.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SnapshotRepo) Load(ctx context.Context) (*domain.Cart, error) {
	data, err := s.client.Client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.ErrSnapshotNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cart, err := snapshot.Decode(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return cart, nil
}

func (s *SnapshotRepo) key() string {
	return snapshotKeyPrefix + s.session
}
