package app

import (
	"context"
	"fmt"

	config "github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/internal/repository/memory"
	minioRepo "github.com/DRSN-tech/cart-sync/internal/repository/minio"
	"github.com/DRSN-tech/cart-sync/internal/repository/pgdb"
	redisRepo "github.com/DRSN-tech/cart-sync/internal/repository/redis"
	"github.com/DRSN-tech/cart-sync/internal/usecase"
	"github.com/DRSN-tech/cart-sync/pkg/clients"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/postgres"
)

// newSnapshotStore поднимает выбранное хранилище снимков и регистрирует его закрытие.
func (a *App) newSnapshotStore(ctx context.Context) (usecase.SnapshotStore, error) {
	const op = "App.newSnapshotStore"
	session := a.cfg.Store.SessionID

	switch a.cfg.Store.Backend {
	case config.StoreMemory:
		a.logger.Warnf("using in-memory cart snapshots, cart is lost on restart")
		return memory.NewSnapshotRepo(a.clock), nil

	case config.StoreRedis:
		client := clients.NewRedisClient(a.cfg.Redis)
		a.closer.AddSimple("redis", client.Close)

		if err := client.Ping(ctx); err != nil {
			return nil, e.Wrap(op, err)
		}
		a.logger.Infof("cart snapshots stored in redis %s", a.cfg.Redis.Addr)

		return redisRepo.NewSnapshotRepo(client, a.cfg.Redis, session, a.clock, a.logger), nil

	case config.StorePostgres:
		db, err := postgres.Connect(ctx, a.cfg.Db)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		a.closer.AddSimple("postgres", func() error {
			db.Close()
			return nil
		})

		if err := db.RunMigrations(a.logger); err != nil {
			return nil, e.Wrap(op, err)
		}
		a.logger.Infof("cart snapshots stored in postgres %s/%s", a.cfg.Db.Host, a.cfg.Db.DBName)

		return pgdb.NewSnapshotRepo(db.Pool, session, a.clock), nil

	case config.StoreMinIO:
		mc, err := clients.NewMinIOClient(a.cfg.Minio)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		if err := clients.EnsureBucket(ctx, mc, a.cfg.Minio.BucketName); err != nil {
			return nil, e.Wrap(op, err)
		}
		a.logger.Infof("cart snapshots stored in minio bucket %s", a.cfg.Minio.BucketName)

		return minioRepo.NewSnapshotRepo(mc, a.cfg.Minio, session, a.clock), nil
	}

	return nil, e.Wrap(op, fmt.Errorf("%w: %q", e.ErrUnknownStore, a.cfg.Store.Backend))
}
