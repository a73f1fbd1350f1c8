package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/DRSN-tech/cart-sync/internal/cfg"
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/repository/snapshot"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const (
	contentTypeJSON = "application/json"
	codeNoSuchKey   = "NoSuchKey"
)

// SnapshotRepo хранит снимок корзины объектом {prefix}{session}.json в MinIO.
type SnapshotRepo struct {
	mc      *minio.Client
	cfg     *cfg.MinIOCfg
	clock   clock.Clock
	session string
}

func NewSnapshotRepo(mc *minio.Client, cfg *cfg.MinIOCfg, session string, clock clock.Clock) *SnapshotRepo {
	return &SnapshotRepo{
		mc:      mc,
		cfg:     cfg,
		clock:   clock,
		session: session,
	}
}

func (s *SnapshotRepo) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := snapshot.Encode(cart, s.clock.Now())
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = s.mc.PutObject(ctx, s.cfg.BucketName, ObjectKey(s.cfg.Prefix, s.session),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentTypeJSON,
		})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SnapshotRepo) Load(ctx context.Context) (*domain.Cart, error) {
	obj, err := s.mc.GetObject(ctx, s.cfg.BucketName, ObjectKey(s.cfg.Prefix, s.session), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(err)
	}
	defer obj.Close()

	// GetObject ленивый: отсутствие объекта обнаруживается при чтении.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(err)
	}

	cart, err := snapshot.Decode(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return cart, nil
}

// Delete удаляет снимок сессии.
func (s *SnapshotRepo) Delete(ctx context.Context) error {
	if err := s.mc.RemoveObject(ctx, s.cfg.BucketName, ObjectKey(s.cfg.Prefix, s.session), minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SnapshotRepo) mapErr(err error) error {
	if minio.ToErrorResponse(err).Code == codeNoSuchKey {
		return e.ErrSnapshotNotFound
	}
	return e.Wrap(whereami.WhereAmI(), err)
}

// ObjectKey строит ключ объекта снимка.
func ObjectKey(prefix, session string) string {
	return prefix + session + ".json"
}
