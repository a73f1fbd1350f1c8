package pgdb

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/repository/snapshot"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/DRSN-tech/cart-sync/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// historyLimit — сколько последних снимков сессии хранится в истории.
const historyLimit = 20

// SnapshotRepo хранит снимок корзины сессии в PostgreSQL.
// Текущий снимок и запись истории пишутся в одной транзакции.
type SnapshotRepo struct {
	pool    *pgxpool.Pool
	clock   clock.Clock
	session string
}

func NewSnapshotRepo(pool *pgxpool.Pool, session string, clock clock.Clock) *SnapshotRepo {
	return &SnapshotRepo{
		pool:    pool,
		clock:   clock,
		session: session,
	}
}

func (s *SnapshotRepo) Save(ctx context.Context, cart *domain.Cart) (err error) {
	const op = "SnapshotRepo.Save"

	savedAt := s.clock.Now().UTC()
	payload, err := snapshot.Encode(cart, savedAt)
	if err != nil {
		return e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, s.pool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(op, e.ErrTransactionNotFound)
	}
	ctx = tr.WithTx(ctx, pgxTx)

	if err = s.upsert(ctx, payload, savedAt); err != nil {
		return e.Wrap(op, err)
	}

	if err = s.appendHistory(ctx, payload, savedAt); err != nil {
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (s *SnapshotRepo) Load(ctx context.Context) (*domain.Cart, error) {
	query := `
		SELECT payload
		FROM cart_snapshots
		WHERE session_id = $1;
	`

	var payload []byte
	if err := s.pool.QueryRow(ctx, query, s.session).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrSnapshotNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cart, err := snapshot.Decode(payload)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return cart, nil
}

// upsert не перезаписывает снимок более поздним по времени сохранения.
func (s *SnapshotRepo) upsert(ctx context.Context, payload []byte, savedAt time.Time) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO cart_snapshots (session_id, schema_version, payload, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
			payload = EXCLUDED.payload,
			saved_at = EXCLUDED.saved_at
		WHERE cart_snapshots.saved_at <= EXCLUDED.saved_at;
	`

	if _, err := tx.Exec(ctx, query, s.session, snapshot.SchemaVersion, payload, savedAt); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SnapshotRepo) appendHistory(ctx context.Context, payload []byte, savedAt time.Time) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	insert := `
		INSERT INTO cart_snapshot_history (session_id, schema_version, payload, saved_at)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := tx.Exec(ctx, insert, s.session, snapshot.SchemaVersion, payload, savedAt); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	prune := `
		DELETE FROM cart_snapshot_history
		WHERE session_id = $1
		  AND id NOT IN (
			SELECT id FROM cart_snapshot_history
			WHERE session_id = $1
			ORDER BY id DESC
			LIMIT $2
		  );
	`
	if _, err := tx.Exec(ctx, prune, s.session, historyLimit); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
