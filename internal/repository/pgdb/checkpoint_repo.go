package pgdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// Статусы записей write-ahead журнала
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// CheckpointRepo ведёт write-ahead журнал индексации по хэшу содержимого.
// Запись помечается complete только после успешной записи во все три хранилища,
// что позволяет безопасно возобновлять прерванный прогон.
type CheckpointRepo struct {
	pool   *pgxpool.Pool
	outbox usecase.OutboxRepository
}

func NewCheckpointRepo(pool *pgxpool.Pool, outbox usecase.OutboxRepository) *CheckpointRepo {
	return &CheckpointRepo{
		pool:   pool,
		outbox: outbox,
	}
}

// Begin регистрирует хэш в журнале со статусом pending.
// Возвращает true, если хэш уже помечен complete предыдущим прогоном.
func (c *CheckpointRepo) Begin(ctx context.Context, hash string, identifier string) (bool, error) {
	query := `
		INSERT INTO ingest_state (content_hash, identifier, status, started_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (content_hash) DO UPDATE SET identifier = ingest_state.identifier
		RETURNING status;
	`

	var status string
	if err := c.pool.QueryRow(ctx, query, hash, identifier, StatusPending).Scan(&status); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return status == StatusComplete, nil
}

// indexedEventPayload — тело outbox-события "запись проиндексирована".
type indexedEventPayload struct {
	EventID     string `json:"event_id"`
	EventTs     int64  `json:"event_ts"`
	ContentHash string `json:"content_hash"`
	Identifier  string `json:"identifier"`
	BlobURL     string `json:"blob_url"`
}

// Complete помечает запись завершённой и кладёт outbox-событие в одной транзакции:
// событие публикуется тогда и только тогда, когда все три хранилища записаны.
func (c *CheckpointRepo) Complete(ctx context.Context, req *usecase.CompleteRecordReq) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.pool)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = c.markComplete(ctx, req.Hash); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	eventID := uuid.NewString()
	payload, err := json.Marshal(indexedEventPayload{
		EventID:     eventID,
		EventTs:     time.Now().UnixNano(),
		ContentHash: req.Hash,
		Identifier:  req.Identifier,
		BlobURL:     req.BlobURL,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err = c.outbox.Create(ctx, usecase.NewOutboxEvent(eventID, req.Hash, payload)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// markComplete обновляет статус записи журнала в рамках транзакции из контекста.
func (c *CheckpointRepo) markComplete(ctx context.Context, hash string) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE ingest_state
		SET status = $1, completed_at = now()
		WHERE content_hash = $2;
	`

	if _, err := tx.Exec(ctx, query, StatusComplete, hash); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
