package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scanFunc наполняет назначения одного rows.Scan.
type scanFunc func(dest ...any) error

// fakeRows покрывает только итерацию и скан; остальные методы pgx.Rows
// приходят из встроенного интерфейса и в тестах не вызываются.
type fakeRows struct {
	pgx.Rows
	scans  []scanFunc
	cursor int
	closed bool
}

func (r *fakeRows) Next() bool {
	return r.cursor < len(r.scans)
}

func (r *fakeRows) Scan(dest ...any) error {
	fn := r.scans[r.cursor]
	r.cursor++
	return fn(dest...)
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     { r.closed = true }

type fakeTx struct {
	pgx.Tx
	rows       pgx.Rows
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return t.rows, nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.rolledBack = true
	return nil
}

type fakePool struct {
	tx   *fakeTx
	exec []string
}

func (p *fakePool) Begin(_ context.Context) (pgx.Tx, error) {
	return p.tx, nil
}

func (p *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.exec = append(p.exec, sql)
	return pgconn.CommandTag{}, nil
}

func eventScan(id int64, eventID, hash string) scanFunc {
	return func(dest ...any) error {
		*dest[0].(*int64) = id
		*dest[1].(*string) = eventID
		*dest[2].(*string) = hash
		*dest[3].(*[]byte) = []byte(`{}`)
		*dest[4].(*string) = usecase.Processing
		*dest[5].(*time.Time) = time.Now()
		*dest[6].(*sql.NullTime) = sql.NullTime{}
		return nil
	}
}

func TestGetAndMarkAsProcessingReturnsBatch(t *testing.T) {
	tx := &fakeTx{rows: &fakeRows{scans: []scanFunc{
		eventScan(1, "evt-1", "hash-1"),
		eventScan(2, "evt-2", "hash-2"),
	}}}
	repo := NewOutboxEventRepo(&fakePool{tx: tx})

	events, err := repo.GetAndMarkAsProcessing(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetAndMarkAsProcessing error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Hash != "hash-1" || events[1].Hash != "hash-2" {
		t.Errorf("hashes = %q, %q", events[0].Hash, events[1].Hash)
	}
	if !tx.committed {
		t.Error("transaction not committed on success")
	}
	if tx.rolledBack {
		t.Error("transaction rolled back on success")
	}
}

func TestGetAndMarkAsProcessingScanFailureRollsBack(t *testing.T) {
	tx := &fakeTx{rows: &fakeRows{scans: []scanFunc{
		func(_ ...any) error { return errors.New("scan failed") },
	}}}
	repo := NewOutboxEventRepo(&fakePool{tx: tx})

	if _, err := repo.GetAndMarkAsProcessing(context.Background(), 10); err == nil {
		t.Fatal("expected scan error")
	}

	// Ошибка скана откатывает транзакцию, а не бросает её висеть до возврата соединения
	if !tx.rolledBack {
		t.Error("transaction not rolled back after scan failure")
	}
	if tx.committed {
		t.Error("transaction committed after scan failure")
	}
}

func TestMarkAsProcessed(t *testing.T) {
	pool := &fakePool{}
	repo := NewOutboxEventRepo(pool)

	if err := repo.MarkAsProcessed(context.Background(), 7); err != nil {
		t.Fatalf("MarkAsProcessed error: %v", err)
	}
	if len(pool.exec) != 1 {
		t.Fatalf("exec calls = %d, want 1", len(pool.exec))
	}
}
