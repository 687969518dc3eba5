package redisvec

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/float16"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

// fakeRedis покрывает только команды пути Upsert; остальные методы RedisAPI
// приходят из встроенного интерфейса и в тестах не вызываются.
type fakeRedis struct {
	RedisAPI
	existing  map[string]bool
	fields    map[string]map[string]interface{}
	hsetCalls int
	existsErr error
	hsetErr   error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		existing: map[string]bool{},
		fields:   map[string]map[string]interface{}{},
	}
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *r.IntCmd {
	if f.existsErr != nil {
		return r.NewIntResult(0, f.existsErr)
	}
	var n int64
	if f.existing[keys[0]] {
		n = 1
	}
	return r.NewIntResult(n, nil)
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) *r.IntCmd {
	if f.hsetErr != nil {
		return r.NewIntResult(0, f.hsetErr)
	}
	f.hsetCalls++
	f.existing[key] = true
	if len(values) == 1 {
		if m, ok := values[0].(map[string]interface{}); ok {
			f.fields[key] = m
		}
	}
	return r.NewIntResult(1, nil)
}

func newTestRepo(client RedisAPI) *VectorRepo {
	return NewVectorRepo(client, &cfg.RedisCfg{HashPrefix: "HASH:"}, logger.NewSlogLogger())
}

func TestUpsertWritesTagAndFloat16Vector(t *testing.T) {
	client := newFakeRedis()
	repo := newTestRepo(client)

	vector := []float32{0.1, -0.2, 0.3}
	results, err := repo.Upsert(context.Background(), &usecase.UpsertEmbeddingsReq{
		Hashes:  []string{"abc"},
		Vectors: [][]float32{vector},
		Tag:     "amazon",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if len(results) != 1 || results[0].Status != usecase.ItemOK {
		t.Fatalf("results = %+v, want single ItemOK", results)
	}

	fields := client.fields["HASH:abc"]
	if fields == nil {
		t.Fatal("no hash written under HASH:abc")
	}
	if fields[fieldTag] != "amazon" {
		t.Errorf("tag = %v, want amazon", fields[fieldTag])
	}
	stored, ok := fields[fieldVector].([]byte)
	if !ok {
		t.Fatalf("vector field type = %T, want []byte", fields[fieldVector])
	}
	if !bytes.Equal(stored, float16.Encode(vector)) {
		t.Errorf("stored vector bytes differ from binary16 encoding")
	}
}

func TestUpsertSecondWriteForSameHashIsSkip(t *testing.T) {
	client := newFakeRedis()
	repo := newTestRepo(client)

	req := &usecase.UpsertEmbeddingsReq{
		Hashes:  []string{"abc"},
		Vectors: [][]float32{{0.5, 0.5}},
		Tag:     "amazon",
	}

	first, err := repo.Upsert(context.Background(), req)
	if err != nil {
		t.Fatalf("first Upsert error: %v", err)
	}
	if first[0].Status != usecase.ItemOK {
		t.Fatalf("first status = %v, want ItemOK", first[0].Status)
	}

	second, err := repo.Upsert(context.Background(), req)
	if err != nil {
		t.Fatalf("second Upsert error: %v", err)
	}

	// Повторная запись того же хэша — пропуск без единого HSET
	if second[0].Status != usecase.ItemSkipped {
		t.Errorf("second status = %v, want ItemSkipped", second[0].Status)
	}
	if client.hsetCalls != 1 {
		t.Errorf("hset calls = %d, want 1: existing key must not be rewritten", client.hsetCalls)
	}
}

func TestUpsertItemFailureDoesNotAbortBatch(t *testing.T) {
	client := newFakeRedis()
	client.existing["HASH:dup"] = true
	repo := newTestRepo(client)

	results, err := repo.Upsert(context.Background(), &usecase.UpsertEmbeddingsReq{
		Hashes:  []string{"dup", "fresh"},
		Vectors: [][]float32{{0.1}, {0.2}},
		Tag:     "amazon",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	if results[0].Status != usecase.ItemSkipped {
		t.Errorf("first status = %v, want ItemSkipped", results[0].Status)
	}
	if results[1].Status != usecase.ItemOK {
		t.Errorf("second status = %v, want ItemOK", results[1].Status)
	}
}

func TestUpsertExistsErrorFailsItemOnly(t *testing.T) {
	client := newFakeRedis()
	client.existsErr = errors.New("connection reset")
	repo := newTestRepo(client)

	results, err := repo.Upsert(context.Background(), &usecase.UpsertEmbeddingsReq{
		Hashes:  []string{"abc"},
		Vectors: [][]float32{{0.1}},
		Tag:     "amazon",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	// Ошибка транспорта не трактуется как "ключа нет"
	if results[0].Status != usecase.ItemFailed {
		t.Errorf("status = %v, want ItemFailed", results[0].Status)
	}
	if client.hsetCalls != 0 {
		t.Errorf("hset calls = %d, want 0", client.hsetCalls)
	}
}

func TestUpsertBatchLengthMismatch(t *testing.T) {
	// Расхождение длин отклоняется до первого обращения к хранилищу,
	// поэтому клиент не нужен вовсе.
	repo := newTestRepo(nil)

	results, err := repo.Upsert(context.Background(), &usecase.UpsertEmbeddingsReq{
		Hashes:  []string{"a", "b"},
		Vectors: [][]float32{{0.1}},
		Tag:     "amazon",
	})
	if !errors.Is(err, e.ErrBatchLengthMismatch) {
		t.Fatalf("error = %v, want ErrBatchLengthMismatch", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil on rejected batch", results)
	}
}

func TestEntryKey(t *testing.T) {
	repo := newTestRepo(nil)

	if got := repo.entryKey("abc123"); got != "HASH:abc123" {
		t.Errorf("entryKey = %q, want HASH:abc123", got)
	}
}
