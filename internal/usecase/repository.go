package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-indexer/internal/domain"
)

type VectorRepository interface {
	// EnsureIndex подтверждает существование индекса либо создает его с фиксированной схемой.
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, req *UpsertEmbeddingsReq) ([]ItemResult, error)
	PrefixExists(ctx context.Context, prefix string) (bool, error)
	Clear(ctx context.Context) error
}

type ImageRepository interface {
	// Stat различает "объект есть", "объекта нет" и ошибку транспорта.
	Stat(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type MetadataRepository interface {
	Insert(ctx context.Context, meta *domain.ProductMetadata) error
	// Get возвращает запись и признак её существования; ошибка транспорта
	// не схлопывается в "не найдено".
	Get(ctx context.Context, hash string) (*domain.ProductMetadata, bool, error)
}

type CheckpointRepository interface {
	// Begin регистрирует хэш в write-ahead журнале.
	// Возвращает true, если запись уже помечена завершённой.
	Begin(ctx context.Context, hash string, identifier string) (bool, error)
	// Complete помечает запись завершённой и кладёт outbox-событие в одной транзакции.
	Complete(ctx context.Context, req *CompleteRecordReq) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
