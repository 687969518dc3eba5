package usecase

import (
	"time"

	"github.com/DRSN-tech/catalog-indexer/internal/domain"
)

// PIPELINE

// IndexCatalogReq — запрос на индексацию каталога продуктов.
type IndexCatalogReq struct {
	Records []domain.ProductRecord
}

// RunSummary — итог прогона пайплайна по всем записям.
type RunSummary struct {
	Indexed int
	Skipped int
	Failed  int
}

// Stage — этап обработки записи, на котором получен результат.
type Stage string

const (
	StageEmbed      Stage = "embed"
	StageVector     Stage = "vector"
	StageBlob       Stage = "blob"
	StageMetadata   Stage = "metadata"
	StageCheckpoint Stage = "checkpoint"
)

// ItemStatus — единый статус обработки одного элемента на любом этапе.
type ItemStatus int

const (
	ItemOK ItemStatus = iota
	ItemSkipped
	ItemFailed
)

// ItemResult — результат обработки одного элемента батча.
type ItemResult struct {
	Hash   string
	Status ItemStatus
	Err    error
}

// RecordResult — результат обработки одной записи каталога целиком.
type RecordResult struct {
	Identifier string
	Hash       string
	Status     ItemStatus
	Stage      Stage
	Err        error
}

// INFRASTRUCTURE

// EmbedReq — батч пар (изображение, текст) для векторизации.
// Последовательности выровнены по позициям и обязаны совпадать по длине.
type EmbedReq struct {
	ImageURLs []string
	Texts     []string
}

// EmbedRes — результат векторизации одной пары.
type EmbedRes struct {
	Hash   string
	Vector []float32
}

// UploadImageItem — одна пара (ссылка на изображение, хэш) для загрузки в блоб-хранилище.
type UploadImageItem struct {
	ImageURL string
	Hash     string
}

type UploadImagesReq struct {
	Items []UploadImageItem
}

// BlobResult — результат загрузки одного изображения.
// URL пустой тогда и только тогда, когда загрузка не удалась.
type BlobResult struct {
	Hash   string
	URL    string
	Status ItemStatus
	Err    error
}

// UploadImagesRes — результаты загрузки, в порядке входных элементов.
type UploadImagesRes struct {
	Results []BlobResult
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// REPOSITORIES

// UpsertEmbeddingsReq — выровненные по позициям последовательности для записи в векторный индекс.
type UpsertEmbeddingsReq struct {
	Hashes      []string
	Vectors     [][]float32
	ImageURLs   []string
	Identifiers []string
	Titles      []string
	Tag         string
}

// CompleteRecordReq — запрос на завершение записи в write-ahead журнале.
type CompleteRecordReq struct {
	Hash       string
	Identifier string
	BlobURL    string
}

// Статусы outbox-событий
const (
	Pending    = "pending"
	Processing = "processing"
	Processed  = "processed"
)

// OutboxEvent — событие "запись проиндексирована", публикуемое в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	Hash        string
	Payload     []byte
	Status      string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// MAPPERS

func NewIndexCatalogReq(records []domain.ProductRecord) *IndexCatalogReq {
	return &IndexCatalogReq{Records: records}
}

func NewEmbedReq(imageURLs []string, texts []string) *EmbedReq {
	return &EmbedReq{
		ImageURLs: imageURLs,
		Texts:     texts,
	}
}

func NewEmbedRes(hash string, vector []float32) *EmbedRes {
	return &EmbedRes{
		Hash:   hash,
		Vector: vector,
	}
}

func NewUploadImagesReq(items []UploadImageItem) *UploadImagesReq {
	return &UploadImagesReq{Items: items}
}

func NewUploadImagesRes(results []BlobResult) *UploadImagesRes {
	return &UploadImagesRes{Results: results}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

func NewCompleteRecordReq(hash string, identifier string, blobURL string) *CompleteRecordReq {
	return &CompleteRecordReq{
		Hash:       hash,
		Identifier: identifier,
		BlobURL:    blobURL,
	}
}

func NewOutboxEvent(eventID string, hash string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID: eventID,
		Hash:    hash,
		Payload: payload,
		Status:  Pending,
	}
}
