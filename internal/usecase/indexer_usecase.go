package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/domain"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
)

// IndexerUseCase реализует пер-записную оркестрацию пайплайна индексации:
// векторизация, затем последовательный fan-out в три независимых хранилища.
// Кросс-хранилищных транзакций нет: консистентность достигается идемпотентностью
// записей по хэшу содержимого и write-ahead журналом в Postgres.
type IndexerUseCase struct {
	vectorRepo     VectorRepository
	metadataRepo   MetadataRepository
	checkpointRepo CheckpointRepository
	embedService   EmbedServiceInfra
	blobInfra      BlobInfra
	logger         logger.Logger
	tag            string
}

func NewIndexerUC(
	vectorRepo VectorRepository,
	metadataRepo MetadataRepository,
	checkpointRepo CheckpointRepository,
	embedService EmbedServiceInfra,
	blobInfra BlobInfra,
	logger logger.Logger,
	cfg *cfg.IngestCfg,
) *IndexerUseCase {
	return &IndexerUseCase{
		vectorRepo:     vectorRepo,
		metadataRepo:   metadataRepo,
		checkpointRepo: checkpointRepo,
		embedService:   embedService,
		blobInfra:      blobInfra,
		logger:         logger,
		tag:            cfg.Tag,
	}
}

// IndexCatalog последовательно обрабатывает записи каталога: одна запись
// полностью проходит все этапы прежде, чем начнётся следующая. Ошибка одной
// записи не прерывает прогон.
func (u *IndexerUseCase) IndexCatalog(ctx context.Context, req *IndexCatalogReq) (*RunSummary, error) {
	const op = "IndexerUseCase.IndexCatalog"

	if len(req.Records) == 0 {
		return nil, e.Wrap(op, e.ErrNoRecords)
	}

	summary := &RunSummary{}
	for i := range req.Records {
		record := &req.Records[i]

		res := u.processRecord(ctx, record)
		switch res.Status {
		case ItemOK:
			summary.Indexed++
			u.logger.Infof("record indexed: identifier=%s hash=%s", res.Identifier, res.Hash)
		case ItemSkipped:
			summary.Skipped++
			u.logger.Infof("record already indexed, skipped: identifier=%s hash=%s", res.Identifier, res.Hash)
		case ItemFailed:
			summary.Failed++
			u.logger.Warnf("record failed at stage %s: identifier=%s hash=%s error=%v",
				res.Stage, res.Identifier, res.Hash, res.Err)
		}

		if ctx.Err() != nil {
			return summary, e.Wrap(op, ctx.Err())
		}
	}

	u.logger.Infof("catalog run finished: indexed=%d skipped=%d failed=%d",
		summary.Indexed, summary.Skipped, summary.Failed)

	return summary, nil
}

// processRecord проводит одну запись через все этапы. Ошибка этапа прерывает
// обработку записи: запись остаётся pending в журнале и будет повторена на
// следующем прогоне, опираясь на идемпотентность хранилищ.
func (u *IndexerUseCase) processRecord(ctx context.Context, record *domain.ProductRecord) RecordResult {
	fail := func(hash string, stage Stage, err error) RecordResult {
		return RecordResult{
			Identifier: record.Identifier,
			Hash:       hash,
			Status:     ItemFailed,
			Stage:      stage,
			Err:        err,
		}
	}

	// Векторизация: батч из одного элемента
	embedding, err := u.embed(ctx, record)
	if err != nil {
		return fail("", StageEmbed, err)
	}

	// Регистрация хэша в write-ahead журнале; завершённые хэши пропускаются целиком
	done, err := u.checkpointRepo.Begin(ctx, embedding.Hash, record.Identifier)
	if err != nil {
		// Журнал — страховка, а не источник истины: хранилища идемпотентны по хэшу
		u.logger.Warnf("checkpoint begin failed, continuing without resume guard: hash=%s error=%v",
			embedding.Hash, err)
	}
	if done {
		return RecordResult{
			Identifier: record.Identifier,
			Hash:       embedding.Hash,
			Status:     ItemSkipped,
			Stage:      StageCheckpoint,
		}
	}

	if err := u.upsertVector(ctx, record, embedding); err != nil {
		return fail(embedding.Hash, StageVector, err)
	}

	blobURL, err := u.uploadImage(ctx, record, embedding.Hash)
	if err != nil {
		return fail(embedding.Hash, StageBlob, err)
	}

	meta := domain.NewProductMetadata(record.Identifier, embedding.Hash, blobURL, record.Title)
	if err := u.metadataRepo.Insert(ctx, meta); err != nil {
		return fail(embedding.Hash, StageMetadata, err)
	}

	// Запись завершена во всех трёх хранилищах: фиксируем журнал и outbox-событие
	if err := u.checkpointRepo.Complete(ctx, NewCompleteRecordReq(embedding.Hash, record.Identifier, blobURL)); err != nil {
		// Все хранилища уже записаны; незавершённый журнал приведёт лишь к
		// повторной идемпотентной обработке на следующем прогоне
		u.logger.Warnf("checkpoint complete failed: hash=%s error=%v", embedding.Hash, err)
	}

	return RecordResult{
		Identifier: record.Identifier,
		Hash:       embedding.Hash,
		Status:     ItemOK,
	}
}

// GetMetadata возвращает метаданные по хэшу содержимого.
func (u *IndexerUseCase) GetMetadata(ctx context.Context, hash string) (*domain.ProductMetadata, error) {
	const op = "IndexerUseCase.GetMetadata"

	if hash == "" {
		return nil, e.Wrap(op, e.ErrHashRequired)
	}

	meta, found, err := u.metadataRepo.Get(ctx, hash)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !found {
		return nil, e.Wrap(op, e.ErrMetadataNotFound)
	}

	return meta, nil
}

// VectorPrefixExists сообщает, есть ли в векторном индексе хотя бы один ключ с данным префиксом.
func (u *IndexerUseCase) VectorPrefixExists(ctx context.Context, prefix string) (bool, error) {
	return u.vectorRepo.PrefixExists(ctx, prefix)
}

// ClearIndex полностью очищает векторный индекс. Административная операция без подтверждения.
func (u *IndexerUseCase) ClearIndex(ctx context.Context) error {
	return u.vectorRepo.Clear(ctx)
}

// embed запрашивает эмбеддинг для одной записи у inference-сервиса.
func (u *IndexerUseCase) embed(ctx context.Context, record *domain.ProductRecord) (*domain.Embedding, error) {
	results, err := u.embedService.EmbedBatch(ctx,
		NewEmbedReq([]string{record.ImageURL}, []string{record.Title}))
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, e.ErrEmptyVectors
	}
	if len(results[0].Vector) == 0 {
		return nil, e.ErrVectorEmbeddingEmpty
	}

	return domain.NewEmbedding(results[0].Hash, results[0].Vector), nil
}

// upsertVector пишет эмбеддинг записи в векторный индекс.
func (u *IndexerUseCase) upsertVector(ctx context.Context, record *domain.ProductRecord, embedding *domain.Embedding) error {
	results, err := u.vectorRepo.Upsert(ctx, &UpsertEmbeddingsReq{
		Hashes:      []string{embedding.Hash},
		Vectors:     [][]float32{embedding.Vector},
		ImageURLs:   []string{record.ImageURL},
		Identifiers: []string{record.Identifier},
		Titles:      []string{record.Title},
		Tag:         u.tag,
	})
	if err != nil {
		return err
	}

	if len(results) > 0 && results[0].Status == ItemFailed {
		return results[0].Err
	}

	return nil
}

// uploadImage сохраняет исходное изображение записи в блоб-хранилище и возвращает его адрес.
func (u *IndexerUseCase) uploadImage(ctx context.Context, record *domain.ProductRecord, hash string) (string, error) {
	res, err := u.blobInfra.UploadImages(ctx, NewUploadImagesReq([]UploadImageItem{
		{ImageURL: record.ImageURL, Hash: hash},
	}))
	if err != nil {
		return "", err
	}

	if len(res.Results) == 0 {
		return "", e.ErrRecordIncomplete
	}
	if res.Results[0].Status == ItemFailed {
		return "", res.Results[0].Err
	}

	return res.Results[0].URL, nil
}
