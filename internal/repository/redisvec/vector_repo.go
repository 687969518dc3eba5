package redisvec

import (
	"context"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/float16"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// Имена полей записи индекса
const (
	fieldTag    = "tag"
	fieldVector = "vector"
)

// RedisAPI — подмножество клиента Redis, используемое репозиторием.
type RedisAPI interface {
	FTInfo(ctx context.Context, index string) *r.FTInfoCmd
	FTCreate(ctx context.Context, index string, options *r.FTCreateOptions, schema ...*r.FieldSchema) *r.StatusCmd
	FTDropIndexWithArgs(ctx context.Context, index string, options *r.FTDropIndexOptions) *r.StatusCmd
	Exists(ctx context.Context, keys ...string) *r.IntCmd
	HSet(ctx context.Context, key string, values ...interface{}) *r.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *r.ScanCmd
}

// VectorRepo владеет поисковым индексом эмбеддингов в Redis.
// Записи — хэши с полями tag и vector, ключи под общим префиксом.
type VectorRepo struct {
	client RedisAPI
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewVectorRepo(client RedisAPI, cfg *cfg.RedisCfg, logger logger.Logger) *VectorRepo {
	return &VectorRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// EnsureIndex подтверждает существование индекса (FT.INFO) и при неудаче создаёт
// его: тег-поле и векторное поле FLAT/COSINE фиксированной размерности,
// ограниченный ключами с настроенным префиксом.
func (v *VectorRepo) EnsureIndex(ctx context.Context) error {
	if _, err := v.client.FTInfo(ctx, v.cfg.Index).Result(); err == nil {
		v.logger.Infof("found vector index: %s", v.cfg.Index)
		return nil
	}

	return v.createIndex(ctx)
}

func (v *VectorRepo) createIndex(ctx context.Context) error {
	// Тип поля FLOAT16 соответствует кодировке, в которой векторы реально
	// лежат в хэшах (см. Upsert).
	schema := []*r.FieldSchema{
		{
			FieldName: fieldTag,
			FieldType: r.SearchFieldTypeTag,
		},
		{
			FieldName: fieldVector,
			FieldType: r.SearchFieldTypeVector,
			VectorArgs: &r.FTVectorArgs{
				FlatOptions: &r.FTFlatOptions{
					Type:           "FLOAT16",
					Dim:            v.cfg.VectorDim,
					DistanceMetric: "COSINE",
				},
			},
		},
	}

	options := &r.FTCreateOptions{
		OnHash: true,
		Prefix: []interface{}{v.cfg.HashPrefix},
	}

	if err := v.client.FTCreate(ctx, v.cfg.Index, options, schema...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	v.logger.Infof("vector index created: %s", v.cfg.Index)
	return nil
}

// Upsert пишет эмбеддинги в индекс с дедупликацией по хэшу содержимого:
// существующий ключ никогда не перезаписывается. Расхождение длин hashes и
// vectors отклоняет весь батч без единой записи. Ошибка хранилища на отдельном
// элементе логируется и не прерывает остальной батч.
func (v *VectorRepo) Upsert(ctx context.Context, req *usecase.UpsertEmbeddingsReq) ([]usecase.ItemResult, error) {
	const op = "VectorRepo.Upsert"

	if len(req.Hashes) != len(req.Vectors) {
		v.logger.Errorf(e.ErrBatchLengthMismatch, "%s: hashes=%d vectors=%d", op, len(req.Hashes), len(req.Vectors))
		return nil, e.Wrap(op, e.ErrBatchLengthMismatch)
	}

	results := make([]usecase.ItemResult, 0, len(req.Hashes))
	for i, hash := range req.Hashes {
		key := v.entryKey(hash)

		n, err := v.client.Exists(ctx, key).Result()
		if err != nil {
			v.logger.Warnf("%s: existence check failed for %s: %v", op, hash, err)
			results = append(results, usecase.ItemResult{Hash: hash, Status: usecase.ItemFailed, Err: err})
			continue
		}

		if n > 0 {
			v.logger.Infof("hash %s already exists in the index", hash)
			results = append(results, usecase.ItemResult{Hash: hash, Status: usecase.ItemSkipped})
			continue
		}

		fields := map[string]interface{}{
			fieldTag:    req.Tag,
			fieldVector: float16.Encode(req.Vectors[i]),
		}
		if err := v.client.HSet(ctx, key, fields).Err(); err != nil {
			v.logger.Warnf("%s: write failed for %s: %v", op, hash, err)
			results = append(results, usecase.ItemResult{Hash: hash, Status: usecase.ItemFailed, Err: err})
			continue
		}

		v.logger.Infof("embedding uploaded to vector index: hash=%s", hash)
		results = append(results, usecase.ItemResult{Hash: hash, Status: usecase.ItemOK})
	}

	return results, nil
}

// PrefixExists сообщает, существует ли хотя бы один ключ с данным префиксом.
// Использует SCAN вместо KEYS, чтобы не блокировать хранилище.
func (v *VectorRepo) PrefixExists(ctx context.Context, prefix string) (bool, error) {
	iter := v.client.Scan(ctx, 0, prefix+"*", 1).Iterator()
	if iter.Next(ctx) {
		return true, nil
	}

	if err := iter.Err(); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return false, nil
}

// Clear удаляет индекс вместе со всеми записями. Деструктивная операция без подтверждения.
func (v *VectorRepo) Clear(ctx context.Context) error {
	if err := v.client.FTDropIndexWithArgs(ctx, v.cfg.Index, &r.FTDropIndexOptions{
		DeleteDocs: true,
	}).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	v.logger.Infof("vector index cleared: %s", v.cfg.Index)
	return nil
}

// entryKey возвращает ключ записи индекса для хэша содержимого.
func (v *VectorRepo) entryKey(hash string) string {
	return v.cfg.HashPrefix + hash
}
