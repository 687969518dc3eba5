package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/domain"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/jimlawless/whereami"
)

// Имена атрибутов таблицы метаданных
const (
	attrHash    = "hash"
	attrASIN    = "asin"
	attrBlobURL = "s3_url"
	attrTitle   = "image_title"
)

// DynamoAPI — подмножество клиента DynamoDB, используемое репозиторием.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// MetadataRepo хранит денормализованные метаданные продукта по хэшу содержимого.
type MetadataRepo struct {
	client DynamoAPI
	cfg    *cfg.DynamoCfg
}

func NewMetadataRepo(client DynamoAPI, cfg *cfg.DynamoCfg) *MetadataRepo {
	return &MetadataRepo{
		client: client,
		cfg:    cfg,
	}
}

// Insert пишет запись по ключу hash. Повторная вставка с тем же хэшем
// перезаписывает предыдущую (last-write-wins, дедупликации на этом слое нет).
func (m *MetadataRepo) Insert(ctx context.Context, meta *domain.ProductMetadata) error {
	_, err := m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.cfg.TableName),
		Item: map[string]types.AttributeValue{
			attrHash:    &types.AttributeValueMemberS{Value: meta.Hash},
			attrASIN:    &types.AttributeValueMemberS{Value: meta.Identifier},
			attrBlobURL: &types.AttributeValueMemberS{Value: meta.BlobURL},
			attrTitle:   &types.AttributeValueMemberS{Value: meta.Title},
		},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Get возвращает запись по хэшу. Отсутствие записи — (nil, false, nil);
// транспортная ошибка не маскируется под "не найдено".
func (m *MetadataRepo) Get(ctx context.Context, hash string) (*domain.ProductMetadata, bool, error) {
	out, err := m.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(m.cfg.TableName),
		Key: map[string]types.AttributeValue{
			attrHash: &types.AttributeValueMemberS{Value: hash},
		},
	})
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	if out.Item == nil {
		return nil, false, nil
	}

	return &domain.ProductMetadata{
		Hash:       stringAttr(out.Item, attrHash),
		Identifier: stringAttr(out.Item, attrASIN),
		BlobURL:    stringAttr(out.Item, attrBlobURL),
		Title:      stringAttr(out.Item, attrTitle),
	}, true, nil
}

// stringAttr извлекает строковый атрибут, пустая строка для отсутствующего или нестрокового.
func stringAttr(item map[string]types.AttributeValue, name string) string {
	if attr, ok := item[name].(*types.AttributeValueMemberS); ok {
		return attr.Value
	}
	return ""
}
