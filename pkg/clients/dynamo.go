package clients

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	config "github.com/DRSN-tech/catalog-indexer/internal/cfg"
)

// NewDynamoClient создает клиент DynamoDB. При заданном cfg.Endpoint подключается
// к локальному инстансу (тесты, docker), иначе — к стандартному AWS-эндпоинту региона.
func NewDynamoClient(cfg *config.DynamoCfg) *dynamodb.Client {
	return dynamodb.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.AccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		}
	})
}
