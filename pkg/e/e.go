package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrEmptyVectors         = fmt.Errorf("empty vectors")
	ErrVectorEmbeddingEmpty = fmt.Errorf("vector embedding is empty")
	ErrBatchLengthMismatch  = fmt.Errorf("batch length mismatch")
	ErrResultCountMismatch  = fmt.Errorf("result count does not match request")

	// Ошибки пайплайна
	ErrNoRecords        = fmt.Errorf("no records to process")
	ErrRecordIncomplete = fmt.Errorf("record processing incomplete")

	// 400 Bad Request
	ErrHashRequired     = fmt.Errorf("content hash is required")
	ErrStatusBadRequest = fmt.Errorf("bad request")

	// 404 Not Found
	ErrMetadataNotFound = fmt.Errorf("metadata not found")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
