package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-indexer/internal/domain"
)

type IndexerUC interface {
	IndexCatalog(ctx context.Context, req *IndexCatalogReq) (*RunSummary, error)
	GetMetadata(ctx context.Context, hash string) (*domain.ProductMetadata, error)
	VectorPrefixExists(ctx context.Context, prefix string) (bool, error)
	ClearIndex(ctx context.Context) error
}
