package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type IndexerHandler struct {
	indexerUsecase usecase.IndexerUC
	logger         logger.Logger
}

func NewIndexerHandler(indexerUsecase usecase.IndexerUC, logger logger.Logger) *IndexerHandler {
	return &IndexerHandler{indexerUsecase: indexerUsecase, logger: logger}
}

// getMetadata отдает метаданные записи по хэшу содержимого.
func (h *IndexerHandler) getMetadata(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	meta, err := h.indexerUsecase.GetMetadata(r.Context(), hash)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"Hash":       meta.Hash,
		"Identifier": meta.Identifier,
		"BlobURL":    meta.BlobURL,
		"Title":      meta.Title,
	})
}

// vectorPrefixExists проверяет наличие в индексе хотя бы одного ключа с префиксом.
func (h *IndexerHandler) vectorPrefixExists(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		h.logger.Warnf("%d %s: empty prefix", http.StatusBadRequest, e.ErrStatusBadRequest.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	exists, err := h.indexerUsecase.VectorPrefixExists(r.Context(), prefix)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"Exists": exists,
	})
}

// clearIndex удаляет векторный индекс вместе с документами.
func (h *IndexerHandler) clearIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.indexerUsecase.ClearIndex(r.Context()); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"Cleared": true,
	})
}
