package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(indexerUC usecase.IndexerUC) {
	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	r.router.Route("/api/v1", func(v1 chi.Router) {
		handler := NewIndexerHandler(indexerUC, r.logger)
		registerIndexerRoutes(v1, handler)
	})
}

func registerIndexerRoutes(router chi.Router, handler *IndexerHandler) {
	router.Route("/metadata", func(m chi.Router) {
		m.Get("/{hash}", handler.getMetadata)
	})
	router.Route("/vectors", func(v chi.Router) {
		v.Get("/exists", handler.vectorPrefixExists)
	})
	router.Route("/index", func(i chi.Router) {
		i.Delete("/", handler.clearIndex)
	})
}
