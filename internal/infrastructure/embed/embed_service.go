package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/jitter"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
)

// EmbedService — клиент внешнего inference-сервиса эмбеддингов (HTTP/JSON).
type EmbedService struct {
	httpClient *http.Client
	url        string
	maxRetries int
	logger     logger.Logger
}

func NewEmbedService(cfg *cfg.EmbedCfg, logger logger.Logger) *EmbedService {
	return &EmbedService{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// Формат запроса/ответа inference-сервиса; результаты выровнены с входом по позициям.
type embedRequest struct {
	ImageURLs []string `json:"image_urls"`
	Texts     []string `json:"texts"`
}

type embedResult struct {
	Embedding []float32 `json:"embedding"`
	ImageHash string    `json:"image_hash"`
}

type embedResponse struct {
	Results []embedResult `json:"results"`
}

// EmbedBatch векторизует батч пар (изображение, текст) с retry-логикой и
// экспоненциальной задержкой. Расхождение длин последовательностей — ошибка вызывающего.
func (s *EmbedService) EmbedBatch(ctx context.Context, req *usecase.EmbedReq) ([]usecase.EmbedRes, error) {
	const (
		op         = "EmbedService.EmbedBatch"
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	if len(req.ImageURLs) != len(req.Texts) {
		return nil, e.Wrap(op, e.ErrBatchLengthMismatch)
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		results, err := s.embedOnce(ctx, req)
		if err == nil {
			return results, nil
		}
		lastErr = err

		if attempt == s.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		s.logger.Warnf("embedding call failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", s.maxRetries, lastErr))
}

// embedOnce выполняет один вызов inference-сервиса.
// Не-2xx статус или некорректное тело — жёсткая ошибка вызова.
func (s *EmbedService) embedOnce(ctx context.Context, req *usecase.EmbedReq) ([]usecase.EmbedRes, error) {
	const op = "EmbedService.embedOnce"

	body, err := json.Marshal(embedRequest{
		ImageURLs: req.ImageURLs,
		Texts:     req.Texts,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, e.Wrap(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(parsed.Results) != len(req.ImageURLs) {
		return nil, e.Wrap(op, e.ErrResultCountMismatch)
	}

	results := make([]usecase.EmbedRes, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		results = append(results, *usecase.NewEmbedRes(res.ImageHash, res.Embedding))
	}

	return results, nil
}
