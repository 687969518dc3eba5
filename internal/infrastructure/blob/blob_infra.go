package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/domain"
	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
)

const imageContentType = "image/jpeg"

// BlobInfrastructure управляет контентно-адресуемой загрузкой изображений:
// проверка существования по ключу, скачивание исходника по ссылке, запись в хранилище.
type BlobInfrastructure struct {
	imageRepo  usecase.ImageRepository
	httpClient *http.Client
	cfg        *cfg.MinIOCfg
	logger     logger.Logger
}

func NewBlobInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger) *BlobInfrastructure {
	return &BlobInfrastructure{
		imageRepo:  imageRepo,
		httpClient: &http.Client{},
		cfg:        cfg,
		logger:     logger,
	}
}

// UploadImages обрабатывает пары (ссылка, хэш) последовательно, сохраняя порядок
// входа в результатах. Ошибка отдельного элемента логируется и отражается в его
// результате (пустой URL), не прерывая остальной батч.
func (b *BlobInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	results := make([]usecase.BlobResult, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, b.uploadOne(ctx, item))
	}

	return usecase.NewUploadImagesRes(results), nil
}

// uploadOne загружает одно изображение. Существующий объект не скачивается и не
// перезаписывается: возвращается адрес уже сохранённой копии.
func (b *BlobInfrastructure) uploadOne(ctx context.Context, item usecase.UploadImageItem) usecase.BlobResult {
	const op = "BlobInfrastructure.uploadOne"

	key := objectKey(item.Hash)

	exists, err := b.imageRepo.Stat(ctx, key)
	if err != nil {
		b.logger.Warnf("%s: existence check failed for %s: %v", op, item.Hash, err)
		return usecase.BlobResult{Hash: item.Hash, Status: usecase.ItemFailed, Err: err}
	}

	if exists {
		url := b.imageRepo.PublicURL(key)
		b.logger.Infof("image with hash %s already exists: %s", item.Hash, url)
		return usecase.BlobResult{Hash: item.Hash, URL: url, Status: usecase.ItemSkipped}
	}

	data, err := b.download(ctx, item.ImageURL)
	if err != nil {
		b.logger.Warnf("%s: download failed for %s: %v", op, item.ImageURL, err)
		return usecase.BlobResult{Hash: item.Hash, Status: usecase.ItemFailed, Err: err}
	}

	size := int64(len(data))
	contentType := imageContentType
	image := domain.NewImage(item.Hash, b.cfg.BucketName, key, data, &size, &contentType)

	uploadedKey, err := b.imageRepo.Upload(ctx, image)
	if err != nil {
		b.logger.Warnf("%s: upload failed for %s: %v", op, item.Hash, err)
		return usecase.BlobResult{Hash: item.Hash, Status: usecase.ItemFailed, Err: err}
	}

	url := b.imageRepo.PublicURL(uploadedKey)
	b.logger.Infof("image uploaded: %s", url)
	return usecase.BlobResult{Hash: item.Hash, URL: url, Status: usecase.ItemOK}
}

// download скачивает исходное изображение по внешней ссылке.
func (b *BlobInfrastructure) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to download image from %s: status %d", imageURL, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// objectKey возвращает канонический ключ объекта для хэша содержимого.
func objectKey(hash string) string {
	return hash + ".jpg"
}
