package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/domain"
	"github.com/DRSN-tech/catalog-indexer/internal/usecase"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
)

type fakeImageRepo struct {
	existing map[string]bool
	statErr  error
	upErr    error
	uploaded []*domain.Image
}

func (f *fakeImageRepo) Stat(_ context.Context, key string) (bool, error) {
	if f.statErr != nil {
		return false, f.statErr
	}
	return f.existing[key], nil
}

func (f *fakeImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	if f.upErr != nil {
		return "", f.upErr
	}
	f.uploaded = append(f.uploaded, image)
	return image.ObjectKey, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeImageRepo) PublicURL(key string) string {
	return "https://bucket.s3.amazonaws.com/" + key
}

func newTestInfra(repo usecase.ImageRepository) *BlobInfrastructure {
	return NewBlobInfrastructure(repo, &cfg.MinIOCfg{BucketName: "bucket"}, logger.NewSlogLogger())
}

func TestUploadImagesFetchesAndStores(t *testing.T) {
	var fetches int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches++
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	repo := &fakeImageRepo{existing: map[string]bool{}}
	infra := newTestInfra(repo)

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq([]usecase.UploadImageItem{
		{ImageURL: server.URL + "/a.jpg", Hash: "aaa"},
	}))
	if err != nil {
		t.Fatalf("UploadImages error: %v", err)
	}

	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
	if len(repo.uploaded) != 1 {
		t.Fatalf("uploads = %d, want 1", len(repo.uploaded))
	}
	img := repo.uploaded[0]
	if img.ObjectKey != "aaa.jpg" {
		t.Errorf("object key = %q, want aaa.jpg", img.ObjectKey)
	}
	if string(img.Bytes) != "jpeg-bytes" {
		t.Errorf("payload = %q", img.Bytes)
	}

	result := res.Results[0]
	if result.Status != usecase.ItemOK {
		t.Errorf("status = %v, want ItemOK", result.Status)
	}
	if result.URL != "https://bucket.s3.amazonaws.com/aaa.jpg" {
		t.Errorf("url = %q", result.URL)
	}
}

func TestUploadImagesExistingObjectShortCircuits(t *testing.T) {
	var fetches int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches++
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	repo := &fakeImageRepo{existing: map[string]bool{"aaa.jpg": true}}
	infra := newTestInfra(repo)

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq([]usecase.UploadImageItem{
		{ImageURL: server.URL + "/a.jpg", Hash: "aaa"},
	}))
	if err != nil {
		t.Fatalf("UploadImages error: %v", err)
	}

	// Существующий объект не скачивается и не перезаписывается
	if fetches != 0 {
		t.Errorf("fetches = %d, want 0", fetches)
	}
	if len(repo.uploaded) != 0 {
		t.Errorf("uploads = %d, want 0", len(repo.uploaded))
	}

	result := res.Results[0]
	if result.Status != usecase.ItemSkipped {
		t.Errorf("status = %v, want ItemSkipped", result.Status)
	}
	if result.URL != "https://bucket.s3.amazonaws.com/aaa.jpg" {
		t.Errorf("url = %q", result.URL)
	}
}

func TestUploadImagesStatErrorFailsItem(t *testing.T) {
	repo := &fakeImageRepo{statErr: errors.New("connection refused")}
	infra := newTestInfra(repo)

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq([]usecase.UploadImageItem{
		{ImageURL: "http://img/a.jpg", Hash: "aaa"},
	}))
	if err != nil {
		t.Fatalf("UploadImages error: %v", err)
	}

	// Ошибка транспорта не трактуется как "объекта нет"
	result := res.Results[0]
	if result.Status != usecase.ItemFailed {
		t.Errorf("status = %v, want ItemFailed", result.Status)
	}
	if result.URL != "" {
		t.Errorf("url = %q, want empty on failure", result.URL)
	}
}

func TestUploadImagesDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	repo := &fakeImageRepo{existing: map[string]bool{}}
	infra := newTestInfra(repo)

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq([]usecase.UploadImageItem{
		{ImageURL: server.URL + "/missing.jpg", Hash: "aaa"},
	}))
	if err != nil {
		t.Fatalf("UploadImages error: %v", err)
	}

	if res.Results[0].Status != usecase.ItemFailed {
		t.Errorf("status = %v, want ItemFailed", res.Results[0].Status)
	}
	if len(repo.uploaded) != 0 {
		t.Errorf("uploads = %d, want 0", len(repo.uploaded))
	}
}

func TestUploadImagesPreservesOrderAndIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.jpg" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	repo := &fakeImageRepo{existing: map[string]bool{}}
	infra := newTestInfra(repo)

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq([]usecase.UploadImageItem{
		{ImageURL: server.URL + "/ok1.jpg", Hash: "h1"},
		{ImageURL: server.URL + "/bad.jpg", Hash: "h2"},
		{ImageURL: server.URL + "/ok2.jpg", Hash: "h3"},
	}))
	if err != nil {
		t.Fatalf("UploadImages error: %v", err)
	}

	if len(res.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(res.Results))
	}
	wantStatus := []usecase.ItemStatus{usecase.ItemOK, usecase.ItemFailed, usecase.ItemOK}
	for i, want := range wantStatus {
		if res.Results[i].Status != want {
			t.Errorf("result %d status = %v, want %v", i, res.Results[i].Status, want)
		}
	}
	if res.Results[0].Hash != "h1" || res.Results[2].Hash != "h3" {
		t.Errorf("order broken: %q, %q", res.Results[0].Hash, res.Results[2].Hash)
	}
}
