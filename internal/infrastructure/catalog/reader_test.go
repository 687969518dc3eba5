package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func newTestReader(path string, dropLast int) *Reader {
	return NewReader(&cfg.IngestCfg{
		FilePath:     path,
		IDColumn:     "ASIN",
		ImageColumn:  "amazon_product_images_url",
		TitleColumn:  "amazon_product_title",
		DropLastRows: dropLast,
	}, logger.NewSlogLogger())
}

func TestReadAllMapsConfiguredColumns(t *testing.T) {
	path := writeCatalog(t, `price,ASIN,amazon_product_title,amazon_product_images_url
9.99,B001,First product,http://img/1.jpg
19.99,B002,Second product,http://img/2.jpg
`)

	records, err := newTestReader(path, 0).ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Identifier != "B001" || records[0].ImageURL != "http://img/1.jpg" || records[0].Title != "First product" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Identifier != "B002" {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestReadAllDropsTrailingRows(t *testing.T) {
	path := writeCatalog(t, `ASIN,amazon_product_title,amazon_product_images_url
B001,First,http://img/1.jpg
B002,Second,http://img/2.jpg
B003,Truncated tail,http://img/3.jpg
`)

	records, err := newTestReader(path, 1).ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 after dropping last row", len(records))
	}
	if records[len(records)-1].Identifier != "B002" {
		t.Errorf("last record = %+v", records[len(records)-1])
	}
}

func TestReadAllDropsRawFooterNotValidRecords(t *testing.T) {
	// Отбрасывается именно последняя строка файла: неполный футер уходит
	// под нож, а пригодные записи перед ним остаются нетронутыми.
	path := writeCatalog(t, `ASIN,amazon_product_title,amazon_product_images_url
B001,First,http://img/1.jpg
B002,Second,http://img/2.jpg
,,
`)

	records, err := newTestReader(path, 1).ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2: footer row should be the dropped row", len(records))
	}
	if records[0].Identifier != "B001" || records[1].Identifier != "B002" {
		t.Errorf("records = %+v", records)
	}
}

func TestReadAllSkipsIncompleteRows(t *testing.T) {
	path := writeCatalog(t, `ASIN,amazon_product_title,amazon_product_images_url
B001,First,http://img/1.jpg
B002,,http://img/2.jpg
,Missing id,http://img/3.jpg
B004,Fourth,
B005,Fifth,http://img/5.jpg
`)

	records, err := newTestReader(path, 0).ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 complete rows", len(records))
	}
	if records[0].Identifier != "B001" || records[1].Identifier != "B005" {
		t.Errorf("records = %+v", records)
	}
}

func TestReadAllMissingColumn(t *testing.T) {
	path := writeCatalog(t, `ASIN,amazon_product_title
B001,First
`)

	if _, err := newTestReader(path, 0).ReadAll(context.Background()); err == nil {
		t.Fatal("expected error for missing image column")
	}
}

func TestReadAllEmptyAfterDrop(t *testing.T) {
	path := writeCatalog(t, `ASIN,amazon_product_title,amazon_product_images_url
B001,Only,http://img/1.jpg
`)

	_, err := newTestReader(path, 1).ReadAll(context.Background())
	if !errors.Is(err, e.ErrNoRecords) {
		t.Fatalf("error = %v, want ErrNoRecords", err)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	if _, err := newTestReader("/nonexistent/catalog.csv", 0).ReadAll(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
