package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/DRSN-tech/catalog-indexer/internal/cfg"
	"github.com/DRSN-tech/catalog-indexer/internal/domain"
	"github.com/DRSN-tech/catalog-indexer/pkg/e"
	"github.com/DRSN-tech/catalog-indexer/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Reader читает каталог из CSV-файла и отдает записи для индексации.
// Колонки идентификатора, изображения и названия настраиваются; последние
// N сырых строк файла отбрасываются (хвост выгрузки обычно обрезан).
type Reader struct {
	filePath     string
	idColumn     string
	imageColumn  string
	titleColumn  string
	dropLastRows int
	logger       logger.Logger
}

func NewReader(cfg *cfg.IngestCfg, logger logger.Logger) *Reader {
	return &Reader{
		filePath:     cfg.FilePath,
		idColumn:     cfg.IDColumn,
		imageColumn:  cfg.ImageColumn,
		titleColumn:  cfg.TitleColumn,
		dropLastRows: cfg.DropLastRows,
		logger:       logger,
	}
}

// ReadAll загружает весь каталог в память. Хвостовые строки отбрасываются
// до какой-либо валидации: именно последние строки файла, а не последние
// пригодные записи. Оставшиеся неполные строки (пустой идентификатор, URL
// или название) пропускаются с предупреждением.
func (r *Reader) ReadAll(ctx context.Context) ([]domain.ProductRecord, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	idIdx, imageIdx, titleIdx, err := r.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, e.Wrap(whereami.WhereAmI(), ctx.Err())
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		rows = append(rows, row)
	}

	if r.dropLastRows > 0 {
		if len(rows) <= r.dropLastRows {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoRecords)
		}
		rows = rows[:len(rows)-r.dropLastRows]
	}

	records := make([]domain.ProductRecord, 0, len(rows))
	for i, row := range rows {
		record, ok := r.buildRecord(row, idIdx, imageIdx, titleIdx)
		if !ok {
			// +2: заголовок и нумерация строк файла с единицы
			r.logger.Warnf("skipping incomplete catalog row %d", i+2)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrNoRecords)
	}

	r.logger.Infof("catalog loaded: %d records from %s", len(records), r.filePath)
	return records, nil
}

func (r *Reader) resolveColumns(header []string) (int, int, int, error) {
	idIdx, imageIdx, titleIdx := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case r.idColumn:
			idIdx = i
		case r.imageColumn:
			imageIdx = i
		case r.titleColumn:
			titleIdx = i
		}
	}

	if idIdx < 0 || imageIdx < 0 || titleIdx < 0 {
		return 0, 0, 0, e.Wrap(whereami.WhereAmI(), e.ErrRecordIncomplete)
	}
	return idIdx, imageIdx, titleIdx, nil
}

func (r *Reader) buildRecord(row []string, idIdx, imageIdx, titleIdx int) (domain.ProductRecord, bool) {
	maxIdx := idIdx
	if imageIdx > maxIdx {
		maxIdx = imageIdx
	}
	if titleIdx > maxIdx {
		maxIdx = titleIdx
	}
	if len(row) <= maxIdx {
		return domain.ProductRecord{}, false
	}

	identifier := strings.TrimSpace(row[idIdx])
	imageURL := strings.TrimSpace(row[imageIdx])
	title := strings.TrimSpace(row[titleIdx])
	if identifier == "" || imageURL == "" || title == "" {
		return domain.ProductRecord{}, false
	}

	return *domain.NewProductRecord(identifier, imageURL, title), true
}
