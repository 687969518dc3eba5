package domain

// ProductRecord описывает одну строку входного каталога.
// Запись эфемерна: живёт ровно один проход пайплайна.
type ProductRecord struct {
	Identifier string // артикул каталога (ASIN)
	ImageURL   string
	Title      string
}

func NewProductRecord(identifier string, imageURL string, title string) *ProductRecord {
	return &ProductRecord{
		Identifier: identifier,
		ImageURL:   imageURL,
		Title:      title,
	}
}
