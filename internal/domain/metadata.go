package domain

// ProductMetadata — денормализованная запись метаданных, хранимая по хэшу содержимого.
type ProductMetadata struct {
	Hash       string
	Identifier string
	BlobURL    string
	Title      string
}

func NewProductMetadata(identifier string, hash string, blobURL string, title string) *ProductMetadata {
	return &ProductMetadata{
		Hash:       hash,
		Identifier: identifier,
		BlobURL:    blobURL,
		Title:      title,
	}
}
