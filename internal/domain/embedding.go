package domain

// Embedding представляет результат векторизации одной пары (изображение, текст).
// Hash — детерминированный отпечаток содержимого изображения; служит первичным
// ключом во всех трёх хранилищах.
type Embedding struct {
	Hash   string
	Vector []float32
}

func NewEmbedding(hash string, vector []float32) *Embedding {
	return &Embedding{
		Hash:   hash,
		Vector: vector,
	}
}
