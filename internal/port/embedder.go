package port

import "context"

// Embedder turns text into embeddings for hosts that do not compute
// their own.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}
