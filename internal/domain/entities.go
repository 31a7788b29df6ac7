package domain

import "github.com/google/uuid"

// DefaultDimension is the embedding dimension used when none is configured.
const DefaultDimension = 768

// ID is the content-addressed identifier of a document.
type ID uint64

// Identity names a principal known to the host (an owner or a controller).
type Identity string

type Document struct {
	Content   string    `json:"content" msgpack:"content"`
	Embedding []float32 `json:"embedding" msgpack:"embedding"`
}

type Query struct {
	Embedding []float32 `json:"embedding"`
}

type SearchResult struct {
	Content string `json:"content"`
}

// Neighbor is a point returned by the spatial index, ordered by Distance.
// Distance is squared Euclidean and only meaningful for ranking.
type Neighbor struct {
	ID       ID
	Distance float64
}

// LogRecord is a document as read back from the durable log.
type LogRecord struct {
	Position uint64
	Document Document
}

// Snapshot is the metadata persisted across restarts.
type Snapshot struct {
	Owner      *Identity `msgpack:"owner"`
	Controller *Identity `msgpack:"controller"`
	InstanceID uuid.UUID `msgpack:"instance_id"`
}

// Normalize returns a copy of v with exactly dim elements, zero-padded
// or truncated as needed.
func Normalize(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, v)
	return out
}

func IdentityPtr(s string) *Identity {
	id := Identity(s)
	return &id
}
