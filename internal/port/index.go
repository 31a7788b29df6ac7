package port

import "vecdb/internal/domain"

// ContentHasher derives the identifier of a document from its content.
type ContentHasher interface {
	Hash(content string) domain.ID
}

// SpatialIndex stores fixed-dimension vectors with an identifier payload.
type SpatialIndex interface {
	Add(vector []float32, id domain.ID) error

	// Remove drops points equal to vector that carry id and returns how
	// many were removed. Zero is not an error.
	Remove(vector []float32, id domain.ID) (int, error)

	// RemoveLatest drops only the most recently added such point.
	RemoveLatest(vector []float32, id domain.ID) (bool, error)

	// NearestN returns up to k neighbors in ascending distance.
	NearestN(vector []float32, k int) ([]domain.Neighbor, error)

	Len() int
	Reset()
}

// ContentMap resolves identifiers to content.
type ContentMap interface {
	Insert(id domain.ID, content string)
	Remove(id domain.ID)
	Get(id domain.ID) (string, bool)
	Len() int
	Reset()
}
