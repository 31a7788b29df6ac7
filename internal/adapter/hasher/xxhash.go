package hasher

import (
	"github.com/cespare/xxhash/v2"
	"vecdb/internal/domain"
)

// docTag prefixes the hashed bytes so document identifiers live in their
// own namespace.
const docTag = "doc:"

// XXHasher derives document identifiers with xxHash64. The digest has no
// seed, so identifiers are stable across processes and machines.
type XXHasher struct{}

func NewXXHasher() XXHasher {
	return XXHasher{}
}

// Hash returns the identifier for content. Identical content always maps
// to the same identifier; distinct content may collide.
func (XXHasher) Hash(content string) domain.ID {
	d := xxhash.New()
	d.WriteString(docTag)
	d.WriteString(content)
	return domain.ID(d.Sum64())
}
