package port

import "vecdb/internal/domain"

// Authorizer decides whether caller may change the owner of a store
// currently owned by owner.
type Authorizer interface {
	Authorize(caller domain.Identity, owner *domain.Identity) error
}
