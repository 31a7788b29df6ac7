package usecase

import (
	"fmt"

	"vecdb/internal/domain"
)

// OwnerGuard admits only the current owner.
type OwnerGuard struct{}

func (OwnerGuard) Authorize(caller domain.Identity, owner *domain.Identity) error {
	if owner == nil || *owner != caller {
		return fmt.Errorf("%w: %s is not the owner", domain.ErrUnauthorized, caller)
	}
	return nil
}

// NoopRandom is a randomness source that yields zero bytes.
type NoopRandom struct{}

func (NoopRandom) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
