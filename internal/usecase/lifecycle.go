package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"vecdb/internal/adapter/snapshot"
	"vecdb/internal/domain"
)

// Init establishes the metadata of a new store. owner defaults to caller.
func (s *Service) Init(caller domain.Identity, owner, controller *domain.Identity) error {
	if owner == nil {
		owner = &caller
	}
	instanceID, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return fmt.Errorf("init: generate instance id: %w", err)
	}
	s.snap = domain.Snapshot{
		Owner:      cloneIdentity(owner),
		Controller: cloneIdentity(controller),
		InstanceID: instanceID,
	}
	s.initialized = true
	s.logger.Info("store initialized", "owner", *owner, "instance", instanceID)
	return nil
}

func (s *Service) Initialized() bool {
	return s.initialized
}

func (s *Service) Owner() *domain.Identity {
	return cloneIdentity(s.snap.Owner)
}

func (s *Service) Controller() *domain.Identity {
	return cloneIdentity(s.snap.Controller)
}

func (s *Service) InstanceID() uuid.UUID {
	return s.snap.InstanceID
}

// UpdateOwner replaces the owner if the authorizer admits caller.
func (s *Service) UpdateOwner(caller, newOwner domain.Identity) error {
	if err := s.authorizer.Authorize(caller, s.snap.Owner); err != nil {
		return err
	}
	s.snap.Owner = cloneIdentity(&newOwner)
	s.initialized = true
	s.logger.Info("owner updated", "owner", newOwner)
	return nil
}

// Startup runs the startup boundary: it restores the snapshot from the
// metadata region and, when configured, rebuilds the index from the log.
// A store without a snapshot starts uninitialized. A snapshot that cannot
// be decoded is fatal.
func (s *Service) Startup(ctx context.Context) error {
	snap, err := snapshot.Restore(s.storage.Meta())
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		s.logger.Warn("no snapshot found, store is uninitialized")
	case err != nil:
		return fmt.Errorf("startup: %w", err)
	default:
		s.snap = snap
		s.initialized = true
	}

	if s.rebuild {
		if _, err := s.RebuildFromLog(ctx, nil); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	}
	return nil
}

// Shutdown runs the shutdown boundary: it serializes the snapshot into the
// metadata region. An uninitialized store leaves the region untouched.
func (s *Service) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.initialized {
		s.logger.Debug("store uninitialized, snapshot not written")
		return nil
	}
	if err := snapshot.Serialize(s.storage.Meta(), s.snap); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func cloneIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
