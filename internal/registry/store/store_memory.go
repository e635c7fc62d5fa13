package store

import (
	"context"
	"sync"

	"blocktrust/internal/registry/models"
	id "blocktrust/pkg/domain"
	"blocktrust/pkg/platform/sentinel"
)

// InMemory keeps the registry state behind a single RWMutex: mutations are
// exclusive and totally ordered, reads share the lock and always observe the
// state left by the most recent completed mutation. It intentionally favors
// clarity over performance.
type InMemory struct {
	mu      sync.RWMutex
	nextID  id.TokenID
	records map[id.TokenID]models.Identity
	// active maps a fingerprint to the id of its one active record. Entries
	// are removed on retirement, so presence implies IsActive.
	active map[id.BioHash]id.TokenID
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID:  1,
		records: make(map[id.TokenID]models.Identity),
		active:  make(map[id.BioHash]id.TokenID),
	}
}

func (s *InMemory) CreateActive(_ context.Context, rec models.NewIdentity) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(rec)
}

// createLocked assigns the next id and stores the record. The duplicate check
// precedes the assignment so rejected mints never consume an id.
func (s *InMemory) createLocked(rec models.NewIdentity) (models.Identity, error) {
	if _, ok := s.active[rec.BioHash]; ok {
		return models.Identity{}, sentinel.ErrConflict
	}

	identity := models.Identity{
		ID:             s.nextID,
		Owner:          rec.Owner,
		Name:           rec.Name,
		DocumentNumber: rec.DocumentNumber,
		BioHash:        rec.BioHash,
		KYCTimestamp:   rec.KYCTimestamp,
		IsActive:       true,
		PreviousID:     rec.PreviousID,
		ApplicantID:    rec.ApplicantID,
	}
	s.records[identity.ID] = identity
	s.active[rec.BioHash] = identity.ID
	s.nextID++
	return identity, nil
}

func (s *InMemory) FindByID(_ context.Context, tokenID id.TokenID) (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[tokenID]; ok {
		return rec, nil
	}
	return models.Identity{}, sentinel.ErrNotFound
}

func (s *InMemory) FindActiveByFingerprint(_ context.Context, bioHash id.BioHash) (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokenID, ok := s.active[bioHash]
	if !ok {
		return models.Identity{}, sentinel.ErrNotFound
	}
	return s.records[tokenID], nil
}

func (s *InMemory) Deactivate(_ context.Context, tokenID id.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deactivateLocked(tokenID)
}

func (s *InMemory) deactivateLocked(tokenID id.TokenID) error {
	rec, ok := s.records[tokenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !rec.IsActive {
		return sentinel.ErrInvalidState
	}
	rec.IsActive = false
	s.records[tokenID] = rec
	delete(s.active, rec.BioHash)
	return nil
}

func (s *InMemory) Reissue(_ context.Context, previousID id.TokenID, rec models.NewIdentity) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deactivateLocked(previousID); err != nil {
		return models.Identity{}, err
	}
	return s.createLocked(rec)
}
