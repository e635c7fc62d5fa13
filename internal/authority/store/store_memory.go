package store

import (
	"context"
	"sort"
	"sync"

	"blocktrust/internal/authority/models"
	id "blocktrust/pkg/domain"
	"blocktrust/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded authority store for tests and local runs.
type InMemory struct {
	mu     sync.RWMutex
	grants map[id.Account]models.Grant
}

func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[id.Account]models.Grant)}
}

func (s *InMemory) Grant(_ context.Context, grant models.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[grant.Account]; ok {
		return sentinel.ErrConflict
	}
	s.grants[grant.Account] = grant
	return nil
}

func (s *InMemory) Revoke(_ context.Context, account id.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[account]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.grants, account)
	return nil
}

func (s *InMemory) Has(_ context.Context, account id.Account) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[account]
	return ok, nil
}

func (s *InMemory) List(_ context.Context) ([]models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}
