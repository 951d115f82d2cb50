package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/xaubot/xaubot/internal/domain"
)

// MemoryStore is the in-process position repository. A single RWMutex
// guards the map; every position that crosses the boundary is cloned,
// so callers can never race on store-owned state.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{positions: make(map[string]*domain.Position)}
}

func (s *MemoryStore) Create(ctx context.Context, p *domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	s.positions[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: position %s", domain.ErrNotFound, id)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*domain.Position, error) {
	return s.filter(func(*domain.Position) bool { return true }), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Position, error) {
	return s.filter(func(p *domain.Position) bool { return p.UserID == userID }), nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Position, error) {
	return s.filter(func(p *domain.Position) bool { return p.Status == status }), nil
}

func (s *MemoryStore) ListBySymbol(ctx context.Context, symbol domain.Symbol) ([]*domain.Position, error) {
	return s.filter(func(p *domain.Position) bool { return p.Symbol == symbol }), nil
}

func (s *MemoryStore) Update(ctx context.Context, p *domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[p.ID]; !ok {
		return fmt.Errorf("%w: position %s", domain.ErrNotFound, p.ID)
	}
	s.positions[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[id]; !ok {
		return fmt.Errorf("%w: position %s", domain.ErrNotFound, id)
	}
	delete(s.positions, id)
	return nil
}

func (s *MemoryStore) filter(keep func(*domain.Position) bool) []*domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Position
	for _, p := range s.positions {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
