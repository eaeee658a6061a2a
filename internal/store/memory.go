package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"burnote.share/internal/models"
)

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	shares map[string]*models.Share
	mu     sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shares: make(map[string]*models.Share),
	}
}

func (s *MemoryStore) Save(ctx context.Context, share *models.Share) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *share
	s.shares[share.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	share, ok := s.shares[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a snapshot so callers never observe a concurrent increment
	// half-applied.
	cp := *share
	return &cp, nil
}

func (s *MemoryStore) ConditionalIncrementView(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	share, ok := s.shares[id]
	if !ok {
		return 0, ErrNotFound
	}

	if share.Exhausted() {
		return 0, ErrQuotaExceeded
	}

	share.ViewCount++
	return share.ViewCount, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shares[id]; !ok {
		return ErrNotFound
	}

	delete(s.shares, id)
	return nil
}

func (s *MemoryStore) DeleteExpiredBefore(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, share := range s.shares {
		if share.Expired(now) {
			delete(s.shares, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*models.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shares := make([]*models.Share, 0, len(s.shares))
	for _, share := range s.shares {
		cp := *share
		shares = append(shares, &cp)
	}

	sort.Slice(shares, func(i, j int) bool {
		return shares[i].CreatedAt.After(shares[j].CreatedAt)
	})
	return shares, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shares = nil
	return nil
}
