package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

// Store keeps the snapshot in process memory; it is lost on restart.
type Store struct {
	mu    sync.RWMutex
	snap  *domain.RuntimeSnapshot
	saves int
}

func New() *Store {
	return &Store{}
}

func (m *Store) Load(ctx context.Context) (*domain.RuntimeSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, nil
	}
	c := m.snap.Clone()
	return &c, nil
}

func (m *Store) Save(ctx context.Context, snap domain.RuntimeSnapshot) error {
	c := snap.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &c
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *Store) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
