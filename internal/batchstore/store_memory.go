package batchstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// memstore is the in-process Store used when no Redis URL is configured.
type memstore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

func NewMemoryStore() Store {
	return &memstore{snaps: make(map[string]*Snapshot)}
}

func (m *memstore) Save(_ context.Context, s *Snapshot) error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return errors.New("snapshot id required")
	}
	m.mu.Lock()
	m.snaps[s.ID] = cloneSnapshot(s)
	m.mu.Unlock()
	return nil
}

func (m *memstore) Load(_ context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snaps[strings.TrimSpace(id)]
	if !ok {
		return nil, nil
	}
	return cloneSnapshot(s), nil
}

func (m *memstore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.snaps, strings.TrimSpace(id))
	m.mu.Unlock()
	return nil
}

func (m *memstore) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.snaps))
	for id := range m.snaps {
		out = append(out, id)
	}
	sortStrings(out)
	return out, nil
}

func sortStrings(s []string) { sort.Strings(s) }
