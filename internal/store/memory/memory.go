package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"shiftledger/backend/internal/store"
)

// Store keeps collection snapshots in process memory. It is used for
// development and tests when no DATABASE_URL is configured.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]map[string][]byte

	// failSaves makes the next N SaveCollections calls fail.
	failSaves int
}

var ErrInjected = errors.New("memory store: injected save failure")

func New() *Store {
	return &Store{tenants: make(map[string]map[string][]byte)}
}

func (s *Store) LoadCollections(ctx context.Context, tenantID string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.tenants[tenantID]))
	for key, data := range s.tenants[tenantID] {
		out[key] = slices.Clone(data)
	}
	return out, nil
}

func (s *Store) SaveCollections(ctx context.Context, tenantID string, snapshots []store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSaves > 0 {
		s.failSaves--
		return ErrInjected
	}
	next := maps.Clone(s.tenants[tenantID])
	if next == nil {
		next = make(map[string][]byte, len(snapshots))
	}
	for _, snap := range snapshots {
		next[snap.Key] = slices.Clone(snap.Data)
	}
	s.tenants[tenantID] = next
	return nil
}

// FailNextSaves makes the next n saves return ErrInjected without writing.
func (s *Store) FailNextSaves(n int) {
	s.mu.Lock()
	s.failSaves = n
	s.mu.Unlock()
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
