package cache

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
)

// MemorySnapshotStore is the process-local store used when no Redis address
// is configured. Snapshots do not survive a restart.
type MemorySnapshotStore struct {
	mu      sync.Mutex
	gen     map[uint]int64
	written map[uint]int64
	snaps   map[uint]*menu.Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		gen:     make(map[uint]int64),
		written: make(map[uint]int64),
		snaps:   make(map[uint]*menu.Snapshot),
	}
}

func (s *MemorySnapshotStore) NextGeneration(_ context.Context, restaurantID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[restaurantID]++
	return s.gen[restaurantID], nil
}

func (s *MemorySnapshotStore) Put(_ context.Context, restaurantID uint, generation int64, snap *menu.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation < s.written[restaurantID] {
		return false, nil
	}
	s.written[restaurantID] = generation
	s.snaps[restaurantID] = snap
	return true, nil
}

func (s *MemorySnapshotStore) Get(_ context.Context, restaurantID uint) (*menu.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[restaurantID]
	if !ok {
		return nil, menu.ErrSnapshotNotFound
	}
	return snap, nil
}
