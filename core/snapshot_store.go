package core

// snapshot_store.go – the in-memory, single-writer current-snapshot pointer
// state. Grounded on connection_pool.go's mutex-guarded single-writer idiom.

import "sync"

// SnapshotStorage holds the node's current view of the snapshot chain. It
// is single-writer-per-node: callers serialize mutation externally.
type SnapshotStorage struct {
	mu                 sync.RWMutex
	storedSnapshot     StoredSnapshot
	lastSnapshotHeight int64
	nextSnapshotHash   string
}

// NewSnapshotStorage returns storage initialized to genesis: StoredSnapshot
// (snapshotZero, []), height 0, next hash = hash of snapshotZero.
func NewSnapshotStorage() *SnapshotStorage {
	return &SnapshotStorage{
		storedSnapshot:   StoredSnapshot{Snapshot: SnapshotZero},
		nextSnapshotHash: SnapshotZero.Hash,
	}
}

func (s *SnapshotStorage) GetStoredSnapshot() StoredSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storedSnapshot
}

func (s *SnapshotStorage) SetStoredSnapshot(ss StoredSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storedSnapshot = ss
}

func (s *SnapshotStorage) GetLastSnapshotHeight() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshotHeight
}

func (s *SnapshotStorage) SetLastSnapshotHeight(h int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSnapshotHeight = h
}

func (s *SnapshotStorage) GetNextSnapshotHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSnapshotHash
}

func (s *SnapshotStorage) SetNextSnapshotHash(h string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSnapshotHash = h
}
