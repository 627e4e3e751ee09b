package core

// redownload_store.go – the node's view of the latest majority height used
// by the snapshot service's distance check. Grounded on
// blockchain_synchronization.go's SyncManager: a mutex-guarded
// single-writer state updated by an external replicator/gossip process and
// read by whatever orchestrates snapshotting, narrowed from a full sync
// loop to the single piece of state the snapshot algorithm needs.

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// RedownloadStorage tracks the highest snapshot height a quorum of peers is
// known to agree on. It is written by an external gossip/redownload
// protocol and read by the snapshot service.
type RedownloadStorage struct {
	logger *log.Logger

	mu                   sync.RWMutex
	latestMajorityHeight int64
}

// NewRedownloadStorage returns storage with majority height 0.
func NewRedownloadStorage(logger *log.Logger) *RedownloadStorage {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RedownloadStorage{logger: logger}
}

// GetLatestMajorityHeight returns the last height a majority of peers were
// observed to agree on.
func (r *RedownloadStorage) GetLatestMajorityHeight() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latestMajorityHeight
}

// SetLatestMajorityHeight records a new majority height observation. It
// only advances the stored value; a regression is logged and ignored, since
// majority height is expected to be monotonic under normal gossip.
func (r *RedownloadStorage) SetLatestMajorityHeight(h int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h < r.latestMajorityHeight {
		r.logger.Debugf("redownload: ignoring regressed majority height %d < %d", h, r.latestMajorityHeight)
		return
	}
	r.latestMajorityHeight = h
}
