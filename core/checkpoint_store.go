package core

// checkpoint_store.go – the authoritative catalog of checkpoint blocks and
// their lifecycle states. Grounded on ledger.go's map-of-state + single
// mutex, atomic bulk mutators and connection_pool.go's mutex-guarded
// registry idiom, generalized from block storage to a five-state
// checkpoint lifecycle: awaiting, waitingForAcceptance, accepted,
// inSnapshot, tips.

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// CheckpointStorage owns the mutable catalog of checkpoint blocks.
type CheckpointStorage struct {
	logger *log.Logger

	mu                   sync.RWMutex
	checkpoints          map[string]CheckpointCache
	awaiting             map[string]struct{}
	waitingForAcceptance map[string]struct{}
	accepted             map[string]struct{}
	inSnapshot           map[string]struct{}
	tips                 map[string]struct{}
	usages               map[string]int64
}

// NewCheckpointStorage returns an empty checkpoint catalog.
func NewCheckpointStorage(logger *log.Logger) *CheckpointStorage {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &CheckpointStorage{
		logger:               logger,
		checkpoints:          make(map[string]CheckpointCache),
		awaiting:             make(map[string]struct{}),
		waitingForAcceptance: make(map[string]struct{}),
		accepted:             make(map[string]struct{}),
		inSnapshot:           make(map[string]struct{}),
		tips:                 make(map[string]struct{}),
		usages:               make(map[string]int64),
	}
}

// GetCheckpoint returns the cache for soeHash, if known.
func (cs *CheckpointStorage) GetCheckpoint(soeHash string) (CheckpointCache, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c, ok := cs.checkpoints[soeHash]
	return c, ok
}

// GetCheckpoints returns a snapshot copy of the full checkpoint map.
func (cs *CheckpointStorage) GetCheckpoints() map[string]CheckpointCache {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]CheckpointCache, len(cs.checkpoints))
	for k, v := range cs.checkpoints {
		out[k] = v
	}
	return out
}

// SetCheckpoints bulk-restores the checkpoint map (used by SetSnapshot).
func (cs *CheckpointStorage) SetCheckpoints(m map[string]CheckpointCache) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.checkpoints = make(map[string]CheckpointCache, len(m))
	for k, v := range m {
		cs.checkpoints[k] = v
	}
}

// PutCheckpoint registers or overwrites a checkpoint cache, used by the
// gossip ingestion pipeline (external to this core) once a block is known.
func (cs *CheckpointStorage) PutCheckpoint(c CheckpointCache) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.checkpoints[c.SoeHash()] = c
	cs.awaiting[c.SoeHash()] = struct{}{}
	cs.recomputeTipsLocked()
}

func setOf(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func (cs *CheckpointStorage) GetAccepted() map[string]struct{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return setOf(cs.accepted)
}

func (cs *CheckpointStorage) GetAwaiting() map[string]struct{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return setOf(cs.awaiting)
}

func (cs *CheckpointStorage) GetWaitingForAcceptance() map[string]struct{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return setOf(cs.waitingForAcceptance)
}

func (cs *CheckpointStorage) GetInSnapshot() map[string]struct{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return setOf(cs.inSnapshot)
}

func (cs *CheckpointStorage) GetTips() map[string]struct{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return setOf(cs.tips)
}

func (cs *CheckpointStorage) GetUsages() map[string]int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]int64, len(cs.usages))
	for k, v := range cs.usages {
		out[k] = v
	}
	return out
}

// MarkAccepted transitions a block from waitingForAcceptance to accepted.
// Used by the acceptance pipeline, external to this core but mutating
// checkpoint state owned here.
func (cs *CheckpointStorage) MarkAccepted(soeHash string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.waitingForAcceptance, soeHash)
	delete(cs.awaiting, soeHash)
	cs.accepted[soeHash] = struct{}{}
}

// MarkInSnapshot atomically transitions the given (soeHash, height) pairs
// from accepted to inSnapshot. It is the single mutator AttemptSnapshot
// calls at commit time and must be atomic with respect to other mutators.
func (cs *CheckpointStorage) MarkInSnapshot(pairs map[string]int64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for soeHash := range pairs {
		delete(cs.accepted, soeHash)
		cs.inSnapshot[soeHash] = struct{}{}
	}
	cs.recomputeTipsLocked()
}

// GetMinTipHeight returns the minimum Height.Min among all current tips, or
// 0 if there are no tips.
func (cs *CheckpointStorage) GetMinTipHeight() int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	var min int64
	first := true
	for h := range cs.tips {
		c, ok := cs.checkpoints[h]
		if !ok {
			continue
		}
		if first || c.Height.Min < min {
			min = c.Height.Min
			first = false
		}
	}
	return min
}

// GetMinWaitingHeight returns the minimum Height.Min among blocks waiting
// for acceptance, if any exist.
func (cs *CheckpointStorage) GetMinWaitingHeight() (int64, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	var min int64
	found := false
	for h := range cs.waitingForAcceptance {
		c, ok := cs.checkpoints[h]
		if !ok {
			continue
		}
		if !found || c.Height.Min < min {
			min = c.Height.Min
			found = true
		}
	}
	return min, found
}

// AcceptedSince returns the accepted checkpoint caches with
// lastSnapshotHeight < Height.Min <= upTo, plus any accepted soeHash that
// has no backing checkpoint cache (a dangling reference the caller must
// treat as an illegal state, not as an empty result). Callers consuming
// this for snapshot construction must treat the result as a stable
// snapshot taken under a single read lock.
func (cs *CheckpointStorage) AcceptedSince(lastSnapshotHeight, upTo int64) (blocks []CheckpointCache, missing []string) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for h := range cs.accepted {
		c, ok := cs.checkpoints[h]
		if !ok {
			missing = append(missing, h)
			continue
		}
		if c.Height.Min > lastSnapshotHeight && c.Height.Min <= upTo {
			blocks = append(blocks, c)
		}
	}
	sort.Strings(missing)
	return blocks, missing
}

// AcceptedEmpty reports whether the accepted set has no members at all,
// used to distinguish NoAcceptedCBsSinceSnapshot from
// NoBlocksWithinHeightInterval at the call site.
func (cs *CheckpointStorage) AcceptedEmpty() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.accepted) == 0
}

// recomputeTipsLocked recomputes the tip set: checkpoints with no known
// successor among the still-tracked (non-inSnapshot) blocks. Must be called
// with cs.mu held for writing.
func (cs *CheckpointStorage) recomputeTipsLocked() {
	hasSuccessor := make(map[string]bool, len(cs.checkpoints))
	for h, c := range cs.checkpoints {
		if _, done := cs.inSnapshot[h]; done {
			continue
		}
		for _, p := range c.Parents() {
			hasSuccessor[p] = true
		}
	}
	cs.tips = make(map[string]struct{})
	for h := range cs.checkpoints {
		if _, done := cs.inSnapshot[h]; done {
			continue
		}
		if !hasSuccessor[h] {
			cs.tips[h] = struct{}{}
		}
	}
}
