package core

// snapshot.go – the snapshot data model: Snapshot, StoredSnapshot and the
// CheckpointBlock/CheckpointCache shape the snapshot core treats as opaque
// except for the fields it reads directly.

import "sort"

// CheckpointHeight carries the min/max height window a checkpoint block
// covers; only Min is used by the snapshot selection algorithm.
type CheckpointHeight struct {
	Min int64
	Max int64
}

// CheckpointCache is what checkpoint storage returns for a given soeHash.
// Its fields beyond SoeHash/Height/Transactions/Observations are opaque to
// the snapshot core; Parents is used only by tip computation.
type CheckpointCache struct {
	SoeHashValue string
	Height       CheckpointHeight
	Transactions []Edge
	Observations []ObservationEdge
	ParentHashes []string
}

func (c CheckpointCache) SoeHash() string   { return c.SoeHashValue }
func (c CheckpointCache) Parents() []string { return c.ParentHashes }

// Snapshot is a point-in-time commitment to an ordered set of checkpoint
// hashes plus per-peer reputation.
type Snapshot struct {
	Hash             string
	LastSnapshotHash string
	CheckpointBlocks []string
	PublicReputation map[Id]float64
}

// SnapshotZero is the genesis sentinel: empty blocks, no predecessor.
var SnapshotZero = Snapshot{
	Hash:             "",
	LastSnapshotHash: "",
	CheckpointBlocks: nil,
	PublicReputation: map[Id]float64{},
}

func init() {
	SnapshotZero.Hash = MustHash(SnapshotZero)
}

// IsZero reports whether s is the genesis sentinel.
func (s Snapshot) IsZero() bool { return s.Hash == SnapshotZero.Hash }

// SortedReputationIds returns PublicReputation's keys in sorted order, the
// canonical iteration order used by Serialize and by writeSnapshotInfoToDisk.
func (s Snapshot) SortedReputationIds() []Id {
	ids := make([]Id, 0, len(s.PublicReputation))
	for id := range s.PublicReputation {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StoredSnapshot is the on-disk payload: a snapshot plus the full checkpoint
// caches of every block it references.
type StoredSnapshot struct {
	Snapshot         Snapshot
	CheckpointCaches []CheckpointCache
}

// SnapshotInfo is the full recoverable state of a node, used both to persist
// to disk (writeSnapshotInfoToDisk) and to restore a node after redownload
// (SetSnapshot).
type SnapshotInfo struct {
	CurrentSnapshot      Snapshot
	LastSnapshotHeight   int64
	NextSnapshotHash     string
	Checkpoints          map[string]CheckpointCache
	WaitingForAcceptance map[string]struct{}
	Accepted             map[string]struct{}
	Awaiting             map[string]struct{}
	InSnapshot           map[string]struct{}
	AddressCache         map[string]int64 // per-address balance cache
	LastAcceptedTxRef    map[string]LastTransactionRef
	Tips                 map[string]struct{}
	Usages               map[string]int64
}
