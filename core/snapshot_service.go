package core

// snapshot_service.go – the snapshot state machine at the center of this
// core: attemptSnapshot's 14-step precondition/construction/commit/apply
// sequence. Grounded on connection_pool.go's single-writer checkout/checkin
// discipline generalized into the bounded and unbounded executor hops this
// algorithm suspends at, and on ledger.go's height/commit bookkeeping
// generalized from block height to snapshot height.

import (
	"context"
	"errors"
	"sort"

	log "github.com/sirupsen/logrus"
)

const minUsableSpaceBytes = 1 << 30 // 1 GiB floor before attempting a snapshot

// SnapshotCreated is the successful result of AttemptSnapshot.
type SnapshotCreated struct {
	Height           int64
	Hash             string
	CheckpointBlocks []string
}

// DiskStore is the subset of internal/filestore.Store's API the snapshot
// service depends on. Declared here so tests can substitute a fake without
// touching the real filesystem; *filestore.Store satisfies it directly.
type DiskStore interface {
	Write(key string, value []byte, replace bool) error
	Read(key string) ([]byte, error)
	List() ([]string, error)
	GetUsableSpace() (uint64, error)
	GetOccupiedSpace() (uint64, error)
}

// SnapshotServiceConfig carries the configurable thresholds AttemptSnapshot
// reads on every run.
type SnapshotServiceConfig struct {
	SnapshotHeightInterval      int64
	SnapshotHeightDelayInterval int64
	DistanceFromMajority        int64
	SnapshotSizeDiskLimit       uint64
	MaxAcceptedCBHashesInMemory int
	ValidateMaxCBHashesInMemory bool // whether to pre-check the accepted-set size before proceeding
}

// SnapshotService orchestrates attemptSnapshot, wiring together every
// collaborator store and service the algorithm reads or mutates.
type SnapshotService struct {
	cfg SnapshotServiceConfig

	checkpoints  *CheckpointStorage
	snapshots    *SnapshotStorage
	redownload   *RedownloadStorage
	trust        *TrustManager
	addresses    *AddressService
	transactions *TransactionService
	observations *ObservationService
	disk         DiskStore

	bounded   Executor
	unbounded Executor

	logger *log.Logger

	metrics SnapshotMetrics

	lastEffects SnapshotEffects
}

// SnapshotEffects summarizes the block set applySnapshot last folded into
// the address/transaction/observation services, for read-only inspection
// (e.g. by the CLI's "snapshot status" command) without reaching into
// unexported state.
type SnapshotEffects struct {
	AppliedBlocks []string
}

// NewSnapshotService wires the collaborators and config needed to run
// AttemptSnapshot. bounded and unbounded are the two execution pools the
// algorithm dispatches CPU-bound and I/O-bound work onto, respectively.
func NewSnapshotService(
	cfg SnapshotServiceConfig,
	checkpoints *CheckpointStorage,
	snapshots *SnapshotStorage,
	redownload *RedownloadStorage,
	trust *TrustManager,
	addresses *AddressService,
	transactions *TransactionService,
	observations *ObservationService,
	disk DiskStore,
	bounded, unbounded Executor,
	logger *log.Logger,
	metrics SnapshotMetrics,
) *SnapshotService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &SnapshotService{
		cfg:          cfg,
		checkpoints:  checkpoints,
		snapshots:    snapshots,
		redownload:   redownload,
		trust:        trust,
		addresses:    addresses,
		transactions: transactions,
		observations: observations,
		disk:         disk,
		bounded:      bounded,
		unbounded:    unbounded,
		logger:       logger,
		metrics:      metrics,
	}
}

// AttemptSnapshot runs the full 14-step snapshot algorithm. Callers must
// ensure only one invocation runs at a time per node; the algorithm does
// not enforce this internally.
func (s *SnapshotService) AttemptSnapshot(ctx context.Context) (_ SnapshotCreated, err error) {
	defer func() {
		var se *SnapshotError
		if !errors.As(err, &se) {
			return
		}
		if se.Kind.Benign() {
			s.logger.Debugf("attempt snapshot: %v", se)
		} else if se.Kind == KindSnapshotIllegalState {
			s.logger.Errorf("attempt snapshot: %v", se)
		}
	}()

	// Step 1: disk check.
	usable, err := s.disk.GetUsableSpace()
	if err != nil {
		return SnapshotCreated{}, wrapErr(KindSnapshotIOError, "attempt snapshot: check usable space", err)
	}
	if usable < minUsableSpaceBytes {
		return SnapshotCreated{}, newErr(KindNotEnoughSpace, "usable disk space below 1 GiB")
	}

	if s.cfg.ValidateMaxCBHashesInMemory && s.cfg.MaxAcceptedCBHashesInMemory > 0 {
		if len(s.checkpoints.GetAccepted()) > s.cfg.MaxAcceptedCBHashesInMemory {
			return SnapshotCreated{}, newErr(KindMaxCBHashesInMemory, "too many accepted checkpoint hashes in memory")
		}
	}

	lastSnapshotHeight := s.snapshots.GetLastSnapshotHeight()
	currentSnapshot := s.snapshots.GetStoredSnapshot().Snapshot

	// Step 2: next height.
	nextHeightInterval := lastSnapshotHeight + s.cfg.SnapshotHeightInterval

	// Step 3: majority distance.
	latestMajorityHeight := s.redownload.GetLatestMajorityHeight()
	if nextHeightInterval > latestMajorityHeight+s.cfg.DistanceFromMajority {
		return SnapshotCreated{}, newErr(KindSnapshotUnexpectedError, "max distance from majority reached")
	}

	// Step 4: interval condition.
	minTipHeight := s.checkpoints.GetMinTipHeight()
	if !(minTipHeight > nextHeightInterval+s.cfg.SnapshotHeightDelayInterval) {
		s.metrics.HeightIntervalConditionNotMet()
		return SnapshotCreated{}, newErr(KindHeightIntervalConditionNotMet, "min tip height has not advanced far enough")
	}
	s.metrics.HeightIntervalConditionMet()

	// Step 5: select blocks.
	blocks, missing := s.checkpoints.AcceptedSince(lastSnapshotHeight, nextHeightInterval)
	if len(missing) > 0 {
		s.metrics.SnapshotInvalidData()
		return SnapshotCreated{}, newErr(KindSnapshotIllegalState, "checkpoint block referenced by accepted set is missing: "+missing[0])
	}
	if len(blocks) == 0 {
		if s.checkpoints.AcceptedEmpty() {
			return SnapshotCreated{}, newErr(KindNoAcceptedCBsSinceSnapshot, "no checkpoint blocks accepted since last snapshot")
		}
		s.metrics.NoBlocksWithinHeightInterval()
		return SnapshotCreated{}, newErr(KindNoBlocksWithinHeightInterval, "no accepted blocks fall within the next height interval")
	}

	// Step 6: canonicalize order.
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].SoeHash() < blocks[j].SoeHash() })
	hashesForNextSnapshot := make([]string, len(blocks))
	pairs := make(map[string]int64, len(blocks))
	for i, c := range blocks {
		hashesForNextSnapshot[i] = c.SoeHash()
		pairs[c.SoeHash()] = nextHeightInterval
	}

	// Step 7: reputation.
	publicReputation := s.trust.GetPredictedReputation()

	// Step 8: construct next snapshot.
	next := Snapshot{
		LastSnapshotHash: currentSnapshot.Hash,
		CheckpointBlocks: hashesForNextSnapshot,
		PublicReputation: publicReputation,
	}
	nextHash, err := Hash(next)
	if err != nil {
		return SnapshotCreated{}, wrapErr(KindSnapshotUnexpectedError, "attempt snapshot: hash next snapshot", err)
	}
	next.Hash = nextHash

	// Step 9: publish next hash, before apply, so a crash between here and
	// commit can be detected on restart.
	s.snapshots.SetNextSnapshotHash(next.Hash)

	// Step 10: apply previous snapshot's effects on the bounded pool.
	if err := s.bounded.Run(ctx, func(ctx context.Context) error {
		return s.applySnapshot(currentSnapshot)
	}); err != nil {
		return SnapshotCreated{}, s.asSnapshotError(err)
	}

	// Step 11: commit height & membership.
	s.snapshots.SetLastSnapshotHeight(nextHeightInterval)
	s.checkpoints.MarkInSnapshot(pairs)

	// Step 12: update metrics.
	s.metrics.SnapshotCreated(next.Hash, nextHeightInterval)
	s.metrics.SetPartitionSizes(
		len(s.checkpoints.GetAccepted()),
		len(s.checkpoints.GetAwaiting()),
		len(s.checkpoints.GetWaitingForAcceptance()),
	)
	s.metrics.SetTipHeights(s.checkpoints.GetMinTipHeight(), minWaitingHeightOrZero(s.checkpoints))

	// Step 13: reset rate limiting for the newly snapshotted hashes. Rate
	// limiting state itself is owned by the gossip ingestion pipeline,
	// external to this core; this is the hook that pipeline would observe.
	s.resetRateLimiting(hashesForNextSnapshot)

	// Step 14: persist.
	stored := StoredSnapshot{Snapshot: next, CheckpointCaches: blocks}
	s.snapshots.SetStoredSnapshot(stored)

	if err := s.writeSnapshotToDisk(ctx, stored); err != nil {
		return SnapshotCreated{}, s.asSnapshotError(err)
	}
	if err := s.writeSnapshotInfoToDisk(ctx, next); err != nil {
		return SnapshotCreated{}, s.asSnapshotError(err)
	}

	return SnapshotCreated{
		Height:           nextHeightInterval,
		Hash:             next.Hash,
		CheckpointBlocks: hashesForNextSnapshot,
	}, nil
}

// applySnapshot is step 10: for every block in the previous snapshot,
// transfer and apply its non-dummy transactions, then remove its
// observations. A no-op when currentSnapshot is the genesis sentinel.
func (s *SnapshotService) applySnapshot(currentSnapshot Snapshot) error {
	if currentSnapshot.IsZero() {
		return nil
	}
	applied := make([]string, 0, len(currentSnapshot.CheckpointBlocks))
	for _, cbHash := range currentSnapshot.CheckpointBlocks {
		cb, ok := s.checkpoints.GetCheckpoint(cbHash)
		if !ok {
			s.metrics.SnapshotInvalidData()
			return newErr(KindSnapshotIllegalState, "checkpoint block referenced by prior snapshot is missing: "+cbHash)
		}
		for _, tx := range cb.Transactions {
			if tx.Data.Amount == 0 {
				continue
			}
			if err := s.addresses.TransferSnapshotTransaction(tx); err != nil {
				return wrapErr(KindSnapshotUnexpectedError, "apply snapshot: transfer transaction", err)
			}
			if err := s.transactions.ApplySnapshotDirect(tx); err != nil {
				return err
			}
		}
		for _, obs := range cb.Observations {
			if err := s.observations.RemoveObservation(obs); err != nil {
				return err
			}
		}
		applied = append(applied, cbHash)
	}
	s.lastEffects = SnapshotEffects{AppliedBlocks: applied}
	return nil
}

// LastSnapshotEffects returns the block set the most recent AttemptSnapshot
// call applied (step 10), or a zero value if none has run yet.
func (s *SnapshotService) LastSnapshotEffects() SnapshotEffects {
	return s.lastEffects
}

// resetRateLimiting is a no-op hook: rate limiting for accepted-CB ingestion
// lives in the gossip pipeline, outside this core.
func (s *SnapshotService) resetRateLimiting(hashes []string) {}

// writeSnapshotToDisk fetches every included block's cache, serializes the
// StoredSnapshot on the bounded pool, and writes it on the unbounded pool,
// retrying up to 3 times. Each attempt checks isOverDiskCapacity first and
// fails fast if the write would exceed configured limits.
func (s *SnapshotService) writeSnapshotToDisk(ctx context.Context, stored StoredSnapshot) error {
	for _, h := range stored.Snapshot.CheckpointBlocks {
		if _, ok := s.checkpoints.GetCheckpoint(h); !ok {
			s.metrics.SnapshotInvalidData()
			return newErr(KindSnapshotIllegalState, "checkpoint block included in snapshot is missing: "+h)
		}
	}

	var payload []byte
	err := s.bounded.Run(ctx, func(ctx context.Context) error {
		b, err := Serialize(stored)
		if err != nil {
			return err
		}
		payload = b
		return nil
	})
	if err != nil {
		s.metrics.SnapshotWriteToDiskFailure()
		return wrapErr(KindSnapshotIOError, "serialize stored snapshot", err)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		over, err := s.isOverDiskCapacity(uint64(len(payload)))
		if err != nil {
			lastErr = err
			continue
		}
		if over {
			lastErr = newErr(KindNotEnoughSpace, "write would exceed configured disk capacity")
			continue
		}
		err = s.unbounded.Run(ctx, func(ctx context.Context) error {
			return s.disk.Write("snapshotStorage/"+stored.Snapshot.Hash, payload, false)
		})
		if err == nil {
			s.metrics.SnapshotWriteToDiskSuccess()
			return nil
		}
		lastErr = err
	}
	s.metrics.SnapshotWriteToDiskFailure()
	return wrapErr(KindSnapshotIOError, "write stored snapshot after 3 attempts", lastErr)
}

// isOverDiskCapacity reports whether writing n additional bytes would
// exceed the configured disk limit. When SnapshotSizeDiskLimit is 0, the
// check is disabled entirely (including the usable-space half), even
// though that bypasses a live low-disk condition. This is a known latent
// bug, kept as-is rather than silently fixed (see DESIGN.md).
func (s *SnapshotService) isOverDiskCapacity(n uint64) (bool, error) {
	if s.cfg.SnapshotSizeDiskLimit == 0 {
		return false, nil
	}
	occupied, err := s.disk.GetOccupiedSpace()
	if err != nil {
		return false, wrapErr(KindSnapshotIOError, "check occupied space", err)
	}
	if occupied+n > s.cfg.SnapshotSizeDiskLimit {
		return true, nil
	}
	usable, err := s.disk.GetUsableSpace()
	if err != nil {
		return false, wrapErr(KindSnapshotIOError, "check usable space", err)
	}
	return usable < n, nil
}

// writeSnapshotInfoToDisk assembles the full recoverable SnapshotInfo and
// writes it under the snapshot's hash. Skipped when the current snapshot
// is the genesis sentinel, since there is nothing yet to recover.
func (s *SnapshotService) writeSnapshotInfoToDisk(ctx context.Context, snap Snapshot) error {
	if snap.IsZero() {
		return nil
	}

	addrCache := make(map[string]int64)
	for id, bal := range s.addresses.Balances() {
		addrCache[string(id)] = bal
	}
	lastRefs := make(map[string]LastTransactionRef)
	for id, ref := range s.transactions.LastTransactionRefs() {
		lastRefs[string(id)] = ref
	}

	info := SnapshotInfo{
		CurrentSnapshot:      snap,
		LastSnapshotHeight:   s.snapshots.GetLastSnapshotHeight(),
		NextSnapshotHash:     s.snapshots.GetNextSnapshotHash(),
		Checkpoints:          s.checkpoints.GetCheckpoints(),
		WaitingForAcceptance: s.checkpoints.GetWaitingForAcceptance(),
		Accepted:             s.checkpoints.GetAccepted(),
		Awaiting:             s.checkpoints.GetAwaiting(),
		InSnapshot:           s.checkpoints.GetInSnapshot(),
		AddressCache:         addrCache,
		LastAcceptedTxRef:    lastRefs,
		Tips:                 s.checkpoints.GetTips(),
		Usages:               s.checkpoints.GetUsages(),
	}

	var payload []byte
	err := s.bounded.Run(ctx, func(ctx context.Context) error {
		b, err := serializeSnapshotInfo(info)
		if err != nil {
			return err
		}
		payload = b
		return nil
	})
	if err != nil {
		return wrapErr(KindSnapshotInfoIOError, "serialize snapshot info", err)
	}

	return s.unbounded.Run(ctx, func(ctx context.Context) error {
		if err := s.disk.Write("snapshotInfoStorage/"+snap.Hash, payload, true); err != nil {
			return wrapErr(KindSnapshotInfoIOError, "write snapshot info", err)
		}
		return nil
	})
}

// SetSnapshot is the restore path used after redownload: it overwrites
// checkpoint and snapshot storage state from info, restores the address
// balances and last-transaction references from info's caches, and updates
// metrics. The accepted blocks' transactions and observations are not
// re-applied to the downstream services. It performs no on-disk persistence.
func (s *SnapshotService) SetSnapshot(info SnapshotInfo) {
	s.checkpoints.SetCheckpoints(info.Checkpoints)
	cs := s.checkpoints
	cs.mu.Lock()
	cs.waitingForAcceptance = setOf(info.WaitingForAcceptance)
	cs.accepted = setOf(info.Accepted)
	cs.awaiting = setOf(info.Awaiting)
	cs.inSnapshot = setOf(info.InSnapshot)
	cs.tips = setOf(info.Tips)
	cs.usages = make(map[string]int64, len(info.Usages))
	for k, v := range info.Usages {
		cs.usages[k] = v
	}
	cs.mu.Unlock()
	s.snapshots.SetStoredSnapshot(StoredSnapshot{Snapshot: info.CurrentSnapshot})
	s.snapshots.SetLastSnapshotHeight(info.LastSnapshotHeight)
	s.snapshots.SetNextSnapshotHash(info.NextSnapshotHash)

	balances := make(map[Id]int64, len(info.AddressCache))
	for id, bal := range info.AddressCache {
		balances[Id(id)] = bal
	}
	s.addresses.SetBalances(balances)
	refs := make(map[Id]LastTransactionRef, len(info.LastAcceptedTxRef))
	for id, ref := range info.LastAcceptedTxRef {
		refs[Id(id)] = ref
	}
	s.transactions.SetLastTransactionRefs(refs)

	s.metrics.SetPartitionSizes(len(info.Accepted), len(info.Awaiting), len(info.WaitingForAcceptance))
}

// asSnapshotError normalizes an arbitrary error into *SnapshotError so
// callers can branch on Kind uniformly.
func (s *SnapshotService) asSnapshotError(err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SnapshotError); ok {
		return se
	}
	return wrapErr(KindSnapshotUnexpectedError, "attempt snapshot", err)
}

func minWaitingHeightOrZero(cs *CheckpointStorage) int64 {
	h, ok := cs.GetMinWaitingHeight()
	if !ok {
		return 0
	}
	return h
}
