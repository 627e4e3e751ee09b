package core

import (
	"context"
	"testing"
)

// fakeDisk is an in-memory DiskStore stand-in so disk-capacity tests don't
// depend on the real filesystem's free space.
type fakeDisk struct {
	values    map[string][]byte
	usable    uint64
	occupied  uint64
	writeErrs int
}

func newFakeDisk(usable uint64) *fakeDisk {
	return &fakeDisk{values: make(map[string][]byte), usable: usable}
}

func (f *fakeDisk) Write(key string, value []byte, replace bool) error {
	f.values[key] = value
	f.occupied += uint64(len(value))
	return nil
}

func (f *fakeDisk) Read(key string) ([]byte, error) { return f.values[key], nil }

func (f *fakeDisk) List() ([]string, error) {
	out := make([]string, 0, len(f.values))
	for k := range f.values {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeDisk) GetUsableSpace() (uint64, error)   { return f.usable, nil }
func (f *fakeDisk) GetOccupiedSpace() (uint64, error) { return f.occupied, nil }

func newTestService(t *testing.T, cfg SnapshotServiceConfig, disk DiskStore) (*SnapshotService, *CheckpointStorage, *SnapshotStorage, *RedownloadStorage) {
	t.Helper()
	cs := NewCheckpointStorage(nil)
	ss := NewSnapshotStorage()
	rs := NewRedownloadStorage(nil)
	svc := NewSnapshotService(
		cfg, cs, ss, rs, NewTrustManager(),
		NewAddressService(), NewTransactionService(), NewObservationService(),
		disk, NewBoundedPool(2), NewUnboundedPool(), nil, nil,
	)
	return svc, cs, ss, rs
}

// Genesis no-op: fresh state, minTipHeight=0, expect HeightIntervalConditionNotMet.
func TestAttemptSnapshotGenesisNoOp(t *testing.T) {
	cfg := SnapshotServiceConfig{
		SnapshotHeightInterval:      2,
		SnapshotHeightDelayInterval: 4,
		DistanceFromMajority:        30,
	}
	svc, _, _, _ := newTestService(t, cfg, newFakeDisk(2<<30))

	_, err := svc.AttemptSnapshot(context.Background())
	assertSnapshotErrorKind(t, err, KindHeightIntervalConditionNotMet)
}

// First real snapshot: 3 accepted checkpoints at heights {1,2,2} with
// hashes {"b","a","c"}; expect success with sorted checkpointBlocks.
func TestAttemptSnapshotFirstRealSnapshot(t *testing.T) {
	cfg := SnapshotServiceConfig{
		SnapshotHeightInterval:      2,
		SnapshotHeightDelayInterval: 0,
		DistanceFromMajority:        30,
	}
	svc, cs, ss, _ := newTestService(t, cfg, newFakeDisk(2<<30))

	cs.PutCheckpoint(cache("b", 1, 1))
	cs.PutCheckpoint(cache("a", 2, 2))
	cs.PutCheckpoint(cache("c", 2, 2))
	cs.MarkAccepted("b")
	cs.MarkAccepted("a")
	cs.MarkAccepted("c")
	// minTipHeight must exceed nextHeightInterval(2)+delay(0): inject a tip at height 3.
	cs.PutCheckpoint(cache("tip", 3, 3, "a", "b", "c"))
	cs.MarkAccepted("tip")

	result, err := svc.AttemptSnapshot(context.Background())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.Height != 2 {
		t.Fatalf("expected height 2, got %d", result.Height)
	}
	want := []string{"a", "b", "c"}
	if len(result.CheckpointBlocks) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.CheckpointBlocks)
	}
	for i, h := range want {
		if result.CheckpointBlocks[i] != h {
			t.Fatalf("expected sorted order %v, got %v", want, result.CheckpointBlocks)
		}
	}
	if ss.GetLastSnapshotHeight() != 2 {
		t.Fatalf("expected lastSnapshotHeight 2, got %d", ss.GetLastSnapshotHeight())
	}
	inSnap := cs.GetInSnapshot()
	for _, h := range want {
		if _, ok := inSnap[h]; !ok {
			t.Fatalf("expected %s to be moved into inSnapshot", h)
		}
	}
}

// Majority gate: nextHeightInterval(2) > latestMajorityHeight(0) + distanceFromMajority(1).
func TestAttemptSnapshotMajorityGate(t *testing.T) {
	cfg := SnapshotServiceConfig{
		SnapshotHeightInterval:      2,
		SnapshotHeightDelayInterval: 0,
		DistanceFromMajority:        1,
	}
	svc, cs, _, _ := newTestService(t, cfg, newFakeDisk(2<<30))
	cs.PutCheckpoint(cache("a", 2, 2))
	cs.MarkAccepted("a")

	_, err := svc.AttemptSnapshot(context.Background())
	assertSnapshotErrorKind(t, err, KindSnapshotUnexpectedError)
}

// Disk full: usableSpace = 1 GiB - 1, expect NotEnoughSpace, no state mutated.
func TestAttemptSnapshotDiskFull(t *testing.T) {
	cfg := SnapshotServiceConfig{SnapshotHeightInterval: 2, DistanceFromMajority: 30}
	svc, _, ss, _ := newTestService(t, cfg, newFakeDisk(minUsableSpaceBytes-1))

	_, err := svc.AttemptSnapshot(context.Background())
	assertSnapshotErrorKind(t, err, KindNotEnoughSpace)
	if ss.GetLastSnapshotHeight() != 0 {
		t.Fatalf("expected no state mutation, lastSnapshotHeight=%d", ss.GetLastSnapshotHeight())
	}
}

// Missing block: the previous snapshot references "x" but no checkpoint
// cache exists for it. applySnapshot is only invoked against the *previous*
// snapshot's blocks, so this drives that path directly by seeding a
// current snapshot that references a missing block, then attempting the
// next one.
func TestAttemptSnapshotMissingBlockIsIllegalState(t *testing.T) {
	cfg := SnapshotServiceConfig{SnapshotHeightInterval: 2, SnapshotHeightDelayInterval: 0, DistanceFromMajority: 30}
	svc, cs, ss, _ := newTestService(t, cfg, newFakeDisk(2<<30))

	dangling := Snapshot{CheckpointBlocks: []string{"x"}}
	dangling.Hash = MustHash(dangling)
	ss.SetStoredSnapshot(StoredSnapshot{Snapshot: dangling})
	ss.SetLastSnapshotHeight(0)

	cs.PutCheckpoint(cache("a", 1, 1))
	cs.MarkAccepted("a")
	cs.PutCheckpoint(cache("tip", 3, 3, "a"))
	cs.MarkAccepted("tip")

	_, err := svc.AttemptSnapshot(context.Background())
	assertSnapshotErrorKind(t, err, KindSnapshotIllegalState)
	if ss.GetLastSnapshotHeight() != 0 {
		t.Fatalf("expected lastSnapshotHeight unchanged, got %d", ss.GetLastSnapshotHeight())
	}
}

// Dangling accepted reference: "x" is marked accepted but no checkpoint
// cache was ever registered for it. This drives the block-selection path
// (AcceptedSince) directly, as distinct from the missing-prior-snapshot-
// block path covered above.
func TestAttemptSnapshotDanglingAcceptedReferenceIsIllegalState(t *testing.T) {
	cfg := SnapshotServiceConfig{SnapshotHeightInterval: 2, SnapshotHeightDelayInterval: 0, DistanceFromMajority: 30}
	svc, cs, ss, _ := newTestService(t, cfg, newFakeDisk(2<<30))

	cs.MarkAccepted("x")
	cs.PutCheckpoint(cache("tip", 3, 3))
	cs.MarkAccepted("tip")

	_, err := svc.AttemptSnapshot(context.Background())
	assertSnapshotErrorKind(t, err, KindSnapshotIllegalState)
	if ss.GetLastSnapshotHeight() != 0 {
		t.Fatalf("expected no state mutation, lastSnapshotHeight=%d", ss.GetLastSnapshotHeight())
	}
}

func assertSnapshotErrorKind(t *testing.T, err error, want SnapshotErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", want)
	}
	se, ok := err.(*SnapshotError)
	if !ok {
		t.Fatalf("expected *SnapshotError, got %T (%v)", err, err)
	}
	if se.Kind != want {
		t.Fatalf("expected kind %s, got %s", want, se.Kind)
	}
}
