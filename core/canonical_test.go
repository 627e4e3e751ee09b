package core

import "testing"

func TestHashDeterministic(t *testing.T) {
	ref := LastTransactionRef{Hash: "abc", Ordinal: 7}
	h1, err := Hash(ref)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash(ref)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %s != %s", h1, h2)
	}
}

func TestHashDistinguishesFields(t *testing.T) {
	a, err := Hash(LastTransactionRef{Hash: "abc", Ordinal: 1})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash(LastTransactionRef{Hash: "abc", Ordinal: 2})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct hashes for distinct ordinals, got %s == %s", a, b)
	}
}

func TestSerializeUnknownType(t *testing.T) {
	_, err := Serialize(42)
	if err == nil {
		t.Fatal("expected error serializing unknown type")
	}
	if _, ok := err.(*SerializationError); !ok {
		t.Fatalf("expected *SerializationError, got %T", err)
	}
}

func TestSnapshotZeroIsStable(t *testing.T) {
	if !SnapshotZero.IsZero() {
		t.Fatal("SnapshotZero.IsZero() should be true")
	}
	h, err := Hash(SnapshotZero)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h != SnapshotZero.Hash {
		t.Fatalf("SnapshotZero.Hash stale: %s != %s", SnapshotZero.Hash, h)
	}
}

func TestSortedReputationIds(t *testing.T) {
	s := Snapshot{PublicReputation: map[Id]float64{"c": 1, "a": 1, "b": 1}}
	got := s.SortedReputationIds()
	want := []Id{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, got, want)
		}
	}
}
