package core

import "testing"

// FuzzHashDeterministic checks the property the canonical encoder actually
// promises: hashing the same logical value twice always yields the same
// digest, for arbitrary string/ordinal inputs.
func FuzzHashDeterministic(f *testing.F) {
	seeds := []struct {
		hash    string
		ordinal uint64
	}{
		{"", 0},
		{"abc", 1},
		{"世界", 9999999},
	}
	for _, s := range seeds {
		f.Add(s.hash, s.ordinal)
	}
	f.Fuzz(func(t *testing.T, hash string, ordinal uint64) {
		ref := LastTransactionRef{Hash: hash, Ordinal: ordinal}
		h1, err := Hash(ref)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		h2, err := Hash(ref)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if h1 != h2 {
			t.Fatalf("hash not deterministic for %+v: %s != %s", ref, h1, h2)
		}
	})
}
