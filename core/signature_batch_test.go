package core

import "testing"

// TestSignatureBatchCombineCommutative checks that folding Combine in
// either order over the same logical hash yields the same set of
// signatures.
func TestSignatureBatchCombineCommutative(t *testing.T) {
	sig1 := HashSignature{SignatureHex: "aa", SignerID: "signer-a"}
	sig2 := HashSignature{SignatureHex: "bb", SignerID: "signer-b"}

	left := NewSignatureBatch("h", sig1).Combine(NewSignatureBatch("h", sig2))
	right := NewSignatureBatch("h", sig2).Combine(NewSignatureBatch("h", sig1))

	if len(left.Signatures()) != 2 || len(right.Signatures()) != 2 {
		t.Fatalf("expected 2 signatures in both orders, got %d and %d",
			len(left.Signatures()), len(right.Signatures()))
	}
	for i, s := range left.Signatures() {
		if s != right.Signatures()[i] {
			t.Fatalf("combine is not commutative at index %d: %+v != %+v", i, s, right.Signatures()[i])
		}
	}
}

func TestSignatureBatchCombineIdempotent(t *testing.T) {
	sig := HashSignature{SignatureHex: "aa", SignerID: "signer-a"}
	b := NewSignatureBatch("h", sig)
	combined := b.Combine(b).Combine(b)
	if len(combined.Signatures()) != 1 {
		t.Fatalf("expected idempotent combine to keep one signature, got %d", len(combined.Signatures()))
	}
}

func TestSignatureBatchCombineAssociative(t *testing.T) {
	sig1 := HashSignature{SignatureHex: "aa", SignerID: "s1"}
	sig2 := HashSignature{SignatureHex: "bb", SignerID: "s2"}
	sig3 := HashSignature{SignatureHex: "cc", SignerID: "s3"}

	b1 := NewSignatureBatch("h", sig1)
	b2 := NewSignatureBatch("h", sig2)
	b3 := NewSignatureBatch("h", sig3)

	left := b1.Combine(b2).Combine(b3)
	right := b1.Combine(b2.Combine(b3))

	if len(left.Signatures()) != len(right.Signatures()) {
		t.Fatalf("associativity mismatch in length: %d != %d", len(left.Signatures()), len(right.Signatures()))
	}
	for i, s := range left.Signatures() {
		if s != right.Signatures()[i] {
			t.Fatalf("associativity mismatch at index %d", i)
		}
	}
}

// TestCreateTransactionEdgeSelfVerifies checks that the resulting edge's
// signature verifies over the observation edge hash, and BaseHash equals
// that hash.
func TestCreateTransactionEdgeSelfVerifies(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	dst, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}

	edge, err := CreateTransactionEdge(kp.Id(), dst.Id(), EmptyLastTransactionRef, 5, kp, nil, true)
	if err != nil {
		t.Fatalf("create transaction edge: %v", err)
	}

	oeHash, err := Hash(edge.ObservationEdge)
	if err != nil {
		t.Fatalf("hash observation edge: %v", err)
	}
	if edge.BaseHash() != oeHash {
		t.Fatalf("BaseHash %s != Hash(observationEdge) %s", edge.BaseHash(), oeHash)
	}

	sigs := edge.SignedObservationEdge.SignatureBatch.Signatures()
	if len(sigs) != 1 {
		t.Fatalf("expected exactly one signature, got %d", len(sigs))
	}
	if !sigs[0].Valid(oeHash) {
		t.Fatal("expected signature to validate against observation edge hash")
	}
	if edge.Data.Amount != 5*100_000_000 {
		t.Fatalf("expected normalized amount, got %d", edge.Data.Amount)
	}
}
