package core

// transaction_service.go – tracks the last-accepted transaction reference
// per address, one of applySnapshot's per-address effects. Generalized from
// ledger.go's nonce/sequence tracking, narrowed to the LastTransactionRef
// the snapshot core needs for ordinal continuity.

import "sync"

// TransactionService owns the last-accepted transaction reference per
// source address, consumed by createTransactionEdge callers to chain
// transactions and advanced by applySnapshot.
type TransactionService struct {
	mu      sync.Mutex
	lastRef map[Id]LastTransactionRef
}

// NewTransactionService returns an empty tracker.
func NewTransactionService() *TransactionService {
	return &TransactionService{lastRef: make(map[Id]LastTransactionRef)}
}

// LastTransactionRefOf returns the last-accepted reference for id, or the
// zero reference if none is known yet.
func (t *TransactionService) LastTransactionRefOf(id Id) LastTransactionRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.lastRef[id]; ok {
		return r
	}
	return EmptyLastTransactionRef
}

// ApplySnapshotDirect advances the source address's last-transaction
// reference to tx's data-vertex hash with the previous ordinal plus one, the
// direct (non-gossip) application path applySnapshot uses once a
// transaction is committed into a snapshot.
func (t *TransactionService) ApplySnapshotDirect(tx Edge) error {
	parents := tx.Parents()
	if len(parents) != 2 {
		return newErr(KindSnapshotUnexpectedError, "apply snapshot direct: transaction edge missing parents")
	}
	src := Id(parents[0].Hash)
	dataHash := tx.DataHash().Hash

	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.lastRef[src]
	t.lastRef[src] = LastTransactionRef{Hash: dataHash, Ordinal: prev.Ordinal + 1}
	return nil
}

// SetLastTransactionRefs bulk-restores the tracker, used by the restore path.
func (t *TransactionService) SetLastTransactionRefs(m map[Id]LastTransactionRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRef = make(map[Id]LastTransactionRef, len(m))
	for k, v := range m {
		t.lastRef[k] = v
	}
}

// LastTransactionRefs returns a snapshot copy, used by writeSnapshotInfoToDisk.
func (t *TransactionService) LastTransactionRefs() map[Id]LastTransactionRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Id]LastTransactionRef, len(t.lastRef))
	for k, v := range t.lastRef {
		out[k] = v
	}
	return out
}
