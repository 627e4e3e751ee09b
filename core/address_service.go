package core

// address_service.go – applies a snapshot's transaction effects to the
// per-address balance ledger. Grounded on ledger.go's Transfer/Mint/Burn
// balance-map pattern, narrowed from full UTXO/contract state to the
// subset applySnapshot needs.

import (
	"fmt"
	"sync"
)

// AddressService owns the per-address balance view that snapshot
// application mutates.
type AddressService struct {
	mu       sync.Mutex
	balances map[Id]int64
}

// NewAddressService returns an empty address ledger.
func NewAddressService() *AddressService {
	return &AddressService{balances: make(map[Id]int64)}
}

// BalanceOf returns the current balance for id.
func (a *AddressService) BalanceOf(id Id) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[id]
}

// TransferSnapshotTransaction applies one transaction edge's balance effect:
// debit the source address's parent, credit the destination's, per the
// parent ordering invariant (source before destination). A zero-amount
// ("dummy") transaction is a no-op.
func (a *AddressService) TransferSnapshotTransaction(tx Edge) error {
	if tx.Data.Amount == 0 {
		return nil
	}
	parents := tx.Parents()
	if len(parents) != 2 {
		return fmt.Errorf("transfer snapshot transaction: want 2 parents, got %d", len(parents))
	}
	src, dst := Id(parents[0].Hash), Id(parents[1].Hash)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[src] -= tx.Data.Amount
	a.balances[dst] += tx.Data.Amount
	return nil
}

// SetBalances bulk-restores the balance map, used by the restore path.
func (a *AddressService) SetBalances(m map[Id]int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances = make(map[Id]int64, len(m))
	for k, v := range m {
		a.balances[k] = v
	}
}

// Balances returns a snapshot copy of the current balance map, used by
// writeSnapshotInfoToDisk's AddressCache.
func (a *AddressService) Balances() map[Id]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[Id]int64, len(a.balances))
	for k, v := range a.balances {
		out[k] = v
	}
	return out
}
