package core

// observation_service.go – tracks observation edges still pending removal
// once their owning checkpoint block is snapshotted. Grounded on
// governance_reputation_voting.go's pending-item set pattern, narrowed to a
// hash-keyed removal set.

import "sync"

// ObservationService tracks observation edges awaiting removal once their
// checkpoint block is committed into a snapshot.
type ObservationService struct {
	mu      sync.Mutex
	pending map[string]ObservationEdge
}

// NewObservationService returns an empty tracker.
func NewObservationService() *ObservationService {
	return &ObservationService{pending: make(map[string]ObservationEdge)}
}

// Track registers an observation edge as pending, identified by its
// canonical hash.
func (o *ObservationService) Track(oe ObservationEdge) error {
	h, err := Hash(oe)
	if err != nil {
		return wrapErr(KindSnapshotUnexpectedError, "track observation edge", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending[h] = oe
	return nil
}

// RemoveObservation drops a pending observation edge, the effect
// applySnapshot applies for every observation attached to a snapshotted
// checkpoint block.
func (o *ObservationService) RemoveObservation(oe ObservationEdge) error {
	h, err := Hash(oe)
	if err != nil {
		return wrapErr(KindSnapshotUnexpectedError, "remove observation", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.pending, h)
	return nil
}

// Pending returns the number of observation edges still tracked.
func (o *ObservationService) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}
