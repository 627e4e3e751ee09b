package core

// peer_client.go – the external peer HTTP surface, kept as a documented
// interface seam rather than an HTTP implementation: gossip transport and
// peer discovery live outside this core (see DESIGN.md for the transport
// libraries this keeps unwired). SnapshotService never calls PeerClient
// directly; it is the shape a future transport adapter would implement to
// drive RedownloadStorage and answer the same queries of other peers.

import "context"

// SnapshotProposal is what a peer reports it would include in a snapshot
// at a given height, before consensus on the accepted hash is reached.
type SnapshotProposal struct {
	Height           int64
	CheckpointBlocks []string
}

// LatestMajorityHeight is the height a quorum of peers has agreed on,
// mirroring what RedownloadStorage caches locally.
type LatestMajorityHeight struct {
	Height int64
}

// PeerClient is the Go-shaped equivalent of the node's peer HTTP surface.
// Each method corresponds to one GET endpoint; no implementation is
// provided here since the gossip/HTTP transport that would back it lives
// outside this core.
type PeerClient interface {
	// SnapshotStored lists locally stored snapshot hashes.
	// GET /snapshot/stored
	SnapshotStored(ctx context.Context) ([]string, error)

	// SnapshotStoredByHash fetches the serialized StoredSnapshot for hash.
	// GET /snapshot/stored/{hash}
	SnapshotStoredByHash(ctx context.Context, hash string) ([]byte, error)

	// SnapshotCreated lists proposals this peer has created, by height.
	// GET /snapshot/created
	SnapshotCreated(ctx context.Context) (map[int64]SnapshotProposal, error)

	// SnapshotAccepted lists accepted snapshot hashes, by height.
	// GET /snapshot/accepted
	SnapshotAccepted(ctx context.Context) (map[int64]string, error)

	// PeerSnapshotCreated lists proposals a specific peer has created, by
	// height. A nil map with a nil error means the peer reported none.
	// GET /peer/{idHex}/snapshot/created
	PeerSnapshotCreated(ctx context.Context, peer Id) (map[int64]SnapshotProposal, error)

	// SnapshotNextHeight reports the peer's identity and the height it
	// expects to snapshot next.
	// GET /snapshot/nextHeight
	SnapshotNextHeight(ctx context.Context) (Id, int64, error)

	// SnapshotInfo fetches the peer's current SnapshotInfo.
	// GET /snapshot/info
	SnapshotInfo(ctx context.Context) ([]byte, error)

	// SnapshotInfoByHash fetches the SnapshotInfo recorded for hash.
	// GET /snapshot/info/{hash}
	SnapshotInfoByHash(ctx context.Context, hash string) ([]byte, error)

	// LatestMajorityHeight fetches the peer's view of quorum height.
	// GET /latestMajorityHeight
	LatestMajorityHeight(ctx context.Context) (LatestMajorityHeight, error)
}
