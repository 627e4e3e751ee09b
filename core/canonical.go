package core

// canonical.go – canonical binary encoding and content hashing for every
// domain value in the snapshot core. Encoding is part of the network's wire
// contract: two honest nodes must produce byte-identical output for the
// same logical value, on every release.
//
// Layout: a one-byte tag identifying the record type, followed by its fields
// in declared order. Integers are fixed-width big-endian, strings are
// length-prefixed UTF-8, sequences are length-prefixed, optionals are a
// 0|1 presence byte followed by the value. There is no runtime-registered
// serializer and no global type registry: every encodable type gets an
// explicit case below.

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// Tag identifies the wire type of an encoded record.
type Tag byte

const (
	tagTypedEdgeHash Tag = iota + 1
	tagObservationEdge
	tagHashSignature
	tagSignatureBatch
	tagSignedObservationEdge
	tagLastTransactionRef
	tagTransactionEdgeData
	tagSnapshot
	tagStoredSnapshot
)

// SerializationError is returned only for programmer error (an unknown or
// unregistered type reaching Serialize); it is never returned for well-typed
// domain values.
type SerializationError struct {
	Value interface{}
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization: unsupported type %T", e.Value)
}

// encoder accumulates canonical bytes for one value.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) tag(t Tag) { e.buf.WriteByte(byte(t)) }

func (e *encoder) u8(b byte) { e.buf.WriteByte(b) }

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) i64(v int64) { e.u64(uint64(v)) }

func (e *encoder) f64(v float64) {
	e.u64(math.Float64bits(v))
}

func (e *encoder) str(s string) {
	e.u64(uint64(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) bytesField(b []byte) {
	e.u64(uint64(len(b)))
	e.buf.Write(b)
}

func (e *encoder) optStr(s *string) {
	if s == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	e.str(*s)
}

func (e *encoder) optI64(v *int64) {
	if v == nil {
		e.u8(0)
		return
	}
	e.u8(1)
	e.i64(*v)
}

func (e *encoder) seqLen(n int) { e.u64(uint64(n)) }

func (e *encoder) bytes() []byte { return e.buf.Bytes() }

// Serialize produces the canonical byte encoding of v. It returns a
// *SerializationError if v is not one of the types this package knows how
// to encode.
func Serialize(v interface{}) ([]byte, error) {
	e := &encoder{}
	switch t := v.(type) {
	case TypedEdgeHash:
		encodeTypedEdgeHash(e, t)
	case ObservationEdge:
		encodeObservationEdge(e, t)
	case HashSignature:
		encodeHashSignature(e, t)
	case SignatureBatch:
		encodeSignatureBatch(e, t)
	case SignedObservationEdge:
		encodeSignedObservationEdge(e, t)
	case LastTransactionRef:
		encodeLastTransactionRef(e, t)
	case TransactionEdgeData:
		encodeTransactionEdgeData(e, t)
	case Snapshot:
		encodeSnapshot(e, t)
	case StoredSnapshot:
		encodeStoredSnapshot(e, t)
	default:
		return nil, &SerializationError{Value: v}
	}
	return e.bytes(), nil
}

// Hash returns the lowercase-hex SHA-256 of v's canonical serialization.
func Hash(v interface{}) (string, error) {
	b, err := Serialize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// MustHash panics on SerializationError; used where v's type is statically
// known to be encodable (construction paths, not external input).
func MustHash(v interface{}) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}

func encodeTypedEdgeHash(e *encoder, t TypedEdgeHash) {
	e.tag(tagTypedEdgeHash)
	e.str(t.Hash)
	e.u8(byte(t.HashType))
	e.optStr(t.BaseHash)
}

func encodeObservationEdge(e *encoder, o ObservationEdge) {
	e.tag(tagObservationEdge)
	e.seqLen(len(o.Parents))
	for _, p := range o.Parents {
		encodeTypedEdgeHash(e, p)
	}
	encodeTypedEdgeHash(e, o.Data)
}

func encodeHashSignature(e *encoder, s HashSignature) {
	e.tag(tagHashSignature)
	e.str(s.SignatureHex)
	e.str(s.SignerID)
}

func encodeSignatureBatch(e *encoder, b SignatureBatch) {
	e.tag(tagSignatureBatch)
	e.str(b.Hash)
	sorted := b.sortedSignatures()
	e.seqLen(len(sorted))
	for _, s := range sorted {
		encodeHashSignature(e, s)
	}
}

func encodeSignedObservationEdge(e *encoder, s SignedObservationEdge) {
	e.tag(tagSignedObservationEdge)
	encodeSignatureBatch(e, s.SignatureBatch)
}

func encodeLastTransactionRef(e *encoder, r LastTransactionRef) {
	e.tag(tagLastTransactionRef)
	e.str(r.Hash)
	e.u64(r.Ordinal)
}

func encodeTransactionEdgeData(e *encoder, d TransactionEdgeData) {
	e.tag(tagTransactionEdgeData)
	e.i64(d.Amount)
	encodeLastTransactionRef(e, d.LastTxRef)
	e.optI64(d.Fee)
	e.i64(d.Salt)
}

// encodeSnapshot leaves out s.Hash: it is the content hash of the other
// fields, so Hash(s) is the same before and after s.Hash is filled in.
func encodeSnapshot(e *encoder, s Snapshot) {
	e.tag(tagSnapshot)
	e.str(s.LastSnapshotHash)
	e.seqLen(len(s.CheckpointBlocks))
	for _, h := range s.CheckpointBlocks {
		e.str(h)
	}
	ids := make([]string, 0, len(s.PublicReputation))
	for id := range s.PublicReputation {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	e.seqLen(len(ids))
	for _, id := range ids {
		e.str(id)
		e.f64(s.PublicReputation[Id(id)])
	}
}

func encodeStoredSnapshot(e *encoder, s StoredSnapshot) {
	e.tag(tagStoredSnapshot)
	encodeSnapshot(e, s.Snapshot)
	e.seqLen(len(s.CheckpointCaches))
	for _, c := range s.CheckpointCaches {
		e.str(c.SoeHash())
		e.i64(c.Height.Min)
		e.i64(c.Height.Max)
		e.seqLen(len(c.Transactions))
		for _, tx := range c.Transactions {
			encodeObservationEdge(e, tx.ObservationEdge)
			encodeSignedObservationEdge(e, tx.SignedObservationEdge)
			encodeTransactionEdgeData(e, tx.Data)
		}
		e.seqLen(len(c.Observations))
		for _, o := range c.Observations {
			encodeObservationEdge(e, o)
		}
		e.seqLen(len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			e.str(p)
		}
	}
}

// serializeSnapshotInfo encodes a SnapshotInfo for on-disk persistence. It is
// not content-hashed (SnapshotInfo is local recovery state, not a consensus
// value) so it does not carry a Tag or participate in Serialize's type
// switch; string-keyed maps are sorted for a deterministic byte layout.
func serializeSnapshotInfo(info SnapshotInfo) ([]byte, error) {
	e := &encoder{}
	snapBytes, err := Serialize(info.CurrentSnapshot)
	if err != nil {
		return nil, err
	}
	e.bytesField(snapBytes)
	e.i64(info.LastSnapshotHeight)
	e.str(info.NextSnapshotHash)

	checkpointHashes := make([]string, 0, len(info.Checkpoints))
	for h := range info.Checkpoints {
		checkpointHashes = append(checkpointHashes, h)
	}
	sort.Strings(checkpointHashes)
	e.seqLen(len(checkpointHashes))
	for _, h := range checkpointHashes {
		c := info.Checkpoints[h]
		e.str(h)
		e.i64(c.Height.Min)
		e.i64(c.Height.Max)
	}

	e.seqLen(len(info.WaitingForAcceptance))
	for _, h := range sortedKeys(info.WaitingForAcceptance) {
		e.str(h)
	}
	e.seqLen(len(info.Accepted))
	for _, h := range sortedKeys(info.Accepted) {
		e.str(h)
	}
	e.seqLen(len(info.Awaiting))
	for _, h := range sortedKeys(info.Awaiting) {
		e.str(h)
	}
	e.seqLen(len(info.InSnapshot))
	for _, h := range sortedKeys(info.InSnapshot) {
		e.str(h)
	}
	e.seqLen(len(info.Tips))
	for _, h := range sortedKeys(info.Tips) {
		e.str(h)
	}

	addrKeys := make([]string, 0, len(info.AddressCache))
	for k := range info.AddressCache {
		addrKeys = append(addrKeys, k)
	}
	sort.Strings(addrKeys)
	e.seqLen(len(addrKeys))
	for _, k := range addrKeys {
		e.str(k)
		e.i64(info.AddressCache[k])
	}

	refKeys := make([]string, 0, len(info.LastAcceptedTxRef))
	for k := range info.LastAcceptedTxRef {
		refKeys = append(refKeys, k)
	}
	sort.Strings(refKeys)
	e.seqLen(len(refKeys))
	for _, k := range refKeys {
		e.str(k)
		encodeLastTransactionRef(e, info.LastAcceptedTxRef[k])
	}

	usageKeys := make([]string, 0, len(info.Usages))
	for k := range info.Usages {
		usageKeys = append(usageKeys, k)
	}
	sort.Strings(usageKeys)
	e.seqLen(len(usageKeys))
	for _, k := range usageKeys {
		e.str(k)
		e.i64(info.Usages[k])
	}

	return e.bytes(), nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
