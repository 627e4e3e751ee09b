package core

// transaction_edge.go – the transaction half of the transaction model:
// LastTransactionRef, TransactionEdgeData, Edge[D] and the
// CreateTransactionEdge constructor. Generalized from transactions.go's
// HashTx/Sign/VerifySig trio and transaction_hash.go's hashing helpers,
// moving from a flat Transaction struct to the Edge/ObservationEdge/
// SignedObservationEdge shapes a DAG ledger requires.

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// LastTransactionRef disambiguates which prior transaction on an address's
// chain a new transaction extends.
type LastTransactionRef struct {
	Hash    string
	Ordinal uint64
}

// EmptyLastTransactionRef is the sentinel "no prior transaction" reference.
var EmptyLastTransactionRef = LastTransactionRef{Hash: "", Ordinal: 0}

// TransactionEdgeData is the data payload of a transaction edge. Salt is
// random per construction so that two transactions with identical
// (src, dst, amount) still hash to distinct values.
type TransactionEdgeData struct {
	Amount    int64
	LastTxRef LastTransactionRef
	Fee       *int64
	Salt      int64
}

// Edge pairs an ObservationEdge and its SignedObservationEdge with typed
// data D. BaseHash is the signature batch's hash; Parents is the
// observation edge's parent sequence.
type Edge struct {
	ObservationEdge       ObservationEdge
	SignedObservationEdge SignedObservationEdge
	Data                  TransactionEdgeData
}

func (e Edge) BaseHash() string         { return e.SignedObservationEdge.BaseHash() }
func (e Edge) Parents() []TypedEdgeHash { return e.ObservationEdge.Parents }
func (e Edge) DataHash() TypedEdgeHash  { return e.ObservationEdge.Data }

// CreateTransactionEdge builds a self-verifying, signed transaction edge:
//  1. if normalize, scale amount to base units (10^8 fixed point).
//  2. build TransactionEdgeData with a fresh random salt.
//  3. build an ObservationEdge with address parents [src, dst] and a
//     TransactionDataHash data vertex.
//  4. hash the observation edge, sign the hash with the keypair's private
//     key, and wrap the signature in a single-element SignatureBatch.
//  5. return the assembled Edge.
//
// The result's SignedObservationEdge.BaseHash always equals Hash(oe), and
// remains self-verifying under any later SignatureBatch.Combine.
func CreateTransactionEdge(src, dst Id, lastTxRef LastTransactionRef, amount int64, kp KeyPair, fee *int64, normalize bool) (Edge, error) {
	if normalize {
		amount *= 100_000_000
	}

	salt, err := randomInt64()
	if err != nil {
		return Edge{}, fmt.Errorf("create transaction edge: %w", err)
	}

	data := TransactionEdgeData{
		Amount:    amount,
		LastTxRef: lastTxRef,
		Fee:       fee,
		Salt:      salt,
	}

	dataHash, err := Hash(data)
	if err != nil {
		return Edge{}, fmt.Errorf("create transaction edge: hash data: %w", err)
	}

	oe := ObservationEdge{
		Parents: []TypedEdgeHash{
			NewTypedEdgeHash(string(src), AddressHash),
			NewTypedEdgeHash(string(dst), AddressHash),
		},
		Data: NewTypedEdgeHash(dataHash, TransactionDataHash),
	}

	soe, err := signObservationEdge(oe, kp)
	if err != nil {
		return Edge{}, fmt.Errorf("create transaction edge: %w", err)
	}

	return Edge{ObservationEdge: oe, SignedObservationEdge: soe, Data: data}, nil
}

// signObservationEdge hashes oe, signs the hash with kp.Private, and wraps
// the signature in a single-element SignatureBatch keyed by the oe hash.
func signObservationEdge(oe ObservationEdge, kp KeyPair) (SignedObservationEdge, error) {
	oeHash, err := Hash(oe)
	if err != nil {
		return SignedObservationEdge{}, err
	}
	sigBytes, err := Sign([]byte(oeHash), kp.Private)
	if err != nil {
		return SignedObservationEdge{}, err
	}
	sig := HashSignature{
		SignatureHex: hex.EncodeToString(sigBytes),
		SignerID:     kp.Id(),
	}
	batch := NewSignatureBatch(oeHash, sig)
	return SignedObservationEdge{SignatureBatch: batch}, nil
}

func randomInt64() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}
