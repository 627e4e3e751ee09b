package core

// identity.go – key and signature primitives: keypair handling, sign/
// verify, and address derivation. Grounded on wallet.go's ed25519 +
// SHA-256/RIPEMD-160 address pipeline, trimmed of its HD-derivation and
// BIP-39 mnemonic machinery (that belongs to an external wallet binary),
// and generalized to emit a base58 address with a version byte and
// checksum instead of a raw 20-byte account id.

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

// Id is a public key encoded as lowercase hex. It is immutable once
// constructed; derived views (address, bytes, public key) are recomputed
// on demand rather than cached, keeping Id trivially copyable and
// threadsafe.
type Id string

const addressVersionByte = 0x1C

// NewId wraps a public key as an Id.
func NewId(pub ed25519.PublicKey) Id {
	return Id(PublicKeyToHex(pub))
}

// PublicKey recovers the ed25519 public key this Id encodes.
func (id Id) PublicKey() (ed25519.PublicKey, error) {
	return HexToPublicKey(string(id))
}

// Address derives the base58-with-checksum address view of this Id.
func (id Id) Address() (string, error) {
	pub, err := id.PublicKey()
	if err != nil {
		return "", err
	}
	return PublicKeyToAddress(pub), nil
}

// Bytes returns the raw public key bytes this Id encodes.
func (id Id) Bytes() ([]byte, error) {
	return hex.DecodeString(string(id))
}

// Prefix20 returns the 20-byte RIPEMD-160(SHA-256(pubkey)) prefix used by
// address derivation, which is also the payload DecodeAddress returns.
func (id Id) Prefix20() ([20]byte, error) {
	pub, err := id.PublicKey()
	if err != nil {
		return [20]byte{}, err
	}
	return ripemdPrefix(pub), nil
}

// KeyPair is an ed25519 signing keypair. Constructed once and never mutated.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh random ed25519 keypair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(crand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate keypair: %w", err)
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// Id returns the Id view of this keypair's public key.
func (k KeyPair) Id() Id { return NewId(k.Public) }

// Sign produces a signature over bytes using the given private key.
func Sign(data []byte, priv ed25519.PrivateKey) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.New("sign: malformed private key")
	}
	return ed25519.Sign(priv, data), nil
}

// Verify checks that sig is a valid signature over data under pub.
func Verify(data, sig []byte, pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, data, sig)
}

// PublicKeyToHex round-trips a public key to its lowercase-hex Id encoding.
func PublicKeyToHex(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}

// HexToPublicKey is the inverse of PublicKeyToHex.
func HexToPublicKey(h string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("decode public key hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key: want %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}

// PublicKeyToAddress derives a stable base58 address from a public key:
// base58(version || RIPEMD160(SHA256(pub)) || checksum), where checksum is
// the first 4 bytes of SHA256(SHA256(version || payload)).
func PublicKeyToAddress(pub ed25519.PublicKey) string {
	payload := ripemdPrefix(pub)

	versioned := make([]byte, 0, 1+len(payload))
	versioned = append(versioned, addressVersionByte)
	versioned = append(versioned, payload[:]...)

	first := sha256.Sum256(versioned)
	second := sha256.Sum256(first[:])
	checksum := second[:4]

	full := append(versioned, checksum...)
	return base58.Encode(full)
}

// DecodeAddress validates and decodes a base58 address produced by
// PublicKeyToAddress, returning its 20-byte payload.
func DecodeAddress(addr string) ([20]byte, error) {
	var out [20]byte
	raw, err := base58.Decode(addr)
	if err != nil {
		return out, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 1+20+4 {
		return out, fmt.Errorf("decode address: bad length %d", len(raw))
	}
	versioned, checksum := raw[:1+20], raw[1+20:]
	first := sha256.Sum256(versioned)
	second := sha256.Sum256(first[:])
	if string(second[:4]) != string(checksum) {
		return out, errors.New("decode address: checksum mismatch")
	}
	copy(out[:], versioned[1:])
	return out, nil
}

func ripemdPrefix(pub ed25519.PublicKey) [20]byte {
	sha := sha256.Sum256(pub)
	r := ripemd160.New()
	r.Write(sha[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}
