// Package signer implements a keyfile-backed ledger.Signer for ed25519
// keys. Wallet-backed signing stays outside this repository; this signer
// exists for the CLI and for tooling that holds its own key.
package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ed25519Flag is the scheme flag the ledger prefixes to ed25519 keys and
// signatures.
const ed25519Flag byte = 0x00

// transaction intent: scope=TransactionData, version=0, app=Sui.
var txIntent = [3]byte{0, 0, 0}

// KeySigner signs transactions with a locally-held ed25519 key.
type KeySigner struct {
	priv ed25519.PrivateKey
	addr string
}

// New wraps an ed25519 private key.
func New(priv ed25519.PrivateKey) (*KeySigner, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("bad ed25519 private key length %d", len(priv))
	}
	return &KeySigner{priv: priv, addr: deriveAddress(priv.Public().(ed25519.PublicKey))}, nil
}

// FromSeedB64 builds a signer from a base64-encoded 32-byte seed, the way
// keys are exported by common wallet tooling.
func FromSeedB64(seed string) (*KeySigner, error) {
	raw, err := base64.StdEncoding.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("decode key seed: %w", err)
	}
	// Exports sometimes carry the scheme flag in front of the seed.
	if len(raw) == ed25519.SeedSize+1 && raw[0] == ed25519Flag {
		raw = raw[1:]
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("bad key seed length %d, want %d", len(raw), ed25519.SeedSize)
	}
	return New(ed25519.NewKeyFromSeed(raw))
}

// Generate creates a fresh random keypair.
func Generate() (*KeySigner, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return New(priv)
}

// Address implements ledger.Signer. The address is the blake2b-256 digest
// of the flag byte followed by the public key.
func (s *KeySigner) Address() string { return s.addr }

// SignTransaction implements ledger.Signer. The signature covers the
// blake2b-256 digest of the intent-prefixed transaction bytes and is
// serialized as flag || signature || pubkey, base64-encoded.
func (s *KeySigner) SignTransaction(txBytesB64 string) (string, error) {
	txBytes, err := base64.StdEncoding.DecodeString(txBytesB64)
	if err != nil {
		return "", fmt.Errorf("decode transaction bytes: %w", err)
	}

	msg := make([]byte, 0, len(txIntent)+len(txBytes))
	msg = append(msg, txIntent[:]...)
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(s.priv, digest[:])
	pub := s.priv.Public().(ed25519.PublicKey)

	serialized := make([]byte, 0, 1+len(sig)+len(pub))
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, pub...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}

func deriveAddress(pub ed25519.PublicKey) string {
	payload := make([]byte, 0, 1+len(pub))
	payload = append(payload, ed25519Flag)
	payload = append(payload, pub...)
	digest := blake2b.Sum256(payload)
	return "0x" + hex.EncodeToString(digest[:])
}
