package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKey is a 32-byte ed25519 public key identifying an on-chain account.
type PublicKey [32]byte

// ParsePublicKey decodes a base58 address into a PublicKey. It rejects
// strings that do not decode to exactly 32 bytes.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode base58 address: %w", err)
	}
	if len(decoded) != 32 {
		return pk, fmt.Errorf("address must decode to 32 bytes, got %d", len(decoded))
	}
	copy(pk[:], decoded)
	return pk, nil
}

// MustPublicKey parses a known-good base58 address, panicking on failure.
// Reserved for package-level program ID constants.
func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(fmt.Sprintf("invalid public key constant %q: %v", s, err))
	}
	return pk
}

// String returns the base58 form of the key.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// IsZero reports whether the key is the all-zero value.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// Keypair holds an ed25519 signing key and its public half.
type Keypair struct {
	pub  PublicKey
	priv ed25519.PrivateKey
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	var pk PublicKey
	copy(pk[:], pub)
	return &Keypair{pub: pk, priv: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed. Deterministic;
// used in tests and for locally held server signers.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	var pk PublicKey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{pub: pk, priv: priv}, nil
}

// PublicKey returns the public half.
func (kp *Keypair) PublicKey() PublicKey {
	return kp.pub
}

// Sign signs the message with the private key.
func (kp *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.priv, message)
}
