package solana

import (
	"bytes"
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

func TestParsePublicKey(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	encoded := base58.Encode(raw)

	pk, err := ParsePublicKey(encoded)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !bytes.Equal(pk[:], raw) {
		t.Errorf("decoded bytes mismatch")
	}
	if pk.String() != encoded {
		t.Errorf("round trip: expected %s, got %s", encoded, pk.String())
	}
}

func TestParsePublicKey_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"invalid base58", "0OIl"},
		{"too short", base58.Encode(make([]byte, 16))},
		{"too long", base58.Encode(make([]byte, 33))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePublicKey(tt.input); err == nil {
				t.Errorf("expected error for %q", tt.input)
			}
		})
	}
}

func TestMustPublicKey_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	MustPublicKey("not-a-key")
}

func TestPublicKey_IsZero(t *testing.T) {
	var zero PublicKey
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}

	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	if kp.PublicKey().IsZero() {
		t.Error("generated key should not be zero")
	}
}

func TestKeypair_SignVerify(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	msg := []byte("transaction message bytes")
	sig := kp.Sign(msg)
	if len(sig) != 64 {
		t.Fatalf("expected 64-byte signature, got %d", len(sig))
	}

	pkBytes := kp.PublicKey()
	pub := ed25519.PublicKey(pkBytes[:])
	if !ed25519.Verify(pub, msg, sig) {
		t.Error("signature did not verify")
	}
	if ed25519.Verify(pub, []byte("other message"), sig) {
		t.Error("signature verified against wrong message")
	}
}

func TestKeypairFromSeed_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)

	a, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}
	b, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}

	if a.PublicKey() != b.PublicKey() {
		t.Error("same seed should derive the same public key")
	}
}

func TestKeypairFromSeed_WrongLength(t *testing.T) {
	if _, err := KeypairFromSeed(make([]byte, 16)); err == nil {
		t.Error("expected error for short seed")
	}
	if _, err := KeypairFromSeed(make([]byte, 64)); err == nil || !strings.Contains(err.Error(), "32") {
		t.Errorf("expected seed length error, got %v", err)
	}
}
