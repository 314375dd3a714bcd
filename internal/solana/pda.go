package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

const maxSeedLength = 32

// FindProgramAddress derives a Program Derived Address for the given seeds
// and program. It walks the bump seed down from 255 until the resulting
// hash falls off the ed25519 curve, which guarantees no private key exists
// for the address.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PublicKey{}, 0, fmt.Errorf("seed exceeds %d bytes", maxSeedLength)
		}
	}

	for bump := uint8(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID[:]...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			var pk PublicKey
			copy(pk[:], hash[:])
			return pk, bump, nil
		}
	}

	return PublicKey{}, 0, fmt.Errorf("no viable bump seed found")
}

// isOnCurve reports whether the 32 bytes decode to a valid ed25519 point.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
