// Package spltoken builds the instructions needed to create an SPL token
// mint, open an associated token account, and issue the initial supply.
package spltoken

import "stablemint/internal/solana"

// Well-known program and sysvar addresses.
var (
	SystemProgramID          = solana.MustPublicKey("11111111111111111111111111111111")
	TokenProgramID           = solana.MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = solana.MustPublicKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SysvarRentID             = solana.MustPublicKey("SysvarRent111111111111111111111111111111111")
)

// MintAccountSize is the serialized size of an SPL mint account.
const MintAccountSize = 82

// MaxDecimals bounds the supported decimal precision of a mint.
const MaxDecimals = 18

// SPL Token instruction indices (single-byte discriminators).
const (
	insInitializeMint uint8 = 0
	insSetAuthority   uint8 = 6
	insMintTo         uint8 = 7
)

// authorityMintTokens is the SetAuthority type for the minting privilege.
const authorityMintTokens uint8 = 0
