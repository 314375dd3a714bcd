package spltoken

import (
	"bytes"
	"encoding/binary"

	"stablemint/internal/solana"
)

// CreateAccount builds the system program instruction funding a new
// account owned by the token program.
func CreateAccount(payer, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) solana.Instruction {
	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, uint32(0)) // CreateAccount index
	binary.Write(&data, binary.LittleEndian, lamports)
	binary.Write(&data, binary.LittleEndian, space)
	data.Write(owner[:])

	return solana.Instruction{
		ProgramID: SystemProgramID,
		Accounts: []solana.AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: newAccount, IsSigner: true, IsWritable: true},
		},
		Data: data.Bytes(),
	}
}

// InitializeMint builds the instruction setting decimals and authorities
// on a freshly created mint account. A zero freezeAuthority relinquishes
// the freeze privilege at creation.
func InitializeMint(mint solana.PublicKey, decimals uint8, mintAuthority, freezeAuthority solana.PublicKey) solana.Instruction {
	var data bytes.Buffer
	data.WriteByte(insInitializeMint)
	data.WriteByte(decimals)
	data.Write(mintAuthority[:])
	if freezeAuthority.IsZero() {
		data.WriteByte(0)
	} else {
		data.WriteByte(1)
		data.Write(freezeAuthority[:])
	}

	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts: []solana.AccountMeta{
			{PubKey: mint, IsWritable: true},
			{PubKey: SysvarRentID},
		},
		Data: data.Bytes(),
	}
}

// CreateAssociatedTokenAccount builds the idempotent-by-derivation
// instruction opening owner's holding account for the mint. The address is
// deterministic; returns it alongside the instruction.
func CreateAssociatedTokenAccount(payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, err := DeriveAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.Instruction{}, solana.PublicKey{}, err
	}

	ins := solana.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsWritable: true},
			{PubKey: owner},
			{PubKey: mint},
			{PubKey: SystemProgramID},
			{PubKey: TokenProgramID},
		},
	}
	return ins, ata, nil
}

// MintTo builds the instruction crediting amount base units to dest.
func MintTo(mint, dest, authority solana.PublicKey, amount uint64) solana.Instruction {
	var data bytes.Buffer
	data.WriteByte(insMintTo)
	binary.Write(&data, binary.LittleEndian, amount)

	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts: []solana.AccountMeta{
			{PubKey: mint, IsWritable: true},
			{PubKey: dest, IsWritable: true},
			{PubKey: authority, IsSigner: true},
		},
		Data: data.Bytes(),
	}
}

// TransferMintAuthority builds the SetAuthority instruction handing the
// minting privilege from current to next.
func TransferMintAuthority(mint, current, next solana.PublicKey) solana.Instruction {
	var data bytes.Buffer
	data.WriteByte(insSetAuthority)
	data.WriteByte(authorityMintTokens)
	data.WriteByte(1) // new authority present
	data.Write(next[:])

	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts: []solana.AccountMeta{
			{PubKey: mint, IsWritable: true},
			{PubKey: current, IsSigner: true},
		},
		Data: data.Bytes(),
	}
}

// DeriveAssociatedTokenAddress computes the deterministic per-owner,
// per-mint holding account address.
func DeriveAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{owner[:], TokenProgramID[:], mint[:]}
	ata, _, err := solana.FindProgramAddress(seeds, AssociatedTokenProgramID)
	return ata, err
}
