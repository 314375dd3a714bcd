package solana

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

// AccountMeta describes one account an instruction touches.
type AccountMeta struct {
	PubKey     PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// TransactionBuilder assembles a legacy (non-versioned) transaction: a fee
// payer, an ordered instruction list, a recent blockhash, and signatures.
type TransactionBuilder struct {
	payer        PublicKey
	instructions []Instruction
	blockhash    string

	message    []byte
	accounts   []compiledAccount
	signatures map[PublicKey][]byte
}

type compiledAccount struct {
	key        PublicKey
	isSigner   bool
	isWritable bool
}

// NewTransactionBuilder creates a builder with the fee payer set.
func NewTransactionBuilder(payer PublicKey) *TransactionBuilder {
	return &TransactionBuilder{
		payer:      payer,
		signatures: make(map[PublicKey][]byte),
	}
}

// Add appends an instruction. Instructions execute in insertion order and
// the transaction is atomic: any instruction failure reverts all of them.
func (b *TransactionBuilder) Add(ins Instruction) *TransactionBuilder {
	b.instructions = append(b.instructions, ins)
	return b
}

// SetBlockhash attaches the recent blockhash the network uses to expire
// the transaction.
func (b *TransactionBuilder) SetBlockhash(blockhash string) *TransactionBuilder {
	b.blockhash = blockhash
	return b
}

// compile flattens instruction account metas into the message account list:
// fee payer first, then writable signers, read-only signers, writable
// non-signers, read-only non-signers. Duplicate keys merge, privileges OR.
func (b *TransactionBuilder) compile() error {
	if b.blockhash == "" {
		return fmt.Errorf("blockhash not set")
	}
	if len(b.instructions) == 0 {
		return fmt.Errorf("no instructions")
	}

	merged := make(map[PublicKey]*compiledAccount)
	order := make([]PublicKey, 0, 16)

	upsert := func(key PublicKey, signer, writable bool) {
		if acc, ok := merged[key]; ok {
			acc.isSigner = acc.isSigner || signer
			acc.isWritable = acc.isWritable || writable
			return
		}
		merged[key] = &compiledAccount{key: key, isSigner: signer, isWritable: writable}
		order = append(order, key)
	}

	upsert(b.payer, true, true)
	for _, ins := range b.instructions {
		for _, meta := range ins.Accounts {
			upsert(meta.PubKey, meta.IsSigner, meta.IsWritable)
		}
		upsert(ins.ProgramID, false, false)
	}

	accounts := make([]compiledAccount, 0, len(order))
	for _, key := range order {
		accounts = append(accounts, *merged[key])
	}

	rank := func(a compiledAccount) int {
		switch {
		case a.key == b.payer:
			return 0
		case a.isSigner && a.isWritable:
			return 1
		case a.isSigner:
			return 2
		case a.isWritable:
			return 3
		default:
			return 4
		}
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return rank(accounts[i]) < rank(accounts[j])
	})

	b.accounts = accounts

	msg, err := b.serializeMessage()
	if err != nil {
		return err
	}
	b.message = msg
	return nil
}

// Message returns the serialized message bytes that signers sign,
// compiling on first call.
func (b *TransactionBuilder) Message() ([]byte, error) {
	if b.message == nil {
		if err := b.compile(); err != nil {
			return nil, fmt.Errorf("compile message: %w", err)
		}
	}
	return b.message, nil
}

// RequiredSigners returns the signer keys in signature order.
func (b *TransactionBuilder) RequiredSigners() ([]PublicKey, error) {
	if _, err := b.Message(); err != nil {
		return nil, err
	}

	var signers []PublicKey
	for _, acc := range b.accounts {
		if acc.isSigner {
			signers = append(signers, acc.key)
		}
	}
	return signers, nil
}

// AddSignature records a signature for the given signer. The builder
// accepts partial signing: the mint key signs first, the wallet later.
func (b *TransactionBuilder) AddSignature(signer PublicKey, signature []byte) error {
	if len(signature) != 64 {
		return fmt.Errorf("signature must be 64 bytes, got %d", len(signature))
	}
	if _, err := b.Message(); err != nil {
		return err
	}

	for _, acc := range b.accounts {
		if acc.key == signer && acc.isSigner {
			b.signatures[signer] = signature
			return nil
		}
	}
	return fmt.Errorf("%s is not a required signer", signer)
}

// Serialize produces the base64 wire encoding accepted by sendTransaction.
// Fails if any required signature is missing.
func (b *TransactionBuilder) Serialize() (string, error) {
	msg, err := b.Message()
	if err != nil {
		return "", err
	}

	signers, err := b.RequiredSigners()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Write(encodeShortVec(len(signers)))
	for _, signer := range signers {
		sig, ok := b.signatures[signer]
		if !ok {
			return "", fmt.Errorf("missing signature for %s", signer)
		}
		buf.Write(sig)
	}
	buf.Write(msg)

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// serializeMessage encodes the legacy message: header, account keys,
// blockhash, instructions.
func (b *TransactionBuilder) serializeMessage() ([]byte, error) {
	var numRequiredSignatures, numReadonlySigned, numReadonlyUnsigned int
	index := make(map[PublicKey]int, len(b.accounts))
	for i, acc := range b.accounts {
		index[acc.key] = i
		if acc.isSigner {
			numRequiredSignatures++
			if !acc.isWritable {
				numReadonlySigned++
			}
		} else if !acc.isWritable {
			numReadonlyUnsigned++
		}
	}

	blockhash, err := base58.Decode(b.blockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(blockhash) != 32 {
		return nil, fmt.Errorf("blockhash must decode to 32 bytes, got %d", len(blockhash))
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(numRequiredSignatures))
	buf.WriteByte(byte(numReadonlySigned))
	buf.WriteByte(byte(numReadonlyUnsigned))

	buf.Write(encodeShortVec(len(b.accounts)))
	for _, acc := range b.accounts {
		buf.Write(acc.key[:])
	}

	buf.Write(blockhash)

	buf.Write(encodeShortVec(len(b.instructions)))
	for _, ins := range b.instructions {
		programIdx, ok := index[ins.ProgramID]
		if !ok {
			return nil, fmt.Errorf("program %s not in account list", ins.ProgramID)
		}
		buf.WriteByte(byte(programIdx))

		buf.Write(encodeShortVec(len(ins.Accounts)))
		for _, meta := range ins.Accounts {
			accIdx, ok := index[meta.PubKey]
			if !ok {
				return nil, fmt.Errorf("account %s not in account list", meta.PubKey)
			}
			buf.WriteByte(byte(accIdx))
		}

		buf.Write(encodeShortVec(len(ins.Data)))
		buf.Write(ins.Data)
	}

	return buf.Bytes(), nil
}

// encodeShortVec encodes a length in the compact-u16 framing Solana uses
// for variable-length arrays.
func encodeShortVec(n int) []byte {
	var out []byte
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}
