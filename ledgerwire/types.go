// Package ledgerwire defines the on-chain wire shapes shared by every layer
// of the ledger: addresses, transparent inputs/outputs, shielded actions,
// transactions and blocks. Nothing in this package touches storage or
// cryptography directly; it is the vocabulary the rest of the module speaks.
package ledgerwire

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// Error kinds surfaced to command callers. Callers type-switch or
// errors.Is against these sentinels rather than parsing messages.
var (
	ErrMemoTooLarge      = errors.New("memo exceeds the note ciphertext's memo width")
	ErrInvalidProof      = errors.New("invalid zk-SNARK proof")
	ErrInvalidNullifier  = errors.New("nullifier already present")
	ErrValueBalance      = errors.New("value balance does not satisfy conservation")
	ErrInvalidCommitment = errors.New("invalid note commitment")
	ErrInvalidAddress    = errors.New("invalid shielded address")
	ErrIntegrity         = errors.New("persisted bytes fail structural decoding")
)

const (
	// NullifierSize is the width of a revealed nullifier, in bytes.
	NullifierSize = 32
	// CommitmentSize is the width of an extracted note commitment, in bytes.
	CommitmentSize = 32
	// RawAddressSize is the width of a raw (pre-base58check) shielded address.
	RawAddressSize = 43
	// EncCiphertextSize is the width of an action's encrypted note ciphertext.
	EncCiphertextSize = 580
	// OutCiphertextSize is the width of an action's encrypted outgoing ciphertext.
	OutCiphertextSize = 80
	// ValueCommitmentSize is the width of an action's value commitment (cv_net).
	ValueCommitmentSize = 32
)

// Hash256 is a 32-byte digest, used for note commitments, nullifiers and
// frontier leaves alike.
type Hash256 [32]byte

func (h Hash256) String() string { return hex.EncodeToString(h[:]) }

// Bytes returns a defensive copy of the underlying array.
func (h Hash256) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

// HashFromBytes builds a Hash256 from a slice, requiring an exact 32-byte width.
func HashFromBytes(b []byte) (Hash256, error) {
	var h Hash256
	if len(b) != 32 {
		return h, fmt.Errorf("%w: hash width %d, want 32", ErrIntegrity, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Action is one atomic shielded spend+output pair inside a bundle. Byte
// widths are exact per the crypto provider's wire contract.
type Action struct {
	Nullifier       Hash256 // nf: revealed nullifier of the spent note
	RandomizedKey   Hash256 // rk: randomized verification key
	Cmx             Hash256 // cmx: extracted note commitment of the new note
	EphemeralKey    Hash256 // epk
	EncCiphertext   [EncCiphertextSize]byte
	OutCiphertext   [OutCiphertextSize]byte
	ValueCommitment [ValueCommitmentSize]byte // cv_net
}

// Bundle is the cryptographically-authorized collection of actions produced
// by the crypto provider. The ledger treats it as opaque beyond the fields
// needed for the value-balance equation and for walking cmx/nullifiers.
type Bundle struct {
	Anchor       Hash256
	ValueBalance int64
	Actions      []Action
	Tag          Hash256 // simulated binding signature / proof digest
	Authorized   bool    // set by the crypto provider once verify_bundle succeeds
}

// TxIn references a transparent UTXO being consumed.
type TxIn struct {
	UTXOID uint64
}

// TxOut is a new transparent output of the given value.
type TxOut struct {
	Value uint64
}

// Transaction is the uniform on-chain shape: zero or more transparent
// inputs/outputs and an optional shielded bundle. There are no "deposit" or
// "shield" subtypes — the populated fields alone determine behavior.
type Transaction struct {
	Inputs  []TxIn
	Outputs []TxOut
	Bundle  *Bundle // nil when the transaction is purely transparent
}

// Nullifiers returns every nullifier revealed by this transaction's bundle,
// in action order.
func (t *Transaction) Nullifiers() []Hash256 {
	if t.Bundle == nil {
		return nil
	}
	out := make([]Hash256, len(t.Bundle.Actions))
	for i, a := range t.Bundle.Actions {
		out[i] = a.Nullifier
	}
	return out
}

// Commitments returns every extracted note commitment produced by this
// transaction's bundle, in action order.
func (t *Transaction) Commitments() []Hash256 {
	if t.Bundle == nil {
		return nil
	}
	out := make([]Hash256, len(t.Bundle.Actions))
	for i, a := range t.Bundle.Actions {
		out[i] = a.Cmx
	}
	return out
}

// ValueBalance returns the bundle's signed Orchard value balance, or 0 for a
// purely transparent transaction.
func (t *Transaction) ValueBalance() int64 {
	if t.Bundle == nil {
		return 0
	}
	return t.Bundle.ValueBalance
}

// Block is an ordered list of transactions connected atomically by the
// Block Engine. Blocks never mutate once connected.
type Block struct {
	ID           uint64
	Fee          uint64
	HasFrontier  bool
	Transactions []Transaction
}

// Address is the raw 43-byte shielded recipient, carried on the wire as a
// base58check string.
type Address [RawAddressSize]byte

// String renders the address as base58check: payload + 4-byte checksum.
func (a Address) String() string {
	payload := a[:]
	checksum := sha256.Sum256(payload)
	full := append(append([]byte{}, payload...), checksum[:4]...)
	return base58.Encode(full)
}

// ParseAddress decodes and checksum-verifies a base58check address string.
func ParseAddress(s string) (Address, error) {
	var addr Address
	decoded := base58.Decode(s)
	if len(decoded) != RawAddressSize+4 {
		return addr, ErrInvalidAddress
	}
	payload, checksum := decoded[:RawAddressSize], decoded[RawAddressSize:]
	want := sha256.Sum256(payload)
	for i := 0; i < 4; i++ {
		if checksum[i] != want[i] {
			return addr, ErrInvalidAddress
		}
	}
	copy(addr[:], payload)
	return addr, nil
}

// Note is a shielded value record. Commitment and nullifier derivation are
// delegated to the crypto provider; Note itself is inert data.
type Note struct {
	Recipient Address
	Value     uint64
	Rho       Hash256
	RSeed     Hash256
}
