package cryptoprovider

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"shieldedledger/ledgerwire"
)

// transmissionKey derives the X25519 public key an IVK's owner can later
// open shared secrets against.
func transmissionKey(ivk IncomingViewingKey) ([32]byte, error) {
	seed := x25519Seed(ivk)
	priv, err := ecdh.X25519().NewPrivateKey(seed[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("deriving transmission key: %w", err)
	}
	var out [32]byte
	copy(out[:], priv.PublicKey().Bytes())
	return out, nil
}

// CommitNote computes the extracted note commitment cmx for a note.
func CommitNote(n ledgerwire.Note) ledgerwire.Hash256 {
	h := sha256.New()
	var valueBuf [8]byte
	binary.BigEndian.PutUint64(valueBuf[:], n.Value)
	h.Write(n.Recipient[:])
	h.Write(valueBuf[:])
	h.Write(n.Rho[:])
	h.Write(n.RSeed[:])
	var out ledgerwire.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveNullifier computes the nullifier revealed when fvk spends n. Two
// notes with the same content but different owning keys produce different
// nullifiers, as required for the double-spend index to key on revealed
// secrets rather than note contents.
func DeriveNullifier(fvk FullViewingKey, n ledgerwire.Note) ledgerwire.Hash256 {
	cmx := CommitNote(n)
	h := sha256.New()
	h.Write(fvk[:])
	h.Write(cmx[:])
	var out ledgerwire.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// memoSize is the memo width left in EncCiphertext once the note fields,
// AES-GCM's 12-byte nonce and its 16-byte tag are accounted for.
const memoSize = ledgerwire.EncCiphertextSize - 12 - 16 - (8 + ledgerwire.RawAddressSize + 32 + 32)

// notePlaintextLen is the plaintext width packed into EncCiphertext
// before AES-GCM's nonce+tag overhead; with memoSize as above the sealed
// note is exactly EncCiphertextSize bytes.
const notePlaintextLen = 8 + ledgerwire.RawAddressSize + 32 + 32 + memoSize // value, recipient, rho, rseed, memo

// encryptNote seals n (plus memo) under sharedSecret, producing exactly
// EncCiphertextSize bytes (nonce || ciphertext, zero-padded).
func encryptNote(n ledgerwire.Note, memo []byte, sharedSecret [32]byte) ([ledgerwire.EncCiphertextSize]byte, error) {
	var out [ledgerwire.EncCiphertextSize]byte
	if len(memo) > memoSize {
		return out, ledgerwire.ErrMemoTooLarge
	}
	paddedMemo := make([]byte, memoSize)
	copy(paddedMemo, memo)

	plaintext := make([]byte, 0, notePlaintextLen)
	var valueBuf [8]byte
	binary.BigEndian.PutUint64(valueBuf[:], n.Value)
	plaintext = append(plaintext, valueBuf[:]...)
	plaintext = append(plaintext, n.Recipient[:]...)
	plaintext = append(plaintext, n.Rho[:]...)
	plaintext = append(plaintext, n.RSeed[:]...)
	plaintext = append(plaintext, paddedMemo...)

	block, err := aes.NewCipher(sharedSecret[:])
	if err != nil {
		return out, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return out, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return out, err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	if len(sealed) > len(out) {
		return out, fmt.Errorf("encrypted note overflows action ciphertext width")
	}
	copy(out[:], sealed)
	return out, nil
}

// decryptNote is the inverse of encryptNote.
func decryptNote(ct [ledgerwire.EncCiphertextSize]byte, sharedSecret [32]byte) (ledgerwire.Note, []byte, error) {
	var note ledgerwire.Note
	block, err := aes.NewCipher(sharedSecret[:])
	if err != nil {
		return note, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return note, nil, err
	}
	nonceSize := gcm.NonceSize()
	sealedLen := nonceSize + notePlaintextLen + gcm.Overhead()
	if sealedLen > len(ct) {
		return note, nil, fmt.Errorf("ciphertext too short")
	}
	sealed := ct[:sealedLen]
	nonce, body := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return note, nil, err
	}
	if len(plaintext) < notePlaintextLen {
		return note, nil, fmt.Errorf("invalid note plaintext length")
	}

	note.Value = binary.BigEndian.Uint64(plaintext[0:8])
	copy(note.Recipient[:], plaintext[8:8+ledgerwire.RawAddressSize])
	off := 8 + ledgerwire.RawAddressSize
	copy(note.Rho[:], plaintext[off:off+32])
	copy(note.RSeed[:], plaintext[off+32:off+64])
	memo := plaintext[off+64 : off+64+memoSize]
	return note, memo, nil
}
