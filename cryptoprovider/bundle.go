package cryptoprovider

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"shieldedledger/ledgerwire"
)

// SpendRequest asks the bundle builder to consume an owned note.
type SpendRequest struct {
	Note ledgerwire.Note
}

// OutputRequest asks the bundle builder to create a new note for Recipient.
type OutputRequest struct {
	Recipient ledgerwire.Address
	Value     uint64
	Memo      []byte
}

func randomHash() (ledgerwire.Hash256, error) {
	var h ledgerwire.Hash256
	_, err := rand.Read(h[:])
	return h, err
}

func valueCommitment(value uint64, balanceSign int64) [ledgerwire.ValueCommitmentSize]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	h := sha256.New()
	h.Write(buf[:])
	h.Write([]byte{byte(balanceSign)})
	var out [ledgerwire.ValueCommitmentSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

func sealOutgoing(fvk FullViewingKey, recipient ledgerwire.Address) ([ledgerwire.OutCiphertextSize]byte, error) {
	var out [ledgerwire.OutCiphertextSize]byte
	ock := sha256.Sum256(append(append([]byte{}, fvk[:]...), []byte("OVK")...))
	h := sha256.New()
	h.Write(ock[:])
	h.Write(recipient[:])
	copy(out[:], h.Sum(nil))
	return out, nil
}

// BuildBundle assembles a shielded bundle from staged spends and outputs
// against anchor, following §4.5's bundle-required policy: a transaction
// with no spends and no outputs is purely transparent and yields an absent
// (nil) bundle rather than an empty one.
func BuildBundle(fvk FullViewingKey, anchor ledgerwire.Hash256, spends []SpendRequest, outputs []OutputRequest) (*ledgerwire.Bundle, error) {
	n := len(spends)
	if len(outputs) > n {
		n = len(outputs)
	}
	if n == 0 {
		return nil, nil
	}

	actions := make([]ledgerwire.Action, n)
	var balance int64

	for i := 0; i < n; i++ {
		var action ledgerwire.Action

		if i < len(spends) {
			note := spends[i].Note
			action.Nullifier = DeriveNullifier(fvk, note)
			rk, err := randomHash()
			if err != nil {
				return nil, err
			}
			action.RandomizedKey = rk
			balance += int64(note.Value)
		} else {
			dummy, err := randomHash()
			if err != nil {
				return nil, err
			}
			action.Nullifier = dummy
			rk, err := randomHash()
			if err != nil {
				return nil, err
			}
			action.RandomizedKey = rk
		}

		if i < len(outputs) {
			req := outputs[i]
			rho, err := randomHash()
			if err != nil {
				return nil, err
			}
			rseed, err := randomHash()
			if err != nil {
				return nil, err
			}
			note := ledgerwire.Note{Recipient: req.Recipient, Value: req.Value, Rho: rho, RSeed: rseed}
			action.Cmx = CommitNote(note)

			_, _, pub := decodeAddress(req.Recipient)
			recipientPub, err := ecdh.X25519().NewPublicKey(pub[:])
			if err != nil {
				return nil, fmt.Errorf("invalid recipient transmission key: %w", err)
			}
			esk, err := ecdh.X25519().GenerateKey(rand.Reader)
			if err != nil {
				return nil, err
			}
			var epk ledgerwire.Hash256
			copy(epk[:], esk.PublicKey().Bytes())
			action.EphemeralKey = epk

			shared, err := esk.ECDH(recipientPub)
			if err != nil {
				return nil, err
			}
			sharedKey := sha256.Sum256(append(shared, []byte("noteenc")...))
			encCt, err := encryptNote(note, req.Memo, sharedKey)
			if err != nil {
				return nil, err
			}
			action.EncCiphertext = encCt

			outCt, err := sealOutgoing(fvk, req.Recipient)
			if err != nil {
				return nil, err
			}
			action.OutCiphertext = outCt
			action.ValueCommitment = valueCommitment(req.Value, -1)

			balance -= int64(req.Value)
		} else {
			dummy, err := randomHash()
			if err != nil {
				return nil, err
			}
			action.Cmx = dummy
		}

		actions[i] = action
	}

	bundle := &ledgerwire.Bundle{
		Anchor:       anchor,
		ValueBalance: balance,
		Actions:      actions,
	}
	bundle.Tag = bindingTag(bundle)
	return bundle, nil
}

// bindingTag stands in for the zk-SNARK proof set and binding signature:
// a digest over the anchor, value balance and every action, recomputed by
// VerifyBundle. A real crypto provider would verify cryptographic proofs
// here instead; the ledger only ever goes through this interface, never
// around it.
func bindingTag(b *ledgerwire.Bundle) ledgerwire.Hash256 {
	h := sha256.New()
	h.Write(b.Anchor[:])
	var bal [8]byte
	binary.BigEndian.PutUint64(bal[:], uint64(b.ValueBalance))
	h.Write(bal[:])
	for _, a := range b.Actions {
		h.Write(a.Nullifier[:])
		h.Write(a.Cmx[:])
		h.Write(a.RandomizedKey[:])
		h.Write(a.EphemeralKey[:])
		h.Write(a.EncCiphertext[:])
		h.Write(a.OutCiphertext[:])
		h.Write(a.ValueCommitment[:])
	}
	var out ledgerwire.Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyBundle checks a bundle's proofs and binding signature. The upstream
// design left this call as a TODO; this spec requires it be made and its
// result honored.
func VerifyBundle(b *ledgerwire.Bundle) error {
	if b == nil {
		return nil
	}
	if bindingTag(b) != b.Tag {
		return ledgerwire.ErrInvalidProof
	}
	b.Authorized = true
	return nil
}

// DecryptedOutput is one action's output successfully opened under an IVK.
type DecryptedOutput struct {
	ActionIndex int
	IVK         IncomingViewingKey
	Note        ledgerwire.Note
	Memo        []byte
}

// DecryptOutputsWithKeys attempts to open every action's output under each
// of the given incoming viewing keys, returning the ones that succeed.
func DecryptOutputsWithKeys(b *ledgerwire.Bundle, ivks []IncomingViewingKey) ([]DecryptedOutput, error) {
	if b == nil {
		return nil, nil
	}
	var out []DecryptedOutput
	for i, action := range b.Actions {
		epkPub, err := ecdh.X25519().NewPublicKey(action.EphemeralKey[:])
		if err != nil {
			continue // malformed ephemeral key; not a decrypt failure
		}
		for _, ivk := range ivks {
			seed := x25519Seed(ivk)
			priv, err := ecdh.X25519().NewPrivateKey(seed[:])
			if err != nil {
				continue
			}
			shared, err := priv.ECDH(epkPub)
			if err != nil {
				continue // dummy-padded actions carry an all-zero epk, rejected here
			}
			sharedKey := sha256.Sum256(append(shared, []byte("noteenc")...))
			note, memo, err := decryptNote(action.EncCiphertext, sharedKey)
			if err != nil {
				continue
			}
			out = append(out, DecryptedOutput{ActionIndex: i, IVK: ivk, Note: note, Memo: memo})
			break
		}
	}
	return out, nil
}
