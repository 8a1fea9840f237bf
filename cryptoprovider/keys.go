// Package cryptoprovider is the ledger's black-box crypto collaborator
// (§6.2): spending/viewing-key derivation, note commitment and nullifier
// derivation, note encryption, and shielded-bundle build/verify. Every
// other package in this module treats this package as opaque and calls it
// rather than inlining its algorithms — including bundle verification,
// which the upstream design left as a TODO but this spec requires.
package cryptoprovider

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/ripemd160"

	"shieldedledger/ledgerwire"
)

// Scope distinguishes addresses handed out to other people (External) from
// internal change addresses (Internal). Only External is used by the core
// per its Non-goals (no multi-account derivation policy beyond sequential
// external-scope allocation).
type Scope uint8

const (
	ScopeExternal Scope = 0
	ScopeInternal Scope = 1
)

// SpendingKey, FullViewingKey and IncomingViewingKey are opaque 32-byte
// secrets. The derivation chain below mirrors BIP-32 hardened derivation
// generalized to a ZIP-32-style coin-type/account path, each stage run
// through secp256k1 scalar clamping so that every derived key is a valid
// curve scalar even though no ECDSA signing happens over it directly.
type (
	SpendingKey        [32]byte
	FullViewingKey     [32]byte
	IncomingViewingKey [32]byte
)

const (
	coinType = 0
	account  = 0
)

func clampScalar(b []byte) [32]byte {
	priv, _ := btcec.PrivKeyFromBytes(b)
	var out [32]byte
	copy(out[:], priv.Serialize())
	return out
}

// DeriveSpendingKey derives the wallet's root spending key from a BIP-39
// seed via the hardened path m/32'/coin'/account'.
func DeriveSpendingKey(seed []byte) (SpendingKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return SpendingKey{}, err
	}

	path := []uint32{
		32 + bip32.FirstHardenedChild,
		coinType + bip32.FirstHardenedChild,
		account + bip32.FirstHardenedChild,
	}
	child := master
	for _, n := range path {
		child, err = child.NewChildKey(n)
		if err != nil {
			return SpendingKey{}, err
		}
	}

	return SpendingKey(clampScalar(child.Key)), nil
}

// FullViewingKeyFrom derives the full viewing key from a spending key.
func FullViewingKeyFrom(sk SpendingKey) FullViewingKey {
	h := sha256.Sum256(append(sk[:], []byte("FVK")...))
	return FullViewingKey(clampScalar(h[:]))
}

// IVK derives the incoming viewing key for the given scope.
func IVK(fvk FullViewingKey, scope Scope) IncomingViewingKey {
	h := sha256.Sum256(append(append([]byte{}, fvk[:]...), byte(scope)))
	return IncomingViewingKey(clampScalar(h[:]))
}

// x25519Seed expands an IVK into the 32-byte scalar used to construct its
// X25519 note-encryption keypair. ECDH for note encryption deliberately
// uses a distinct curve (stdlib X25519) from the secp256k1 scalar chain
// above: X25519 exposes a plain generic-point Diffie-Hellman that the
// wallet's shared-secret derivation needs, which secp256k1's package
// surface does not offer without pulling in a second EC library.
func x25519Seed(ivk IncomingViewingKey) [32]byte {
	return sha256.Sum256(append(ivk[:], []byte("x25519")...))
}

// AddressAt derives the raw 43-byte address for (fvk, index, scope):
// index(4BE) || scope(1) || transmission key(32) || tag(6). The
// transmission key depends only on fvk and scope, so addresses at different
// indices differ only in their index bytes.
func AddressAt(fvk FullViewingKey, index uint32, scope Scope) (ledgerwire.Address, error) {
	ivk := IVK(fvk, scope)
	pub, err := transmissionKey(ivk)
	if err != nil {
		return ledgerwire.Address{}, err
	}

	var addr ledgerwire.Address
	addr[0] = byte(index >> 24)
	addr[1] = byte(index >> 16)
	addr[2] = byte(index >> 8)
	addr[3] = byte(index)
	addr[4] = byte(scope)
	copy(addr[5:37], pub[:])

	r := ripemd160.New()
	r.Write(pub[:])
	copy(addr[37:43], r.Sum(nil)[:6])

	return addr, nil
}

// decodeAddress splits a raw address back into its index, scope and
// transmission key; the trailing tag is not returned.
func decodeAddress(addr ledgerwire.Address) (index uint32, scope Scope, pub [32]byte) {
	index = uint32(addr[0])<<24 | uint32(addr[1])<<16 | uint32(addr[2])<<8 | uint32(addr[3])
	scope = Scope(addr[4])
	copy(pub[:], addr[5:37])
	return
}
