package cryptoprovider

import (
	"testing"

	"shieldedledger/ledgerwire"
)

func testKeys(t *testing.T) (SpendingKey, FullViewingKey) {
	t.Helper()
	sk, err := DeriveSpendingKey(testSeed(t))
	if err != nil {
		t.Fatalf("DeriveSpendingKey: %v", err)
	}
	return sk, FullViewingKeyFrom(sk)
}

func TestBuildBundleRoundTripsOutput(t *testing.T) {
	_, fvk := testKeys(t)
	recipient, err := AddressAt(fvk, 1, ScopeExternal)
	if err != nil {
		t.Fatalf("AddressAt: %v", err)
	}

	var anchor ledgerwire.Hash256
	bundle, err := BuildBundle(fvk, anchor, nil, []OutputRequest{{Recipient: recipient, Value: 100}})
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	if bundle == nil {
		t.Fatalf("BuildBundle returned a nil bundle for a non-empty output set")
	}
	if bundle.ValueBalance != -100 {
		t.Errorf("ValueBalance = %d, want -100", bundle.ValueBalance)
	}

	if err := VerifyBundle(bundle); err != nil {
		t.Fatalf("VerifyBundle: %v", err)
	}
	if !bundle.Authorized {
		t.Errorf("VerifyBundle did not mark the bundle authorized")
	}

	ivk := IVK(fvk, ScopeExternal)
	decrypted, err := DecryptOutputsWithKeys(bundle, []IncomingViewingKey{ivk})
	if err != nil {
		t.Fatalf("DecryptOutputsWithKeys: %v", err)
	}
	if len(decrypted) != 1 {
		t.Fatalf("decrypted %d outputs, want 1", len(decrypted))
	}
	if decrypted[0].Note.Value != 100 {
		t.Errorf("decrypted note value = %d, want 100", decrypted[0].Note.Value)
	}
}

func TestBuildBundleEmptyYieldsNilBundle(t *testing.T) {
	_, fvk := testKeys(t)
	bundle, err := BuildBundle(fvk, ledgerwire.Hash256{}, nil, nil)
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	if bundle != nil {
		t.Errorf("BuildBundle with no spends/outputs should return a nil bundle")
	}
}

func TestVerifyBundleRejectsTamperedTag(t *testing.T) {
	_, fvk := testKeys(t)
	recipient, err := AddressAt(fvk, 1, ScopeExternal)
	if err != nil {
		t.Fatalf("AddressAt: %v", err)
	}
	bundle, err := BuildBundle(fvk, ledgerwire.Hash256{}, nil, []OutputRequest{{Recipient: recipient, Value: 1}})
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	bundle.ValueBalance++ // tamper after the tag was computed

	if err := VerifyBundle(bundle); err == nil {
		t.Errorf("VerifyBundle accepted a bundle tampered with after build")
	}
}

func TestDecryptOutputsWithWrongKeyFindsNothing(t *testing.T) {
	_, fvk := testKeys(t)
	_, otherFVK := testKeys(t)

	recipient, err := AddressAt(fvk, 1, ScopeExternal)
	if err != nil {
		t.Fatalf("AddressAt: %v", err)
	}
	bundle, err := BuildBundle(fvk, ledgerwire.Hash256{}, nil, []OutputRequest{{Recipient: recipient, Value: 1}})
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}

	wrongIVK := IVK(otherFVK, ScopeExternal)
	decrypted, err := DecryptOutputsWithKeys(bundle, []IncomingViewingKey{wrongIVK})
	if err != nil {
		t.Fatalf("DecryptOutputsWithKeys: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("decrypted %d outputs with the wrong viewing key, want 0", len(decrypted))
	}
}

func TestDeriveNullifierDependsOnViewingKey(t *testing.T) {
	_, fvk1 := testKeys(t)
	_, fvk2 := testKeys(t)
	note := ledgerwire.Note{Value: 10}

	nf1 := DeriveNullifier(fvk1, note)
	nf2 := DeriveNullifier(fvk2, note)
	if nf1 == nf2 {
		t.Errorf("same note content under different viewing keys produced the same nullifier")
	}
}
