package crypto_test

import (
	"bytes"
	"testing"

	"courier/internal/crypto"
	"courier/internal/domain"
)

func TestLegacyDmKey_OrderAndCaseIndependent(t *testing.T) {
	ab := crypto.LegacyDmKey("0xAlice", "0xBob")
	ba := crypto.LegacyDmKey("0xbob", "0xalice")
	if !bytes.Equal(ab, ba) {
		t.Fatal("legacy key depends on argument order or hex address case")
	}
	if len(ab) != crypto.KeyBytes {
		t.Fatalf("key length %d", len(ab))
	}
}

func TestLegacyDmKey_CaseSensitiveFamilyPreserved(t *testing.T) {
	// Non-hex addresses are case-sensitive: different casing, different key.
	a := crypto.LegacyDmKey("AliceBase58", "bob")
	b := crypto.LegacyDmKey("alicebase58", "bob")
	if bytes.Equal(a, b) {
		t.Fatal("case-sensitive addresses were normalized")
	}
}

func TestSecureDmKey_Symmetric(t *testing.T) {
	alicePriv, alicePub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	bobPriv, bobPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}

	fromAlice, err := crypto.SecureDmKey(alicePriv, bobPub, "0xAlice", "0xBob")
	if err != nil {
		t.Fatalf("SecureDmKey (alice): %v", err)
	}
	fromBob, err := crypto.SecureDmKey(bobPriv, alicePub, "0xBob", "0xAlice")
	if err != nil {
		t.Fatalf("SecureDmKey (bob): %v", err)
	}
	if !bytes.Equal(fromAlice, fromBob) {
		t.Fatal("the two perspectives derived different keys")
	}
	if bytes.Equal(fromAlice, crypto.LegacyDmKey("0xAlice", "0xBob")) {
		t.Fatal("ECDH key collided with the legacy key")
	}
}

func TestSecureDmKey_BoundToParticipants(t *testing.T) {
	alicePriv, _, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	_, bobPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}

	k1, err := crypto.SecureDmKey(alicePriv, bobPub, "0xalice", "0xbob")
	if err != nil {
		t.Fatalf("SecureDmKey: %v", err)
	}
	k2, err := crypto.SecureDmKey(alicePriv, bobPub, "0xalice", "0xcarol")
	if err != nil {
		t.Fatalf("SecureDmKey: %v", err)
	}
	if bytes.Equal(k1, k2) {
		t.Fatal("same key for different participant pairs")
	}
}

func TestPasswordVerifier_IndependentOfKey(t *testing.T) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	key := crypto.DerivePasswordKey("hunter2 but longer", salt)
	verifier := crypto.PasswordVerifier("hunter2 but longer", salt)

	if bytes.Equal(key, verifier) {
		t.Fatal("verifier equals the encryption key")
	}
	if !crypto.VerifyPassword("hunter2 but longer", salt, verifier) {
		t.Fatal("correct password rejected")
	}
	if crypto.VerifyPassword("wrong password", salt, verifier) {
		t.Fatal("wrong password accepted")
	}
}

func TestDerivePasswordKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, crypto.SaltBytes)
	a := crypto.DerivePasswordKey("pw", salt)
	b := crypto.DerivePasswordKey("pw", salt)
	if !bytes.Equal(a, b) {
		t.Fatal("same password+salt derived different keys")
	}
}

func TestDmKeyResultKind(t *testing.T) {
	if (domain.DmKeyResult{IsSecure: true}).Kind() != domain.KeyECDH {
		t.Fatal("secure result should be tagged ecdh")
	}
	if (domain.DmKeyResult{}).Kind() != domain.KeyLegacy {
		t.Fatal("insecure result should be tagged legacy")
	}
}
