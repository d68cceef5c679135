package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"courier/internal/domain"
)

// Derivation context strings. Versioned so a future scheme change cannot
// collide with keys already in the wild.
const (
	legacyContext = "dm-key-v1:"
	ecdhContext   = "dm-ecdh-v2:"
	verifyContext = "pw-verify-v1:"
)

// LegacyDmKey derives the deterministic DM key from the two participant
// addresses alone.
//
// This key is computable by any third party who knows both addresses. It is
// retained only so pre-migration ciphertexts stay readable; new conversations
// use it only when one side has no published public key.
func LegacyDmKey(a, b domain.Address) []byte {
	lo, hi := domain.SortAddresses(a, b)
	sum := sha256.Sum256([]byte(legacyContext + lo.String() + ":" + hi.String()))
	return sum[:]
}

// SecureDmKey derives the ECDH DM key from our private key and the peer's
// published public key, bound to the sorted participant pair through the
// HKDF info string. Both sides derive byte-identical keys.
func SecureDmKey(priv domain.X25519Private, peerPub domain.X25519Public, a, b domain.Address) ([]byte, error) {
	secret, err := DH(priv, peerPub)
	if err != nil {
		return nil, err
	}
	defer Wipe(secret[:])

	lo, hi := domain.SortAddresses(a, b)
	info := []byte(ecdhContext + lo.String() + ":" + hi.String())

	key := make([]byte, KeyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret[:], nil, info), key); err != nil {
		return nil, err
	}
	return key, nil
}

// DerivePasswordKey derives a symmetric key from a password and salt using
// Argon2id.
func DerivePasswordKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 1<<16, 4, KeyBytes)
}

// PasswordVerifier derives the stored verifier for a password. It runs over a
// salt derived with a separate context, so checking a password never computes
// (or stores anything that can recover) the encryption key.
func PasswordVerifier(password string, salt []byte) []byte {
	vs := sha256.Sum256(append([]byte(verifyContext), salt...))
	return argon2.IDKey([]byte(password), vs[:SaltBytes], 1, 1<<16, 4, KeyBytes)
}

// VerifyPassword reports whether password matches the stored verifier.
func VerifyPassword(password string, salt, verifier []byte) bool {
	got := PasswordVerifier(password, salt)
	return subtle.ConstantTimeCompare(got, verifier) == 1
}
