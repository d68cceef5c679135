package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/chacha20poly1305"

	"courier/internal/domain"
)

const (
	KeyBytes   = chacha20poly1305.KeySize
	SaltBytes  = 16
	NonceBytes = chacha20poly1305.NonceSize
)

// Encrypt seals plaintext under key with a fresh random nonce.
// Blob layout: base64(nonce || ciphertext+tag).
func Encrypt(plaintext, key []byte) (string, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, NonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ct := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a blob produced by Encrypt. It reports ok=false on any
// failure (wrong key, corrupt blob, truncated nonce) instead of returning an
// error, so one bad record cannot take down a timeline.
func Decrypt(blob string, key []byte) (plaintext []byte, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil || len(raw) < NonceBytes {
		return nil, false
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, false
	}
	pt, err := aead.Open(nil, raw[:NonceBytes], raw[NonceBytes:], nil)
	if err != nil {
		return nil, false
	}
	return pt, true
}

// DecryptWithFallback tries the ECDH key first when present, then the legacy
// key. usedLegacy reports which one succeeded, which is what lets timelines
// mix pre-migration messages with secure ones.
func DecryptWithFallback(blob string, keys domain.DmKeyResult) (plaintext []byte, usedLegacy, ok bool) {
	if len(keys.ECDHKey) == KeyBytes {
		if pt, ok := Decrypt(blob, keys.ECDHKey); ok {
			return pt, false, true
		}
	}
	if len(keys.LegacyKey) == KeyBytes {
		if pt, ok := Decrypt(blob, keys.LegacyKey); ok {
			return pt, true, true
		}
	}
	return nil, false, false
}

// GenerateKey returns a fresh random symmetric key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateSalt returns a fresh random salt for password derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
