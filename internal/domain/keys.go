package domain

import "fmt"

// ------------- X25519 -------------

type X25519Private [32]byte
type X25519Public [32]byte

func (k X25519Private) Slice() []byte { return k[:] }
func (k X25519Public) Slice() []byte  { return k[:] }

func MustX25519Private(b []byte) X25519Private {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 private: want 32 bytes, got %d", len(b)))
	}
	var out X25519Private
	copy(out[:], b)
	return out
}

func MustX25519Public(b []byte) X25519Public {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 public: want 32 bytes, got %d", len(b)))
	}
	var out X25519Public
	copy(out[:], b)
	return out
}

// MessagingKeypair is the long-term X25519 pair owned by one local identity.
// The private half never leaves the client except as an explicitly requested
// encrypted backup.
type MessagingKeypair struct {
	Public  X25519Public  `json:"public"`
	Private X25519Private `json:"private"`
}

// KeyKind tags which derivation produced a conversation key.
type KeyKind int

const (
	KeyLegacy KeyKind = iota
	KeyECDH
	KeyPassword
	KeyRandom
)

func (k KeyKind) String() string {
	switch k {
	case KeyLegacy:
		return "legacy"
	case KeyECDH:
		return "ecdh"
	case KeyPassword:
		return "password"
	case KeyRandom:
		return "random"
	}
	return "unknown"
}

// DmKeyResult is the outcome of a DM key derivation. It is recomputed per
// operation and never persisted.
//
// Invariant: EncryptionKey equals ECDHKey when IsSecure, else LegacyKey.
type DmKeyResult struct {
	EncryptionKey []byte
	LegacyKey     []byte
	ECDHKey       []byte
	IsSecure      bool
}

// Kind reports the derivation behind the active encryption key.
func (r DmKeyResult) Kind() KeyKind {
	if r.IsSecure {
		return KeyECDH
	}
	return KeyLegacy
}
