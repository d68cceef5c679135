// Package crypto exposes the primitives used by courier.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Authenticated payload encryption with random nonces (Encrypt, Decrypt,
//     DecryptWithFallback)
//   - DM key derivation: the weak legacy key and the ECDH key (LegacyDmKey,
//     SecureDmKey)
//   - Password key derivation and verification (DerivePasswordKey,
//     PasswordVerifier, VerifyPassword)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Decrypt reports failure with a bool instead of an error: a
// wrong key or corrupt blob is an expected condition in a timeline mixing
// legacy-keyed and ECDH-keyed messages, and callers render a placeholder
// rather than aborting.
package crypto
