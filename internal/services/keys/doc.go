// Package keys is the key derivation engine: per-conversation DM keys,
// password-derived keys, and the lifecycle of the local messaging keypair
// (creation, directory publication, encrypted backup).
//
// Derivation failures never abort messaging. When the secure ECDH path is
// unavailable (either side missing from the directory, a malformed peer
// key, a fetch error), DeriveDmKey degrades to the legacy key and reports it
// through DmKeyResult.IsSecure instead of an error.
package keys
