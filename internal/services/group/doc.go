// Package group manages shared symmetric keys and membership for group
// conversations.
//
// Open groups get a fresh random key at creation, handed to invitees inside
// the invitation payload. Password groups derive the key from the password;
// the backing store only ever sees the salt and a verifier computed in a
// separate derivation context, so a server-side compromise cannot recover
// message plaintext.
package group
