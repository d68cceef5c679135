package domain

import "strings"

// Address is an opaque chain address identifying an actor.
//
// Two address families are in play: hex addresses (0x-prefixed) compare
// case-insensitively and are normalized to lowercase; every other family is
// case-sensitive and kept verbatim.
type Address string

// Normalize canonicalizes the address for comparison and storage.
func (a Address) Normalize() Address {
	s := string(a)
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return Address(strings.ToLower(s))
	}
	return a
}

func (a Address) String() string { return string(a) }

// SortAddresses returns the two normalized addresses in canonical order, so
// both participants of a DM derive identical topics and keys regardless of
// which side computes them.
func SortAddresses(a, b Address) (Address, Address) {
	a, b = a.Normalize(), b.Normalize()
	if b < a {
		return b, a
	}
	return a, b
}
