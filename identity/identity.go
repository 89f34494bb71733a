// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package identity defines the opaque 32-byte participant identity used
// by the vesting commitment. An identity may encode a native account
// address or an address from a foreign address space; the distinction is
// made explicitly via NativeAddress rather than by reinterpreting bytes.
package identity

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/luxfi/ids"
)

// Size is the length of an identity in bytes.
const Size = 32

var (
	// Empty is the zero identity.
	Empty = Identity{}

	ErrWrongSize = errors.New("identity has wrong byte length")
)

// Identity is an opaque 32-byte participant key, immutable once
// committed into the distribution tree.
type Identity [Size]byte

// FromAddress returns the canonical native-form identity for a native
// account address: the address in the low 20 bytes, zeroes above.
func FromAddress(addr ids.ShortID) Identity {
	var id Identity
	copy(id[Size-ids.ShortIDLen:], addr[:])
	return id
}

// FromBytes parses an identity from a raw 32-byte slice.
func FromBytes(b []byte) (Identity, error) {
	if len(b) != Size {
		return Empty, ErrWrongSize
	}
	var id Identity
	copy(id[:], b)
	return id, nil
}

// FromString parses a hex encoded identity, with or without a 0x prefix.
func FromString(s string) (Identity, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Empty, err
	}
	return FromBytes(b)
}

// NativeAddress reports whether the identity is in native-address form
// and, if so, returns the native account address it encodes. An identity
// is in native form iff its high 12 bytes are zero and the remaining 20
// bytes are a non-zero address. Foreign-chain identities that happen to
// collide with a native address in their low bytes fail the high-byte
// check and are never treated as native.
func (id Identity) NativeAddress() (ids.ShortID, bool) {
	for _, b := range id[:Size-ids.ShortIDLen] {
		if b != 0 {
			return ids.ShortEmpty, false
		}
	}
	var addr ids.ShortID
	copy(addr[:], id[Size-ids.ShortIDLen:])
	return addr, addr != ids.ShortEmpty
}

// Bytes returns the raw 32 bytes of the identity.
func (id Identity) Bytes() []byte {
	return id[:]
}

func (id Identity) IsZero() bool {
	return id == Empty
}

func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}
