// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package delegation authorizes claiming to a recipient other than the
// identity's own native form, via a signature from the configured
// authority over the (identity, recipient) pair.
package delegation

import (
	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/ids"

	"github.com/luxfi/utils/wrappers"

	"github.com/luxfi/vesting/identity"
)

// signedMsgPrefix wraps the delegation payload per the host's
// personal-message signing convention. 52 is the fixed payload length:
// identity (32) + recipient (20).
const signedMsgPrefix = "\x19Lux Signed Message:\n52"

// Digest returns the 32-byte hash the authority signs to delegate
// [id]'s allocation to [recipient].
func Digest(id identity.Identity, recipient ids.ShortID) []byte {
	p := wrappers.Packer{MaxSize: len(signedMsgPrefix) + identity.Size + ids.ShortIDLen}
	p.PackFixedBytes([]byte(signedMsgPrefix))
	p.PackFixedBytes(id.Bytes())
	p.PackFixedBytes(recipient.Bytes())
	return hash.ComputeHash256(p.Bytes)
}

// Verify reports whether [sig] is the configured [authority]'s signature
// over the delegation of [id] to [recipient]. A malformed signature or
// failed recovery is a verification failure, never a panic, and a zero
// recovered address never matches a configured authority.
func Verify(id identity.Identity, recipient ids.ShortID, sig []byte, authority ids.ShortID) bool {
	if authority == ids.ShortEmpty || len(sig) != secp256k1.SignatureLen {
		return false
	}
	pk, err := secp256k1.RecoverPublicKeyFromHash(Digest(id, recipient), sig)
	if err != nil {
		return false
	}
	return pk.Address() == authority
}

// Sign produces a delegation signature with [key]. Used by authority
// tooling and tests; the ledger itself only verifies.
func Sign(id identity.Identity, recipient ids.ShortID, key *secp256k1.PrivateKey) ([]byte, error) {
	return key.SignHash(Digest(id, recipient))
}
