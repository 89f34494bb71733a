// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/vesting/delegation"
	"github.com/luxfi/vesting/identity"
)

// resolveRecipient combines the caller, the identity and an optional
// requested recipient into exactly one authorized recipient address.
//
// A native-form identity may claim to itself with no signature, either
// implicitly (no recipient requested, caller is the identity's address)
// or explicitly (requested recipient is the identity's own address).
// Every other case is a delegation and needs the authority's signature;
// this is what stops a native account from claiming a foreign identity
// whose low bytes happen to collide with its address.
func (l *Ledger) resolveRecipient(
	caller ids.ShortID,
	id identity.Identity,
	requested ids.ShortID,
	sig []byte,
) (ids.ShortID, error) {
	native, isNative := id.NativeAddress()

	switch {
	case requested == ids.ShortEmpty && isNative && native == caller:
		return caller, nil
	case isNative && requested == native:
		return requested, nil
	case requested == ids.ShortEmpty:
		return ids.ShortEmpty, ErrNoRecipient
	}

	authority, err := l.state.GetAuthority()
	if err != nil {
		return ids.ShortEmpty, err
	}
	if !delegation.Verify(id, requested, sig, authority) {
		return ids.ShortEmpty, ErrUnauthorizedDelegation
	}
	return requested, nil
}
