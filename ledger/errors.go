// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

var (
	// Configuration
	ErrZeroAuthority   = errors.New("authority signer is the zero address")
	ErrZeroAdmin       = errors.New("admin is the zero address")
	ErrZeroToken       = errors.New("token is the zero address")
	ErrTokenAlreadySet = errors.New("token address already set")
	ErrTokenNotSet     = errors.New("token address not set")
	ErrRootMismatch    = errors.New("stored commitment root differs from configured root")

	// Activation
	ErrInvalidProof           = errors.New("allocation does not match the commitment root")
	ErrInvalidSchedule        = errors.New("schedule fails structural validation")
	ErrNoRecipient            = errors.New("no recipient requested and identity is not caller's native form")
	ErrUnauthorizedDelegation = errors.New("delegation signature does not recover to the authority")
	ErrSlotOccupied           = errors.New("recipient already has an allocation")
	ErrIdentityBound          = errors.New("identity already bound to a recipient")

	// Release and migration
	ErrNoAllocation       = errors.New("recipient has no allocation")
	ErrZeroRecipient      = errors.New("recipient is the zero address")
	ErrUnauthorizedCaller = errors.New("caller is not the bound recipient")
	ErrNotAdmin           = errors.New("caller is not the admin")
	ErrTransferFailed     = errors.New("token transfer failed")

	// Guard
	ErrReentrantCall = errors.New("ledger operation already in flight")
)
