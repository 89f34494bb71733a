// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the vesting ledger over JSON-RPC. The caller
// address on each mutating method is an argument the embedding host has
// already authenticated; the service itself performs no authentication.
package api

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gorilla/rpc/v2"
	"github.com/holiman/uint256"
	"github.com/luxfi/ids"

	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/ledger"
	"github.com/luxfi/vesting/schedule"
)

// Service provides the JSON-RPC API over a ledger.
type Service struct {
	ledger *ledger.Ledger
}

// NewService returns a new Service instance.
func NewService(l *ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// RegisterService registers the vesting RPC handlers.
func RegisterService(l *ledger.Ledger, server *rpc.Server) error {
	return server.RegisterService(NewService(l), "vesting")
}

// ActivateArgs are the arguments for vesting.activate.
type ActivateArgs struct {
	Caller           string   `json:"caller"`
	Identity         string   `json:"identity"`
	Allocation       string   `json:"allocation"` // decimal
	Start            uint64   `json:"startTimestamp"`
	End              uint64   `json:"endTimestamp"`
	InitialUnlockPct uint8    `json:"initUnlockPercentage"`
	Proof            []string `json:"proof"`
	Recipient        string   `json:"recipient,omitempty"`
	Signature        string   `json:"signature,omitempty"`
}

// ActivateReply is the reply for vesting.activate.
type ActivateReply struct {
	Recipient string `json:"recipient"`
}

// Activate activates a committed allocation.
func (s *Service) Activate(_ *http.Request, args *ActivateArgs, reply *ActivateReply) error {
	caller, err := ids.ShortFromString(args.Caller)
	if err != nil {
		return err
	}
	id, err := identity.FromString(args.Identity)
	if err != nil {
		return err
	}
	allocation, err := uint256.FromDecimal(args.Allocation)
	if err != nil {
		return err
	}
	proof := make([]ids.ID, len(args.Proof))
	for i, entry := range args.Proof {
		if proof[i], err = ids.FromString(entry); err != nil {
			return err
		}
	}
	recipient := ids.ShortEmpty
	if args.Recipient != "" {
		if recipient, err = ids.ShortFromString(args.Recipient); err != nil {
			return err
		}
	}
	var sig []byte
	if args.Signature != "" {
		if sig, err = hex.DecodeString(strings.TrimPrefix(args.Signature, "0x")); err != nil {
			return err
		}
	}

	resolved, err := s.ledger.Activate(caller, id, &schedule.Schedule{
		Allocation:       allocation,
		Claimed:          new(uint256.Int),
		Start:            args.Start,
		End:              args.End,
		InitialUnlockPct: args.InitialUnlockPct,
	}, proof, recipient, sig)
	if err != nil {
		return err
	}
	reply.Recipient = resolved.String()
	return nil
}

// ReleaseArgs are the arguments for vesting.release.
type ReleaseArgs struct {
	Recipient string `json:"recipient"`
}

// ReleaseReply is the reply for vesting.release.
type ReleaseReply struct {
	Success bool `json:"success"`
}

// Release transfers the currently claimable amount to the recipient.
func (s *Service) Release(_ *http.Request, args *ReleaseArgs, reply *ReleaseReply) error {
	recipient, err := ids.ShortFromString(args.Recipient)
	if err != nil {
		return err
	}
	if err := s.ledger.Release(recipient); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// UpdateRecipientWalletArgs are the arguments for
// vesting.updateRecipientWallet.
type UpdateRecipientWalletArgs struct {
	Caller       string `json:"caller"`
	Identity     string `json:"identity"`
	NewRecipient string `json:"newRecipient"`
}

// AdminUpdateRecipientWalletArgs additionally name the currently bound
// recipient being migrated.
type AdminUpdateRecipientWalletArgs struct {
	Caller           string `json:"caller"`
	Identity         string `json:"identity"`
	CurrentRecipient string `json:"currentRecipient"`
	NewRecipient     string `json:"newRecipient"`
}

// UpdateRecipientWalletReply is shared by both migration methods.
type UpdateRecipientWalletReply struct {
	Success bool `json:"success"`
}

// UpdateRecipientWallet migrates the caller's schedule to a new wallet.
func (s *Service) UpdateRecipientWallet(_ *http.Request, args *UpdateRecipientWalletArgs, reply *UpdateRecipientWalletReply) error {
	caller, err := ids.ShortFromString(args.Caller)
	if err != nil {
		return err
	}
	id, err := identity.FromString(args.Identity)
	if err != nil {
		return err
	}
	newRecipient, err := ids.ShortFromString(args.NewRecipient)
	if err != nil {
		return err
	}
	if err := s.ledger.UpdateRecipientWallet(caller, id, newRecipient); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// AdminUpdateRecipientWallet migrates a schedule on behalf of its bound
// recipient.
func (s *Service) AdminUpdateRecipientWallet(_ *http.Request, args *AdminUpdateRecipientWalletArgs, reply *UpdateRecipientWalletReply) error {
	caller, err := ids.ShortFromString(args.Caller)
	if err != nil {
		return err
	}
	id, err := identity.FromString(args.Identity)
	if err != nil {
		return err
	}
	current, err := ids.ShortFromString(args.CurrentRecipient)
	if err != nil {
		return err
	}
	newRecipient, err := ids.ShortFromString(args.NewRecipient)
	if err != nil {
		return err
	}
	if err := s.ledger.AdminUpdateRecipientWallet(caller, id, current, newRecipient); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// SetAuthoritySignerArgs are the arguments for vesting.setAuthoritySigner.
type SetAuthoritySignerArgs struct {
	Caller    string `json:"caller"`
	NewSigner string `json:"newSigner"`
}

// SetAuthoritySignerReply is the reply for vesting.setAuthoritySigner.
type SetAuthoritySignerReply struct {
	Success bool `json:"success"`
}

// SetAuthoritySigner rotates the delegation signer.
func (s *Service) SetAuthoritySigner(_ *http.Request, args *SetAuthoritySignerArgs, reply *SetAuthoritySignerReply) error {
	caller, err := ids.ShortFromString(args.Caller)
	if err != nil {
		return err
	}
	signer, err := ids.ShortFromString(args.NewSigner)
	if err != nil {
		return err
	}
	if err := s.ledger.SetAuthoritySigner(caller, signer); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// SetTokenAddressArgs are the arguments for vesting.setTokenAddress.
type SetTokenAddressArgs struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
}

// SetTokenAddressReply is the reply for vesting.setTokenAddress.
type SetTokenAddressReply struct {
	Success bool `json:"success"`
}

// SetTokenAddress sets the released token, exactly once.
func (s *Service) SetTokenAddress(_ *http.Request, args *SetTokenAddressArgs, reply *SetTokenAddressReply) error {
	caller, err := ids.ShortFromString(args.Caller)
	if err != nil {
		return err
	}
	token, err := ids.ShortFromString(args.Token)
	if err != nil {
		return err
	}
	if err := s.ledger.SetTokenAddress(caller, token); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// ClaimableAmountArgs are the arguments for vesting.claimableAmount.
type ClaimableAmountArgs struct {
	Recipient string `json:"recipient"`
}

// ClaimableAmountReply is the reply for both claimable queries.
type ClaimableAmountReply struct {
	Amount string `json:"amount"` // decimal
}

// ClaimableAmount returns the amount a recipient could release now.
func (s *Service) ClaimableAmount(_ *http.Request, args *ClaimableAmountArgs, reply *ClaimableAmountReply) error {
	recipient, err := ids.ShortFromString(args.Recipient)
	if err != nil {
		return err
	}
	amount, err := s.ledger.ClaimableAmount(recipient)
	if err != nil {
		return err
	}
	reply.Amount = amount.Dec()
	return nil
}

// ClaimableAmountByIdentityArgs are the arguments for
// vesting.claimableAmountByIdentity.
type ClaimableAmountByIdentityArgs struct {
	Identity string `json:"identity"`
}

// ClaimableAmountByIdentity returns the claimable amount of the
// identity's bound recipient; zero for an unbound identity.
func (s *Service) ClaimableAmountByIdentity(_ *http.Request, args *ClaimableAmountByIdentityArgs, reply *ClaimableAmountReply) error {
	id, err := identity.FromString(args.Identity)
	if err != nil {
		return err
	}
	amount, err := s.ledger.ClaimableAmountByIdentity(id)
	if err != nil {
		return err
	}
	reply.Amount = amount.Dec()
	return nil
}

// GetScheduleArgs are the arguments for vesting.getSchedule.
type GetScheduleArgs struct {
	Recipient string `json:"recipient"`
}

// GetScheduleReply is the reply for vesting.getSchedule.
type GetScheduleReply struct {
	Allocation       string `json:"allocation"` // decimal
	Claimed          string `json:"claimed"`    // decimal
	Start            uint64 `json:"startTimestamp"`
	End              uint64 `json:"endTimestamp"`
	InitialUnlockPct uint8  `json:"initUnlockPercentage"`
}

// GetSchedule returns a recipient's full schedule.
func (s *Service) GetSchedule(_ *http.Request, args *GetScheduleArgs, reply *GetScheduleReply) error {
	recipient, err := ids.ShortFromString(args.Recipient)
	if err != nil {
		return err
	}
	sched, err := s.ledger.GetSchedule(recipient)
	if err != nil {
		return err
	}
	reply.Allocation = sched.Allocation.Dec()
	reply.Claimed = sched.Claimed.Dec()
	reply.Start = sched.Start
	reply.End = sched.End
	reply.InitialUnlockPct = sched.InitialUnlockPct
	return nil
}
