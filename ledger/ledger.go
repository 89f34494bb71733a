// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the claim orchestrator: activation of
// merkle-committed allocations, release of vested tokens and recipient
// wallet migration, as serialized all-or-nothing operations against the
// persistent store.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/pubsub"

	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/merkle"
	"github.com/luxfi/vesting/schedule"
	"github.com/luxfi/vesting/state"
)

// TokenTransferer is the external fungible-token transfer primitive.
// The ledger only accounts; moving balances is the embedder's concern.
// A non-nil error aborts the whole release with full rollback.
type TokenTransferer interface {
	Transfer(token ids.ShortID, to ids.ShortID, amount *uint256.Int) error
}

// Config carries the construction-time dependencies of a Ledger.
type Config struct {
	// CommitmentRoot fixes the eligible (identity, schedule) set for the
	// ledger's lifetime.
	CommitmentRoot ids.ID
	// AuthoritySigner's signature authorizes recipient delegation.
	// Must be non-zero; rotatable by the admin afterwards.
	AuthoritySigner ids.ShortID
	// Admin may rotate the authority, set the token address and migrate
	// wallets on behalf of bound recipients.
	Admin ids.ShortID

	DB       database.Database
	Transfer TokenTransferer
	Log      log.Logger

	// Events, when set, receives a record for each committed mutating
	// operation. Optional.
	Events *pubsub.Server
	// Clock defaults to the wall clock.
	Clock *Clock
}

// Ledger owns all schedule and binding entries. Mutating operations are
// serialized and atomic: they stage writes on a state diff, perform the
// single external transfer call if any, and only then persist the stage.
type Ledger struct {
	log     log.Logger
	state   *state.Store
	root    ids.ID
	admin   ids.ShortID
	clock   *Clock
	token   TokenTransferer
	events  *pubsub.Server
	metrics *metrics

	mu sync.Mutex
	// inFlight rejects re-entrant invocations from within the external
	// transfer call, which would otherwise deadlock on mu.
	inFlight atomic.Bool
}

// New constructs a ledger over [cfg.DB]. On a fresh database the
// commitment root and authority signer are persisted; on an existing one
// the stored root must match the configured root, and a previously
// rotated authority signer is kept.
func New(cfg Config) (*Ledger, error) {
	switch {
	case cfg.AuthoritySigner == ids.ShortEmpty:
		return nil, ErrZeroAuthority
	case cfg.Admin == ids.ShortEmpty:
		return nil, ErrZeroAdmin
	}

	store := state.New(cfg.DB)

	storedRoot, err := store.GetRoot()
	switch {
	case errors.Is(err, database.ErrNotFound):
		if err := store.SetRoot(cfg.CommitmentRoot); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case storedRoot != cfg.CommitmentRoot:
		return nil, ErrRootMismatch
	}

	if _, err := store.GetAuthority(); errors.Is(err, database.ErrNotFound) {
		if err := store.SetAuthority(cfg.AuthoritySigner); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = &Clock{}
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.NoLog{}
	}

	return &Ledger{
		log:     logger,
		state:   store,
		root:    cfg.CommitmentRoot,
		admin:   cfg.Admin,
		clock:   clock,
		token:   cfg.Transfer,
		events:  cfg.Events,
		metrics: newMetrics(),
	}, nil
}

// enter acquires the mutual-exclusion guard for a mutating operation.
// The in-flight flag is checked before the mutex so a re-entrant call
// from the transfer callback is rejected instead of deadlocking.
func (l *Ledger) enter() (func(), error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall
	}
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		l.inFlight.Store(false)
	}, nil
}

func (l *Ledger) fail(err error) error {
	l.metrics.numFailedOps.Inc()
	return err
}

// Activate proves [id]'s allocation against the commitment root, binds
// it to exactly one authorized recipient and seeds that recipient's
// schedule with nothing claimed. Each identity activates at most once
// and each recipient holds at most one schedule. Returns the resolved
// recipient.
func (l *Ledger) Activate(
	caller ids.ShortID,
	id identity.Identity,
	sched *schedule.Schedule,
	proof []ids.ID,
	requestedRecipient ids.ShortID,
	sig []byte,
) (ids.ShortID, error) {
	done, err := l.enter()
	if err != nil {
		return ids.ShortEmpty, l.fail(err)
	}
	defer done()

	if sched == nil || sched.Allocation == nil {
		return ids.ShortEmpty, l.fail(ErrInvalidSchedule)
	}
	if !merkle.Verify(l.root, merkle.Leaf(id, sched), proof) {
		return ids.ShortEmpty, l.fail(ErrInvalidProof)
	}
	if err := sched.Verify(); err != nil {
		return ids.ShortEmpty, l.fail(fmt.Errorf("%w: %v", ErrInvalidSchedule, err))
	}

	recipient, err := l.resolveRecipient(caller, id, requestedRecipient, sig)
	if err != nil {
		return ids.ShortEmpty, l.fail(err)
	}

	diff := l.state.NewDiff()
	if occupied, err := diff.HasSchedule(recipient); err != nil {
		return ids.ShortEmpty, l.fail(err)
	} else if occupied {
		return ids.ShortEmpty, l.fail(ErrSlotOccupied)
	}
	if bound, err := diff.HasBinding(id); err != nil {
		return ids.ShortEmpty, l.fail(err)
	} else if bound {
		return ids.ShortEmpty, l.fail(ErrIdentityBound)
	}

	seeded := sched.Clone()
	seeded.Claimed = new(uint256.Int)
	diff.PutBinding(id, recipient)
	diff.PutSchedule(recipient, seeded)
	if err := diff.Apply(); err != nil {
		return ids.ShortEmpty, l.fail(err)
	}

	l.metrics.numActivations.Inc()
	l.log.Info("allocation activated",
		log.Stringer("identity", id),
		log.Stringer("recipient", recipient),
		log.String("allocation", seeded.Allocation.Dec()),
	)
	l.publish(&Event{
		Type:      EventActivated,
		Identity:  id.String(),
		Recipient: recipient.String(),
		Amount:    seeded.Allocation.Dec(),
		Timestamp: l.clock.Unix(),
	}, recipient)
	return recipient, nil
}

// Release transfers the currently claimable amount to [recipient]. The
// claimed counter is staged before the external transfer call and only
// persisted on transfer success, so a failed transfer leaves no trace
// and a re-entrant release is rejected by the guard.
func (l *Ledger) Release(recipient ids.ShortID) error {
	done, err := l.enter()
	if err != nil {
		return l.fail(err)
	}
	defer done()

	sched, err := l.state.GetSchedule(recipient)
	if errors.Is(err, database.ErrNotFound) {
		return l.fail(ErrNoAllocation)
	} else if err != nil {
		return l.fail(err)
	}

	token, err := l.state.GetToken()
	if errors.Is(err, database.ErrNotFound) {
		return l.fail(ErrTokenNotSet)
	} else if err != nil {
		return l.fail(err)
	}

	now := l.clock.Unix()
	amount := sched.ClaimableAt(now)
	if amount.IsZero() {
		l.log.Debug("nothing claimable",
			log.Stringer("recipient", recipient),
			log.Uint64("now", now),
		)
		return nil
	}

	updated := sched.Clone()
	updated.Claimed.Add(updated.Claimed, amount)
	diff := l.state.NewDiff()
	diff.PutSchedule(recipient, updated)

	if err := l.token.Transfer(token, recipient, amount.Clone()); err != nil {
		return l.fail(fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}
	if err := diff.Apply(); err != nil {
		return l.fail(err)
	}

	l.metrics.numReleases.Inc()
	l.log.Info("tokens released",
		log.Stringer("recipient", recipient),
		log.String("amount", amount.Dec()),
		log.String("claimed", updated.Claimed.Dec()),
	)
	l.publish(&Event{
		Type:      EventReleased,
		Recipient: recipient.String(),
		Amount:    amount.Dec(),
		Timestamp: now,
	}, recipient)
	return nil
}

// UpdateRecipientWallet rebinds [id] to [newRecipient]. The caller must
// be the currently bound recipient. The schedule moves wholesale, so
// vesting progress is preserved.
func (l *Ledger) UpdateRecipientWallet(caller ids.ShortID, id identity.Identity, newRecipient ids.ShortID) error {
	return l.migrate(id, caller, newRecipient)
}

// AdminUpdateRecipientWallet migrates on behalf of [currentRecipient].
// Only the admin may call it; [currentRecipient] must be the bound one.
func (l *Ledger) AdminUpdateRecipientWallet(
	caller ids.ShortID,
	id identity.Identity,
	currentRecipient ids.ShortID,
	newRecipient ids.ShortID,
) error {
	if caller != l.admin {
		return l.fail(ErrNotAdmin)
	}
	return l.migrate(id, currentRecipient, newRecipient)
}

func (l *Ledger) migrate(id identity.Identity, current ids.ShortID, newRecipient ids.ShortID) error {
	done, err := l.enter()
	if err != nil {
		return l.fail(err)
	}
	defer done()

	bound, err := l.state.GetBinding(id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && bound != current) {
		return l.fail(ErrUnauthorizedCaller)
	} else if err != nil {
		return l.fail(err)
	}

	if newRecipient == ids.ShortEmpty {
		return l.fail(ErrZeroRecipient)
	}

	diff := l.state.NewDiff()
	if occupied, err := diff.HasSchedule(newRecipient); err != nil {
		return l.fail(err)
	} else if occupied {
		return l.fail(ErrSlotOccupied)
	}

	sched, err := l.state.GetSchedule(bound)
	if errors.Is(err, database.ErrNotFound) {
		return l.fail(ErrNoAllocation)
	} else if err != nil {
		return l.fail(err)
	}

	diff.PutBinding(id, newRecipient)
	diff.ClearSchedule(bound)
	diff.PutSchedule(newRecipient, sched)
	if err := diff.Apply(); err != nil {
		return l.fail(err)
	}

	l.metrics.numMigrations.Inc()
	l.log.Info("recipient wallet migrated",
		log.Stringer("identity", id),
		log.Stringer("from", bound),
		log.Stringer("to", newRecipient),
	)
	l.publish(&Event{
		Type:      EventMigrated,
		Identity:  id.String(),
		Recipient: newRecipient.String(),
		Timestamp: l.clock.Unix(),
	}, newRecipient)
	return nil
}

// SetAuthoritySigner rotates the delegation signer. Admin only.
func (l *Ledger) SetAuthoritySigner(caller ids.ShortID, newSigner ids.ShortID) error {
	done, err := l.enter()
	if err != nil {
		return l.fail(err)
	}
	defer done()

	if caller != l.admin {
		return l.fail(ErrNotAdmin)
	}
	if newSigner == ids.ShortEmpty {
		return l.fail(ErrZeroAuthority)
	}

	diff := l.state.NewDiff()
	diff.SetAuthority(newSigner)
	if err := diff.Apply(); err != nil {
		return l.fail(err)
	}

	l.log.Info("authority signer rotated", log.Stringer("signer", newSigner))
	return nil
}

// SetTokenAddress sets the token the ledger releases. Admin only,
// settable exactly once.
func (l *Ledger) SetTokenAddress(caller ids.ShortID, token ids.ShortID) error {
	done, err := l.enter()
	if err != nil {
		return l.fail(err)
	}
	defer done()

	if caller != l.admin {
		return l.fail(ErrNotAdmin)
	}
	if token == ids.ShortEmpty {
		return l.fail(ErrZeroToken)
	}
	if _, err := l.state.GetToken(); err == nil {
		return l.fail(ErrTokenAlreadySet)
	} else if !errors.Is(err, database.ErrNotFound) {
		return l.fail(err)
	}

	diff := l.state.NewDiff()
	diff.SetToken(token)
	if err := diff.Apply(); err != nil {
		return l.fail(err)
	}

	l.log.Info("token address set", log.Stringer("token", token))
	return nil
}

// ClaimableAmount returns the amount [recipient] could release now.
func (l *Ledger) ClaimableAmount(recipient ids.ShortID) (*uint256.Int, error) {
	sched, err := l.state.GetSchedule(recipient)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoAllocation
	} else if err != nil {
		return nil, err
	}
	return sched.ClaimableAt(l.clock.Unix()), nil
}

// ClaimableAmountByIdentity resolves [id]'s bound recipient and returns
// that recipient's claimable amount. An unbound identity yields zero,
// not an error.
func (l *Ledger) ClaimableAmountByIdentity(id identity.Identity) (*uint256.Int, error) {
	recipient, err := l.state.GetBinding(id)
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	} else if err != nil {
		return nil, err
	}
	return l.ClaimableAmount(recipient)
}

// GetSchedule returns a copy of [recipient]'s schedule.
func (l *Ledger) GetSchedule(recipient ids.ShortID) (*schedule.Schedule, error) {
	sched, err := l.state.GetSchedule(recipient)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoAllocation
	} else if err != nil {
		return nil, err
	}
	return sched, nil
}

// RecipientOf returns the recipient bound to [id], or the zero address
// if the identity has never been activated.
func (l *Ledger) RecipientOf(id identity.Identity) (ids.ShortID, error) {
	recipient, err := l.state.GetBinding(id)
	if errors.Is(err, database.ErrNotFound) {
		return ids.ShortEmpty, nil
	}
	return recipient, err
}

// CommitmentRoot returns the immutable distribution commitment.
func (l *Ledger) CommitmentRoot() ids.ID {
	return l.root
}

// AuthoritySigner returns the currently configured delegation signer.
func (l *Ledger) AuthoritySigner() (ids.ShortID, error) {
	return l.state.GetAuthority()
}
