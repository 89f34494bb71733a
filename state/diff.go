// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/schedule"
)

// Diff is an in-memory overlay over a Store. A ledger operation stages
// every write on a Diff, performs any external interaction, and only
// then calls Apply; a failed operation simply drops the Diff, so no
// partial writes are ever observable.
type Diff struct {
	store *Store

	// nil value marks a cleared slot
	schedules map[ids.ShortID]*schedule.Schedule
	bindings  map[identity.Identity]ids.ShortID
	authority *ids.ShortID
	token     *ids.ShortID
}

// NewDiff returns an empty overlay over the store.
func (s *Store) NewDiff() *Diff {
	return &Diff{
		store:     s,
		schedules: make(map[ids.ShortID]*schedule.Schedule),
		bindings:  make(map[identity.Identity]ids.ShortID),
	}
}

// GetSchedule reads through the overlay.
func (d *Diff) GetSchedule(recipient ids.ShortID) (*schedule.Schedule, error) {
	if sched, ok := d.schedules[recipient]; ok {
		if sched == nil {
			return nil, database.ErrNotFound
		}
		return sched, nil
	}
	return d.store.GetSchedule(recipient)
}

// HasSchedule reports whether [recipient]'s slot is occupied.
func (d *Diff) HasSchedule(recipient ids.ShortID) (bool, error) {
	_, err := d.GetSchedule(recipient)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutSchedule stages a schedule into [recipient]'s slot.
func (d *Diff) PutSchedule(recipient ids.ShortID, sched *schedule.Schedule) {
	d.schedules[recipient] = sched
}

// ClearSchedule stages full removal of [recipient]'s slot.
func (d *Diff) ClearSchedule(recipient ids.ShortID) {
	d.schedules[recipient] = nil
}

// GetBinding reads through the overlay.
func (d *Diff) GetBinding(id identity.Identity) (ids.ShortID, error) {
	if recipient, ok := d.bindings[id]; ok {
		return recipient, nil
	}
	return d.store.GetBinding(id)
}

// HasBinding reports whether [id] is already bound to a recipient.
func (d *Diff) HasBinding(id identity.Identity) (bool, error) {
	_, err := d.GetBinding(id)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutBinding stages a binding of [id] to [recipient]. Bindings are only
// ever created or rebound, never deleted.
func (d *Diff) PutBinding(id identity.Identity, recipient ids.ShortID) {
	d.bindings[id] = recipient
}

// SetAuthority stages a delegation-signer rotation.
func (d *Diff) SetAuthority(authority ids.ShortID) {
	d.authority = &authority
}

// SetToken stages the token address.
func (d *Diff) SetToken(token ids.ShortID) {
	d.token = &token
}

// Apply writes every staged change to the store in one batch.
func (d *Diff) Apply() error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	batch := d.store.db.NewBatch()
	for recipient, sched := range d.schedules {
		if sched == nil {
			if err := batch.Delete(scheduleKey(recipient)); err != nil {
				return err
			}
			continue
		}
		if err := batch.Put(scheduleKey(recipient), sched.Bytes()); err != nil {
			return err
		}
	}
	for id, recipient := range d.bindings {
		if err := batch.Put(bindingKey(id), recipient[:]); err != nil {
			return err
		}
	}
	if d.authority != nil {
		if err := batch.Put(keyAuthority, d.authority[:]); err != nil {
			return err
		}
	}
	if d.token != nil {
		if err := batch.Put(keyToken, d.token[:]); err != nil {
			return err
		}
	}
	return batch.Write()
}
