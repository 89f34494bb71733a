// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists the ledger: the recipient schedule map, the
// identity binding map and the singleton configuration values.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/vesting/identity"
	"github.com/luxfi/vesting/schedule"
)

var (
	ErrCorrupted = errors.New("ledger state corrupted")

	// Database prefixes
	prefixSchedule = []byte("schedule:")
	prefixBinding  = []byte("binding:")

	// Singleton keys
	keyRoot      = []byte("root")
	keyAuthority = []byte("authority")
	keyToken     = []byte("token")
)

// Store is the authoritative persistence layer. All mutation goes
// through a Diff so each ledger operation commits as a single batch.
type Store struct {
	mu sync.RWMutex
	db database.Database
}

// New creates a store over [db].
func New(db database.Database) *Store {
	return &Store{db: db}
}

// GetSchedule returns the schedule held by [recipient], or
// database.ErrNotFound if the slot is empty.
func (s *Store) GetSchedule(recipient ids.ShortID) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSchedule(recipient)
}

func (s *Store) getSchedule(recipient ids.ShortID) (*schedule.Schedule, error) {
	data, err := s.db.Get(scheduleKey(recipient))
	if err != nil {
		return nil, err
	}
	sched, err := schedule.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return sched, nil
}

// GetBinding returns the recipient currently bound to [id], or
// database.ErrNotFound if the identity has never been activated.
func (s *Store) GetBinding(id identity.Identity) (ids.ShortID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBinding(id)
}

func (s *Store) getBinding(id identity.Identity) (ids.ShortID, error) {
	data, err := s.db.Get(bindingKey(id))
	if err != nil {
		return ids.ShortEmpty, err
	}
	addr, err := ids.ToShortID(data)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return addr, nil
}

// GetRoot returns the commitment root, or database.ErrNotFound before
// initialization.
func (s *Store) GetRoot() (ids.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.db.Get(keyRoot)
	if err != nil {
		return ids.Empty, err
	}
	root, err := ids.ToID(data)
	if err != nil {
		return ids.Empty, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return root, nil
}

// SetRoot writes the commitment root. The ledger only calls this once,
// at construction of a fresh store.
func (s *Store) SetRoot(root ids.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(keyRoot, root[:])
}

// GetAuthority returns the configured delegation signer.
func (s *Store) GetAuthority() (ids.ShortID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getShort(keyAuthority)
}

// SetAuthority writes the delegation signer outside of a Diff; used at
// construction only. Rotation goes through a Diff.
func (s *Store) SetAuthority(authority ids.ShortID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(keyAuthority, authority[:])
}

// GetToken returns the token address, or database.ErrNotFound while
// unset.
func (s *Store) GetToken() (ids.ShortID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getShort(keyToken)
}

func (s *Store) getShort(key []byte) (ids.ShortID, error) {
	data, err := s.db.Get(key)
	if err != nil {
		return ids.ShortEmpty, err
	}
	addr, err := ids.ToShortID(data)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return addr, nil
}

func scheduleKey(recipient ids.ShortID) []byte {
	return append(prefixSchedule, recipient[:]...)
}

func bindingKey(id identity.Identity) []byte {
	return append(prefixBinding, id[:]...)
}
