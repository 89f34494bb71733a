// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"sync"
	"time"
)

// Clock is the ledger's view of time. It tracks the wall clock unless
// pinned, so tests can drive vesting time deterministically. Safe for
// concurrent use.
type Clock struct {
	mu    sync.RWMutex
	faked bool
	now   time.Time
}

// Set pins the clock to [t].
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = true
	c.now = t
}

// Sync returns the clock to the wall clock.
func (c *Clock) Sync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = false
}

// Unix returns the current unix timestamp on this clock.
func (c *Clock) Unix() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now
	if !c.faked {
		now = time.Now()
	}
	unix := now.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix)
}
