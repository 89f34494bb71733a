// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/pubsub"
)

const (
	EventActivated = "activated"
	EventReleased  = "released"
	EventMigrated  = "migrated"
)

// Event is the record published for each committed mutating operation.
// Subscribers can filter on the recipient address.
type Event struct {
	Type      string `json:"type"`
	Identity  string `json:"identity,omitempty"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

// eventFilterer matches subscriptions against the event's recipient
// address bytes.
type eventFilterer struct {
	event *Event
	addr  ids.ShortID
}

func (f *eventFilterer) Filter(filters []pubsub.Filter) ([]bool, interface{}) {
	matches := make([]bool, len(filters))
	for i, filter := range filters {
		matches[i] = filter.Check(f.addr[:])
	}
	return matches, f.event
}

func (l *Ledger) publish(event *Event, recipient ids.ShortID) {
	if l.events == nil {
		return
	}
	l.events.Publish(&eventFilterer{
		event: event,
		addr:  recipient,
	})
}
