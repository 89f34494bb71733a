// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/luxfi/metric"

type metrics struct {
	numActivations,
	numReleases,
	numMigrations,
	numFailedOps metric.Counter
}

// Metrics are self-registering when created with NewCounter.
func newMetrics() *metrics {
	return &metrics{
		numActivations: metric.NewCounter(metric.CounterOpts{
			Name: "vesting_activations",
			Help: "Number of allocations activated against the commitment",
		}),
		numReleases: metric.NewCounter(metric.CounterOpts{
			Name: "vesting_releases",
			Help: "Number of successful token releases",
		}),
		numMigrations: metric.NewCounter(metric.CounterOpts{
			Name: "vesting_migrations",
			Help: "Number of recipient wallet migrations",
		}),
		numFailedOps: metric.NewCounter(metric.CounterOpts{
			Name: "vesting_failed_ops",
			Help: "Number of mutating operations rejected or rolled back",
		}),
	}
}
