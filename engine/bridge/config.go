package bridge

import (
	"time"

	"github.com/attestnet/attest/model/quorum"
)

const (
	DefaultQueueCapacity   = 10_000
	DefaultWorkers         = 2
	DefaultRefreshInterval = 6 * time.Second
)

type Config struct {
	// ForeignNetwork is the network id of the counter-party chain.
	ForeignNetwork quorum.Network
	// QueueCapacity bounds the inbound votes waiting to be processed.
	QueueCapacity int
	// Workers is the number of votes processed concurrently.
	Workers int
	// RefreshInterval is the period at which the ledger view is re-read from the ledger.
	RefreshInterval time.Duration
	// PollInterval overrides the block duration of the connector as polling period.
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		ForeignNetwork:  1,
		QueueCapacity:   DefaultQueueCapacity,
		Workers:         DefaultWorkers,
		RefreshInterval: DefaultRefreshInterval,
	}
}
