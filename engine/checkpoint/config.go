package checkpoint

import (
	"time"
)

const (
	DefaultVoteQueueCapacity     = 10_000
	DefaultExchangeQueueCapacity = 1_000
	DefaultWorkers               = 4
	DefaultRefreshInterval       = 6 * time.Second
)

// Config defines the configurable options of the checkpoint engine.
type Config struct {
	// VoteQueueCapacity bounds the inbound votes waiting to be processed.
	VoteQueueCapacity int
	// ExchangeQueueCapacity bounds the inbound chunk exchange and nonce requests.
	ExchangeQueueCapacity int
	// Workers is the number of messages processed concurrently.
	Workers int
	// RefreshInterval is the period at which the ledger view is re-read from the ledger.
	RefreshInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		VoteQueueCapacity:     DefaultVoteQueueCapacity,
		ExchangeQueueCapacity: DefaultExchangeQueueCapacity,
		Workers:               DefaultWorkers,
		RefreshInterval:       DefaultRefreshInterval,
	}
}
