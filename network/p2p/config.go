package p2p

import (
	"time"
)

type Config struct {
	// ListenAddress is the multiaddress the host listens on.
	ListenAddress string
	// Bootstrap lists the p2p multiaddresses of the peers dialed on start and
	// re-dialed while disconnected.
	Bootstrap []string
	// MaxMessageSize bounds gossip and direct messages. It must fit a full chunk.
	MaxMessageSize int
	// DirectTimeout bounds the delivery of a single direct message.
	DirectTimeout time.Duration
	// ReconnectInterval is the period at which lost bootstrap peers are dialed again.
	ReconnectInterval time.Duration
	// Restricted limits connections to authorities and bootstrap peers.
	Restricted bool
}

func DefaultConfig() Config {
	return Config{
		ListenAddress:     "/ip4/0.0.0.0/tcp/3569",
		MaxMessageSize:    1 << 20,
		DirectTimeout:     10 * time.Second,
		ReconnectInterval: 30 * time.Second,
	}
}
