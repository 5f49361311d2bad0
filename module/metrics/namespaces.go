package metrics

// Prometheus metric namespaces
const (
	namespaceNetwork = "network"
	namespaceQuorum  = "quorum"
	namespaceBridge  = "bridge"
)

// Network subsystems
const (
	subsystemGossip = "gossip"
	subsystemCache  = "cache"
	subsystemEngine = "engine"
)

// Quorum subsystems
const (
	subsystemAggregator = "aggregator"
	subsystemLedger     = "ledger"
)

// Bridge subsystems
const (
	subsystemConnector = "connector"
)
