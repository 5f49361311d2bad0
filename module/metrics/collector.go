package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/attestnet/attest/module"
)

// Collector bundles every collector of a node behind one value, so that components
// taking several metrics interfaces share the same registrations.
type Collector struct {
	*GossipCollector
	*CacheCollector
	*AggregatorCollector
	*EngineCollector
	*LedgerCollector
	*BridgeCollector
}

var _ module.GossipMetrics = (*Collector)(nil)
var _ module.CacheMetrics = (*Collector)(nil)
var _ module.AggregatorMetrics = (*Collector)(nil)
var _ module.EngineMetrics = (*Collector)(nil)
var _ module.LedgerMetrics = (*Collector)(nil)
var _ module.BridgeMetrics = (*Collector)(nil)

// NewCollector registers all collectors with the registerer.
func NewCollector(registerer prometheus.Registerer) *Collector {
	return &Collector{
		GossipCollector:     NewGossipCollector(registerer),
		CacheCollector:      NewCacheCollector(registerer),
		AggregatorCollector: NewAggregatorCollector(registerer),
		EngineCollector:     NewEngineCollector(registerer),
		LedgerCollector:     NewLedgerCollector(registerer),
		BridgeCollector:     NewBridgeCollector(registerer),
	}
}
