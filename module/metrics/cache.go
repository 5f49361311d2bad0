package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/attestnet/attest/module"
)

type CacheCollector struct {
	entries   *prometheus.GaugeVec
	evictions *prometheus.CounterVec
}

var _ module.CacheMetrics = (*CacheCollector)(nil)

func NewCacheCollector(registerer prometheus.Registerer) *CacheCollector {
	factory := promauto.With(registerer)

	cc := &CacheCollector{
		entries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "entries",
			Namespace: namespaceNetwork,
			Subsystem: subsystemCache,
			Help:      "the number of (fingerprint, peer) entries in the message cache",
		}, []string{LabelCache}),

		evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "evictions_total",
			Namespace: namespaceNetwork,
			Subsystem: subsystemCache,
			Help:      "the number of entries evicted from the message cache to make room",
		}, []string{LabelCache}),
	}

	return cc
}

func (cc *CacheCollector) CacheEntries(cache string, entries uint) {
	cc.entries.With(prometheus.Labels{LabelCache: cache}).Set(float64(entries))
}

func (cc *CacheCollector) CacheEviction(cache string) {
	cc.evictions.With(prometheus.Labels{LabelCache: cache}).Inc()
}
