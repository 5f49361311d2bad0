package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/attestnet/attest/module"
)

type GossipCollector struct {
	results      *prometheus.CounterVec
	expired      *prometheus.CounterVec
	rebroadcasts *prometheus.CounterVec
	outbound     *prometheus.GaugeVec
}

var _ module.GossipMetrics = (*GossipCollector)(nil)

func NewGossipCollector(registerer prometheus.Registerer) *GossipCollector {
	factory := promauto.With(registerer)

	gc := &GossipCollector{
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "validation_results_total",
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Help:      "the number of inbound gossip messages by validation result",
		}, []string{LabelTopic, LabelResult}),

		expired: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_expired_total",
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Help:      "the number of stored gossip messages dropped because they expired",
		}, []string{LabelTopic}),

		rebroadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_rebroadcast_total",
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Help:      "the number of times a stored gossip message was sent again",
		}, []string{LabelTopic}),

		outbound: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "outbound_messages",
			Namespace: namespaceNetwork,
			Subsystem: subsystemGossip,
			Help:      "the number of gossip messages held for rebroadcast",
		}, []string{LabelTopic}),
	}

	return gc
}

func (gc *GossipCollector) ValidationResult(topic string, result string) {
	gc.results.With(prometheus.Labels{LabelTopic: topic, LabelResult: result}).Inc()
}

func (gc *GossipCollector) MessageExpired(topic string) {
	gc.expired.With(prometheus.Labels{LabelTopic: topic}).Inc()
}

func (gc *GossipCollector) MessageRebroadcast(topic string) {
	gc.rebroadcasts.With(prometheus.Labels{LabelTopic: topic}).Inc()
}

func (gc *GossipCollector) OutboundMessages(topic string, count uint) {
	gc.outbound.With(prometheus.Labels{LabelTopic: topic}).Set(float64(count))
}
