package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/attestnet/attest/module"
)

type BridgeCollector struct {
	received     *prometheus.CounterVec
	sent         *prometheus.CounterVec
	dataReceived *prometheus.CounterVec
	dataSent     *prometheus.CounterVec
	nonce        *prometheus.GaugeVec
}

var _ module.BridgeMetrics = (*BridgeCollector)(nil)

func NewBridgeCollector(registerer prometheus.Registerer) *BridgeCollector {
	factory := promauto.With(registerer)

	return &BridgeCollector{
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_received_total",
			Namespace: namespaceBridge,
			Subsystem: subsystemConnector,
			Help:      "the number of messages read from a connected chain",
		}, []string{LabelNetwork}),

		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "messages_sent_total",
			Namespace: namespaceBridge,
			Subsystem: subsystemConnector,
			Help:      "the number of finalized messages delivered to their destination",
		}, []string{LabelNetwork}),

		dataReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "data_received_bytes_total",
			Namespace: namespaceBridge,
			Subsystem: subsystemConnector,
			Help:      "the size in bytes of message data read from a connected chain",
		}, []string{LabelNetwork}),

		dataSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "data_sent_bytes_total",
			Namespace: namespaceBridge,
			Subsystem: subsystemConnector,
			Help:      "the size in bytes of message data delivered to a destination",
		}, []string{LabelNetwork}),

		nonce: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "processed_nonce",
			Namespace: namespaceBridge,
			Subsystem: subsystemConnector,
			Help:      "the last processed nonce per origin network",
		}, []string{LabelNetwork}),
	}
}

func (bc *BridgeCollector) BridgeMessageReceived(network string, size int) {
	bc.received.With(prometheus.Labels{LabelNetwork: network}).Inc()
	bc.dataReceived.With(prometheus.Labels{LabelNetwork: network}).Add(float64(size))
}

func (bc *BridgeCollector) BridgeMessageSent(network string, size int) {
	bc.sent.With(prometheus.Labels{LabelNetwork: network}).Inc()
	bc.dataSent.With(prometheus.Labels{LabelNetwork: network}).Add(float64(size))
}

func (bc *BridgeCollector) ProcessedNonce(network string, nonce uint64) {
	bc.nonce.With(prometheus.Labels{LabelNetwork: network}).Set(float64(nonce))
}
