package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/attestnet/attest/module"
)

type AggregatorCollector struct {
	partials  *prometheus.CounterVec
	finalized *prometheus.GaugeVec
	pending   *prometheus.GaugeVec
}

var _ module.AggregatorMetrics = (*AggregatorCollector)(nil)

func NewAggregatorCollector(registerer prometheus.Registerer) *AggregatorCollector {
	factory := promauto.With(registerer)

	ac := &AggregatorCollector{
		partials: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "partials_total",
			Namespace: namespaceQuorum,
			Subsystem: subsystemAggregator,
			Help:      "the number of partial signatures processed by merge outcome",
		}, []string{LabelStream, LabelOutcome}),

		finalized: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "finalized_sequence",
			Namespace: namespaceQuorum,
			Subsystem: subsystemAggregator,
			Help:      "the latest finalized sequence per stream",
		}, []string{LabelStream}),

		pending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "pending_artifacts",
			Namespace: namespaceQuorum,
			Subsystem: subsystemAggregator,
			Help:      "the number of unfinalized (sequence, payload hash) slots per stream",
		}, []string{LabelStream}),
	}

	return ac
}

func (ac *AggregatorCollector) PartialProcessed(stream string, outcome string) {
	ac.partials.With(prometheus.Labels{LabelStream: stream, LabelOutcome: outcome}).Inc()
}

func (ac *AggregatorCollector) FinalizedSequence(stream string, seq uint64) {
	ac.finalized.With(prometheus.Labels{LabelStream: stream}).Set(float64(seq))
}

func (ac *AggregatorCollector) PendingArtifacts(stream string, count uint) {
	ac.pending.With(prometheus.Labels{LabelStream: stream}).Set(float64(count))
}
