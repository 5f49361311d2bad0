package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/attestnet/attest/module"
)

type LedgerCollector struct {
	submitted *prometheus.GaugeVec
	retries   *prometheus.CounterVec
}

var _ module.LedgerMetrics = (*LedgerCollector)(nil)

func NewLedgerCollector(registerer prometheus.Registerer) *LedgerCollector {
	factory := promauto.With(registerer)

	return &LedgerCollector{
		submitted: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "submitted_sequence",
			Namespace: namespaceQuorum,
			Subsystem: subsystemLedger,
			Help:      "the latest sequence submitted to the ledger per stream",
		}, []string{LabelStream}),

		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "submission_retries_total",
			Namespace: namespaceQuorum,
			Subsystem: subsystemLedger,
			Help:      "the number of failed submissions that were retried",
		}, []string{LabelStream}),
	}
}

func (lc *LedgerCollector) ArtifactSubmitted(stream string, seq uint64) {
	lc.submitted.With(prometheus.Labels{LabelStream: stream}).Set(float64(seq))
}

func (lc *LedgerCollector) SubmissionRetried(stream string) {
	lc.retries.With(prometheus.Labels{LabelStream: stream}).Inc()
}
