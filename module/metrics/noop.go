package metrics

import (
	"github.com/attestnet/attest/module"
)

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

var _ module.CacheMetrics = (*NoopCollector)(nil)
var _ module.GossipMetrics = (*NoopCollector)(nil)
var _ module.AggregatorMetrics = (*NoopCollector)(nil)
var _ module.EngineMetrics = (*NoopCollector)(nil)
var _ module.LedgerMetrics = (*NoopCollector)(nil)
var _ module.BridgeMetrics = (*NoopCollector)(nil)

func (nc *NoopCollector) CacheEntries(cache string, entries uint)             {}
func (nc *NoopCollector) CacheEviction(cache string)                          {}
func (nc *NoopCollector) ValidationResult(topic string, result string)        {}
func (nc *NoopCollector) MessageExpired(topic string)                         {}
func (nc *NoopCollector) MessageRebroadcast(topic string)                     {}
func (nc *NoopCollector) OutboundMessages(topic string, count uint)           {}
func (nc *NoopCollector) PartialProcessed(stream string, outcome string)      {}
func (nc *NoopCollector) FinalizedSequence(stream string, seq uint64)         {}
func (nc *NoopCollector) PendingArtifacts(stream string, count uint)          {}
func (nc *NoopCollector) MessageSent(engine string, message string)           {}
func (nc *NoopCollector) MessageReceived(engine string, message string)       {}
func (nc *NoopCollector) MessageHandled(engine string, message string)        {}
func (nc *NoopCollector) InboundMessageDropped(engine string, message string) {}
func (nc *NoopCollector) ArtifactSubmitted(stream string, seq uint64)         {}
func (nc *NoopCollector) SubmissionRetried(stream string)                     {}
func (nc *NoopCollector) BridgeMessageReceived(network string, size int)      {}
func (nc *NoopCollector) BridgeMessageSent(network string, size int)          {}
func (nc *NoopCollector) ProcessedNonce(network string, nonce uint64)         {}
