package module

// CacheMetrics tracks the message cache of a gossip validator.
type CacheMetrics interface {
	// CacheEntries reports the number of (fingerprint, peer) entries held by the cache.
	CacheEntries(cache string, entries uint)

	// CacheEviction is called when the LRU evicts an entry to make room for a new one.
	CacheEviction(cache string)
}

// GossipMetrics tracks the decisions of gossip validators and the outbound store
// of the gossip engine.
type GossipMetrics interface {
	// ValidationResult is called once per inbound message with the outcome of validation.
	ValidationResult(topic string, result string)

	// MessageExpired is called when a stored message is dropped because it expired.
	MessageExpired(topic string)

	// MessageRebroadcast is called when a stored message is sent again to a peer.
	MessageRebroadcast(topic string)

	// OutboundMessages reports the number of messages held for rebroadcast.
	OutboundMessages(topic string, count uint)
}

// AggregatorMetrics tracks the threshold aggregation of partial signatures.
type AggregatorMetrics interface {
	// PartialProcessed is called once per partial with the outcome of the merge.
	PartialProcessed(stream string, outcome string)

	// FinalizedSequence reports the latest finalized sequence of the stream.
	FinalizedSequence(stream string, seq uint64)

	// PendingArtifacts reports the number of working artifacts of the stream.
	PendingArtifacts(stream string, count uint)
}

// EngineMetrics tracks the message flow through engines.
type EngineMetrics interface {
	MessageSent(engine string, message string)
	MessageReceived(engine string, message string)
	MessageHandled(engine string, message string)
	InboundMessageDropped(engine string, message string)
}

// LedgerMetrics tracks the submission of finalized artifacts.
type LedgerMetrics interface {
	// ArtifactSubmitted is called after a successful submission of a finalized artifact.
	ArtifactSubmitted(stream string, seq uint64)

	// SubmissionRetried is called when a submission attempt failed and will be retried.
	SubmissionRetried(stream string)
}

// BridgeMetrics tracks cross-chain message traffic.
type BridgeMetrics interface {
	// BridgeMessageReceived is called when a foreign message is read from the connector.
	BridgeMessageReceived(network string, size int)

	// BridgeMessageSent is called when a finalized message is handed to its destination.
	BridgeMessageSent(network string, size int)

	// ProcessedNonce reports the last processed nonce for messages from the network.
	ProcessedNonce(network string, nonce uint64)
}
