package metrics

const (
	LabelTopic   = "topic"
	LabelCache   = "cache"
	LabelResult  = "result"
	LabelStream  = "stream"
	LabelOutcome = "outcome"
	LabelNetwork = "network"
	LabelMessage = "message"
	EngineLabel  = "engine"
)

const (
	EngineCheckpoint = "checkpoint"
	EngineBridge     = "bridge"
	EngineGossip     = "gossip"
)

const (
	ResourceCheckpointCache = "checkpoint_message_cache"
	ResourceBridgeCache     = "bridge_message_cache"
	ResourceAuthoritySet    = "authority_set"
)

const (
	MessageCheckpointVote = "checkpoint_vote"
	MessageBridgeVote     = "bridge_vote"
	MessageWantNonce      = "want_nonce"
	MessageWant           = "want"
	MessageHave           = "have"
	MessageRequestChunk   = "request_chunk"
	MessageChunk          = "chunk"
)
