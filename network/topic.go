package network

// Topic specifies a gossip topic. Nodes subscribed to the same topic disseminate
// epidemic messages among each other.
type Topic string

func (t Topic) String() string {
	return string(t)
}

const (
	// CheckpointTopic carries order-book checkpoint votes and the chunk exchange.
	CheckpointTopic Topic = "/attest/checkpoint/1"
	// BridgeTopic carries bridge message votes.
	BridgeTopic Topic = "/attest/bridge/1"
)

// Topics returns every topic the node participates in.
func Topics() []Topic {
	return []Topic{CheckpointTopic, BridgeTopic}
}
