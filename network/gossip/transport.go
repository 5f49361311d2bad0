package gossip

import (
	"context"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
)

// Transport moves encoded messages between peers. Broadcast is unreliable epidemic
// dissemination on a topic; SendTo is a directed message to a single peer.
type Transport interface {
	Broadcast(ctx context.Context, topic network.Topic, data []byte) error
	SendTo(ctx context.Context, peer quorum.PeerID, topic network.Topic, data []byte) error
}

// InboundHandler receives inbound messages and peer events from a Transport.
type InboundHandler interface {
	// HandleInbound validates and dispatches an inbound message, returning the decision
	// so the transport can decide whether to propagate it.
	HandleInbound(topic network.Topic, sender quorum.PeerID, data []byte) ValidationResult

	NewPeer(peer quorum.PeerID, role quorum.Role)
	PeerDisconnected(peer quorum.PeerID)
}

// MessageProcessor consumes decoded messages accepted on a topic.
type MessageProcessor interface {
	Process(topic network.Topic, origin quorum.PeerID, message interface{}) error
}
