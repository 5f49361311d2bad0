package p2p

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/gossip"
)

// validationResult maps a gossip decision onto GossipSub. Kept messages propagate.
// Processed but not kept messages were already handed to the engines and stop here.
// Discarded messages are ignored rather than rejected: a stale vote from an honest
// peer must not lower its score.
func validationResult(result gossip.ValidationResult) pubsub.ValidationResult {
	switch result {
	case gossip.ProcessAndKeep:
		return pubsub.ValidationAccept
	default:
		return pubsub.ValidationIgnore
	}
}

// TopicValidator validates and processes every message of the topic as it arrives.
// Messages published locally pass without being processed again.
func TopicValidator(self peer.ID, topic network.Topic, handler gossip.InboundHandler) pubsub.ValidatorEx {
	return func(_ context.Context, from peer.ID, msg *pubsub.Message) pubsub.ValidationResult {
		if from == self {
			return pubsub.ValidationAccept
		}
		return validationResult(handler.HandleInbound(topic, quorum.PeerID(from.String()), msg.Data))
	}
}
