package gossip

import (
	"context"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
)

// Conduit sends messages on a single registered topic.
type Conduit interface {
	Topic() network.Topic

	// Publish broadcasts the message and keeps it for rebroadcast until it expires.
	// Expected error returns during normal operations:
	//   - engine.OutdatedInputError if the validator of the topic already considers the
	//     message expired
	Publish(ctx context.Context, msg interface{}) error

	// Unicast sends the message to a single peer. Directed messages are never stored.
	Unicast(ctx context.Context, peer quorum.PeerID, msg interface{}) error

	// Announce broadcasts the message once. It is neither stored nor checked against
	// the local validator, so it can carry messages only lagging peers accept.
	Announce(ctx context.Context, msg interface{}) error
}

// EngineRegistry binds engines to gossip topics.
type EngineRegistry interface {
	Register(topic network.Topic, validator Validator, processor MessageProcessor) (Conduit, error)
}

type conduit struct {
	topic  network.Topic
	engine *Engine
}

var _ Conduit = (*conduit)(nil)

func (c *conduit) Topic() network.Topic {
	return c.topic
}

func (c *conduit) Publish(ctx context.Context, msg interface{}) error {
	return c.engine.publish(ctx, c.topic, msg)
}

func (c *conduit) Unicast(ctx context.Context, peer quorum.PeerID, msg interface{}) error {
	return c.engine.unicast(ctx, c.topic, peer, msg)
}

func (c *conduit) Announce(ctx context.Context, msg interface{}) error {
	return c.engine.announce(ctx, c.topic, msg)
}
