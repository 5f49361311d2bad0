package p2p

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	libp2pnet "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/network"
)

// Node is a wrapper around the libp2p host and its GossipSub router.
type Node struct {
	sync.Mutex
	host   host.Host
	pubSub *pubsub.PubSub
	log    zerolog.Logger
	topics map[network.Topic]*pubsub.Topic
	subs   map[network.Topic]*pubsub.Subscription
}

// NewNode starts a libp2p host keyed with the validator key and a GossipSub router on
// top of it. The router lives as long as the context.
func NewNode(ctx context.Context, log zerolog.Logger, key *btcec.PrivateKey, config Config, gater *ConnGater) (*Node, error) {
	pk, err := PrivKey(key)
	if err != nil {
		return nil, err
	}

	options := []libp2p.Option{
		libp2p.Identity(pk),
		libp2p.ListenAddrStrings(config.ListenAddress),
	}
	if gater != nil {
		options = append(options, libp2p.ConnectionGater(gater))
	}

	h, err := libp2p.New(options...)
	if err != nil {
		return nil, fmt.Errorf("could not create libp2p host: %w", err)
	}

	// signed messages carry their author and a sequence number, so a rebroadcast is a
	// new message to the router and is not swallowed by its seen cache
	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithMessageSigning(true),
		pubsub.WithStrictSignatureVerification(true),
		pubsub.WithMaxMessageSize(config.MaxMessageSize),
	)
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("could not create libp2p gossipsub: %w", err)
	}

	node := &Node{
		host:   h,
		pubSub: ps,
		log:    log,
		topics: make(map[network.Topic]*pubsub.Topic),
		subs:   make(map[network.Topic]*pubsub.Subscription),
	}

	log.Debug().
		Str("peer_id", h.ID().String()).
		Interface("addresses", h.Addrs()).
		Msg("libp2p node started")

	return node, nil
}

// Stop unsubscribes from all topics and closes the host.
func (n *Node) Stop() error {
	var result error

	n.Lock()
	topics := make([]network.Topic, 0, len(n.topics))
	for t := range n.topics {
		topics = append(topics, t)
	}
	n.Unlock()

	for _, t := range topics {
		if err := n.UnSubscribe(t); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := n.host.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if result == nil {
		n.log.Debug().Msg("libp2p node stopped")
	}
	return result
}

// ID returns the peer ID of the host.
func (n *Node) ID() peer.ID {
	return n.host.ID()
}

// AddrInfo returns the addresses other nodes reach this node at.
func (n *Node) AddrInfo() peer.AddrInfo {
	return peer.AddrInfo{ID: n.host.ID(), Addrs: n.host.Addrs()}
}

// Connect dials the peer unless already connected.
func (n *Node) Connect(ctx context.Context, info peer.AddrInfo) error {
	err := n.host.Connect(ctx, info)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", info.ID, err)
	}
	return nil
}

// IsConnected reports whether the peer is a direct peer of this node.
func (n *Node) IsConnected(pid peer.ID) bool {
	return n.host.Network().Connectedness(pid) == libp2pnet.Connected
}

// Notify registers a receiver of connection events.
func (n *Node) Notify(notifiee libp2pnet.Notifiee) {
	n.host.Network().Notify(notifiee)
}

// RegisterTopicValidator sets the validator of the topic. It must be set before the
// node subscribes to the topic.
func (n *Node) RegisterTopicValidator(topic network.Topic, validator pubsub.ValidatorEx) error {
	err := n.pubSub.RegisterTopicValidator(topic.String(), validator)
	if err != nil {
		return fmt.Errorf("could not register validator of topic (%s): %w", topic, err)
	}
	return nil
}

// Subscribe joins the topic and subscribes to it. Only one subscription per topic is
// kept.
func (n *Node) Subscribe(topic network.Topic) (*pubsub.Subscription, error) {
	n.Lock()
	defer n.Unlock()

	tp, found := n.topics[topic]
	if !found {
		var err error
		tp, err = n.pubSub.Join(topic.String())
		if err != nil {
			return nil, fmt.Errorf("could not join topic (%s): %w", topic, err)
		}
		n.topics[topic] = tp
	}

	s, err := tp.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to topic (%s): %w", topic, err)
	}
	n.subs[topic] = s

	n.log.Debug().Str("topic", topic.String()).Msg("subscribed to topic")
	return s, nil
}

// UnSubscribe cancels the subscription and closes the topic.
func (n *Node) UnSubscribe(topic network.Topic) error {
	n.Lock()
	defer n.Unlock()

	if s, found := n.subs[topic]; found {
		s.Cancel()
		delete(n.subs, topic)
	}

	tp, found := n.topics[topic]
	if !found {
		return fmt.Errorf("could not find topic (%s)", topic)
	}
	err := tp.Close()
	if err != nil {
		return fmt.Errorf("could not close topic (%s): %w", topic, err)
	}
	delete(n.topics, topic)

	n.log.Debug().Str("topic", topic.String()).Msg("unsubscribed from topic")
	return nil
}

// Publish publishes the given payload on the topic.
func (n *Node) Publish(ctx context.Context, topic network.Topic, data []byte) error {
	n.Lock()
	tp, found := n.topics[topic]
	n.Unlock()
	if !found {
		return fmt.Errorf("could not find topic (%s)", topic)
	}

	err := tp.Publish(ctx, data)
	if err != nil {
		return fmt.Errorf("could not publish to topic (%s): %w", topic, err)
	}
	return nil
}

// NewStream opens a stream of the direct protocol to the peer.
func (n *Node) NewStream(ctx context.Context, pid peer.ID) (libp2pnet.Stream, error) {
	s, err := n.host.NewStream(ctx, pid, DirectProtocol)
	if err != nil {
		return nil, fmt.Errorf("could not open stream to %s: %w", pid, err)
	}
	return s, nil
}

// SetDirectStreamHandler sets the handler of inbound direct protocol streams.
func (n *Node) SetDirectStreamHandler(handler libp2pnet.StreamHandler) {
	n.host.SetStreamHandler(DirectProtocol, handler)
}
