package p2p

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	libp2pnet "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/multiformats/go-multiaddr"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/gossip"
)

// RoleResolver tells the role of a connected peer.
type RoleResolver interface {
	Role(pid peer.ID) quorum.Role
}

// Network is the gossip transport over libp2p. Topics are GossipSub topics validated
// by the inbound handler; directed messages use a stream protocol of their own.
// Connection events feed the peer set of the handler.
type Network struct {
	unit      *engine.Unit
	log       zerolog.Logger
	node      *Node
	roles     RoleResolver
	config    Config
	bootstrap []peer.AddrInfo
	handler   gossip.InboundHandler

	mu        sync.Mutex
	connected map[peer.ID]struct{}
}

var _ gossip.Transport = (*Network)(nil)

// New starts the libp2p node. The network does not deliver messages before Start.
func New(log zerolog.Logger, key *btcec.PrivateKey, roles RoleResolver, config Config) (*Network, error) {
	bootstrap, err := ParseBootstrap(config.Bootstrap)
	if err != nil {
		return nil, err
	}

	n := &Network{
		unit:      engine.NewUnit(),
		log:       log.With().Str("component", "p2p").Logger(),
		roles:     roles,
		config:    config,
		bootstrap: bootstrap,
		connected: make(map[peer.ID]struct{}),
	}

	var gater *ConnGater
	if config.Restricted {
		gater = NewConnGater(n.log, n.allowed)
	}
	n.node, err = NewNode(n.unit.Ctx(), n.log, key, config, gater)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ParseBootstrap parses p2p multiaddresses, which carry the peer ID of the target.
func ParseBootstrap(addrs []string) ([]peer.AddrInfo, error) {
	infos := make([]peer.AddrInfo, 0, len(addrs))
	for _, addr := range addrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap address %s: %w", addr, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap peer %s: %w", addr, err)
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// Node returns the underlying libp2p node.
func (n *Network) Node() *Node {
	return n.node
}

// Start hooks the handler up to every topic, to direct messages and to connection
// events. It must be called once, before Ready.
func (n *Network) Start(handler gossip.InboundHandler) error {
	n.handler = handler

	n.node.SetDirectStreamHandler(n.handleStream)
	n.node.Notify(&libp2pnet.NotifyBundle{
		ConnectedF:    n.onConnected,
		DisconnectedF: n.onDisconnected,
	})

	for _, topic := range network.Topics() {
		err := n.node.RegisterTopicValidator(topic, TopicValidator(n.node.ID(), topic, handler))
		if err != nil {
			return err
		}
		sub, err := n.node.Subscribe(topic)
		if err != nil {
			return err
		}
		n.unit.Launch(func() { n.drain(sub) })
	}
	return nil
}

// Ready dials the bootstrap peers, then keeps dialing the ones lost.
func (n *Network) Ready() <-chan struct{} {
	n.unit.LaunchPeriodically(n.connectBootstrap, n.config.ReconnectInterval, 0)
	return n.unit.Ready()
}

func (n *Network) Done() <-chan struct{} {
	return n.unit.Done(func() {
		err := n.node.Stop()
		if err != nil {
			n.log.Warn().Err(err).Msg("could not stop libp2p node cleanly")
		}
	})
}

// Broadcast publishes the message on the topic.
func (n *Network) Broadcast(ctx context.Context, topic network.Topic, data []byte) error {
	return n.node.Publish(ctx, topic, data)
}

// drain consumes the messages of a subscription. They were handled by the topic
// validator already.
func (n *Network) drain(sub *pubsub.Subscription) {
	for {
		_, err := sub.Next(n.unit.Ctx())
		if err != nil {
			return
		}
	}
}

func (n *Network) connectBootstrap() {
	for _, info := range n.bootstrap {
		if info.ID == n.node.ID() || n.node.IsConnected(info.ID) {
			continue
		}
		err := n.node.Connect(n.unit.Ctx(), info)
		if err != nil {
			n.log.Debug().Err(err).Str("peer", info.ID.String()).Msg("could not dial bootstrap peer")
		}
	}
}

func (n *Network) allowed(pid peer.ID) bool {
	for _, info := range n.bootstrap {
		if info.ID == pid {
			return true
		}
	}
	return n.roles.Role(pid) == quorum.RoleAuthority
}

// onConnected reports a peer on its first connection.
func (n *Network) onConnected(_ libp2pnet.Network, conn libp2pnet.Conn) {
	pid := conn.RemotePeer()

	n.mu.Lock()
	_, known := n.connected[pid]
	n.connected[pid] = struct{}{}
	n.mu.Unlock()
	if known {
		return
	}

	n.handler.NewPeer(quorum.PeerID(pid.String()), n.roles.Role(pid))
}

// onDisconnected reports a peer once its last connection closed.
func (n *Network) onDisconnected(net libp2pnet.Network, conn libp2pnet.Conn) {
	pid := conn.RemotePeer()
	if net.Connectedness(pid) == libp2pnet.Connected {
		return
	}

	n.mu.Lock()
	_, known := n.connected[pid]
	delete(n.connected, pid)
	n.mu.Unlock()
	if !known {
		return
	}

	n.handler.PeerDisconnected(quorum.PeerID(pid.String()))
}
