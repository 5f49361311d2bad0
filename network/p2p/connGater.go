package p2p

import (
	"github.com/libp2p/go-libp2p/core/connmgr"
	"github.com/libp2p/go-libp2p/core/control"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/rs/zerolog"
)

var _ connmgr.ConnectionGater = (*ConnGater)(nil)

// ConnGater restricts the connections of a node to the peers accepted by its filter.
type ConnGater struct {
	peerFilter PeerFilter
	log        zerolog.Logger
}

type PeerFilter func(peer.ID) bool

func NewConnGater(log zerolog.Logger, peerFilter PeerFilter) *ConnGater {
	return &ConnGater{
		log:        log.With().Str("component", "conn_gater").Logger(),
		peerFilter: peerFilter,
	}
}

// InterceptPeerDial allows or disallows outbound connections.
func (c *ConnGater) InterceptPeerDial(p peer.ID) bool {
	return c.peerFilter(p)
}

// InterceptAddrDial is not used. Filtering is by peer ID only.
func (c *ConnGater) InterceptAddrDial(peer.ID, multiaddr.Multiaddr) bool {
	return true
}

// InterceptAccept is not used. Filtering is by peer ID only.
func (c *ConnGater) InterceptAccept(network.ConnMultiaddrs) bool {
	return true
}

// InterceptSecured runs after the security handshake, once the peer ID of an inbound
// connection is known.
func (c *ConnGater) InterceptSecured(dir network.Direction, p peer.ID, addr network.ConnMultiaddrs) bool {
	if dir != network.DirInbound {
		// outbound connections were filtered on dial
		return true
	}
	allowed := c.peerFilter(p)
	if !allowed {
		c.log.Info().
			Str("peer", p.String()).
			Str("local_address", addr.LocalMultiaddr().String()).
			Str("remote_address", addr.RemoteMultiaddr().String()).
			Msg("rejected inbound connection")
	}
	return allowed
}

func (c *ConnGater) InterceptUpgraded(network.Conn) (bool, control.DisconnectReason) {
	return true, 0
}
