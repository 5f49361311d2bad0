package gossip

import (
	"sort"
	"sync"

	"github.com/attestnet/attest/model/quorum"
)

// PeerBook keeps track of connected peers by role. Membership is pure bookkeeping: it
// never affects whether a message is valid.
type PeerBook struct {
	mu    sync.RWMutex
	peers map[quorum.PeerID]quorum.Role
}

func NewPeerBook() *PeerBook {
	return &PeerBook{
		peers: make(map[quorum.PeerID]quorum.Role),
	}
}

// Add records the peer with the given role, replacing a previously observed role.
func (b *PeerBook) Add(peer quorum.PeerID, role quorum.Role) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.peers[peer] = role
}

// Remove forgets the peer. Returns true if the peer was known.
func (b *PeerBook) Remove(peer quorum.PeerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.peers[peer]
	delete(b.peers, peer)
	return ok
}

// Role returns the observed role of the peer.
func (b *PeerBook) Role(peer quorum.PeerID) (quorum.Role, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	role, ok := b.peers[peer]
	return role, ok
}

// IsAuthority returns true if the peer was observed as an authority.
func (b *PeerBook) IsAuthority(peer quorum.PeerID) bool {
	role, ok := b.Role(peer)
	return ok && role == quorum.RoleAuthority
}

// IsFull returns true if the peer was observed as a full node.
func (b *PeerBook) IsFull(peer quorum.PeerID) bool {
	role, ok := b.Role(peer)
	return ok && role == quorum.RoleFull
}

// Peers returns all known peers in a stable order.
func (b *PeerBook) Peers() []quorum.PeerID {
	return b.filter(func(quorum.Role) bool { return true })
}

// Authorities returns the peers observed as authorities.
func (b *PeerBook) Authorities() []quorum.PeerID {
	return b.filter(func(role quorum.Role) bool { return role == quorum.RoleAuthority })
}

// FullNodes returns the peers observed as full nodes.
func (b *PeerBook) FullNodes() []quorum.PeerID {
	return b.filter(func(role quorum.Role) bool { return role == quorum.RoleFull })
}

// Len returns the number of known peers.
func (b *PeerBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.peers)
}

func (b *PeerBook) filter(match func(quorum.Role) bool) []quorum.PeerID {
	b.mu.RLock()
	peers := make([]quorum.PeerID, 0, len(b.peers))
	for peer, role := range b.peers {
		if match(role) {
			peers = append(peers, peer)
		}
	}
	b.mu.RUnlock()

	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers
}
