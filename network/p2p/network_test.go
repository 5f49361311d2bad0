package p2p

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/gossip"
	"github.com/attestnet/attest/utils/unittest"
)

type inbound struct {
	topic  network.Topic
	sender quorum.PeerID
	data   []byte
}

// recorder is an inbound handler answering every message with a fixed result.
type recorder struct {
	result gossip.ValidationResult

	mu       sync.Mutex
	messages []inbound
	peers    map[quorum.PeerID]quorum.Role
}

var _ gossip.InboundHandler = (*recorder)(nil)

func newRecorder(result gossip.ValidationResult) *recorder {
	return &recorder{result: result, peers: make(map[quorum.PeerID]quorum.Role)}
}

func (r *recorder) HandleInbound(topic network.Topic, sender quorum.PeerID, data []byte) gossip.ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, inbound{topic: topic, sender: sender, data: data})
	return r.result
}

func (r *recorder) NewPeer(peer quorum.PeerID, role quorum.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[peer] = role
}

func (r *recorder) PeerDisconnected(peer quorum.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, peer)
}

func (r *recorder) received() []inbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]inbound(nil), r.messages...)
}

func (r *recorder) role(peer quorum.PeerID) (quorum.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.peers[peer]
	return role, ok
}

func peerIDFixture(t testing.TB) peer.ID {
	pk, err := PrivKey(unittest.PrivateKeyFixture(t))
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(pk)
	require.NoError(t, err)
	return id
}

func ledgerviewFixture(set *quorum.AuthoritySet) *ledgerview.LedgerView {
	return ledgerview.New(unittest.Logger(), set)
}

// startNetworks starts one network per key, all listening on loopback, with the first
// as bootstrap peer of the others.
func startNetworks(t *testing.T, n int) ([]*Network, []*recorder) {
	set, keys := unittest.AuthoritySetFixture(t, 1, n)
	roles := NewAuthorityRoles(unittest.Logger(), ledgerviewFixture(set))

	nets := make([]*Network, 0, n)
	recorders := make([]*recorder, 0, n)
	var bootstrap []string
	for i := 0; i < n; i++ {
		config := DefaultConfig()
		config.ListenAddress = "/ip4/127.0.0.1/tcp/0"
		config.Bootstrap = bootstrap
		config.ReconnectInterval = 100 * time.Millisecond

		net, err := New(unittest.Logger(), keys[i], roles, config)
		require.NoError(t, err)
		rec := newRecorder(gossip.ProcessAndKeep)
		require.NoError(t, net.Start(rec))
		unittest.RequireCloseBefore(t, net.Ready(), unittest.DefaultReturnTimeout, "network not ready")

		if i == 0 {
			info := net.Node().AddrInfo()
			for _, addr := range info.Addrs {
				bootstrap = append(bootstrap, addr.String()+"/p2p/"+info.ID.String())
			}
		}
		nets = append(nets, net)
		recorders = append(recorders, rec)
	}

	t.Cleanup(func() {
		for _, net := range nets {
			unittest.RequireCloseBefore(t, net.Done(), unittest.DefaultReturnTimeout, "network not done")
		}
	})
	return nets, recorders
}

func TestNetwork_PeersAndDirect(t *testing.T) {
	nets, recorders := startNetworks(t, 2)
	first := quorum.PeerID(nets[0].Node().ID().String())
	second := quorum.PeerID(nets[1].Node().ID().String())

	// the second node dials the first and both report an authority peer
	require.Eventually(t, func() bool {
		_, ok0 := recorders[0].role(second)
		_, ok1 := recorders[1].role(first)
		return ok0 && ok1
	}, unittest.DefaultReturnTimeout, 50*time.Millisecond)
	role, _ := recorders[1].role(first)
	assert.Equal(t, quorum.RoleAuthority, role)

	data := unittest.RandomBytes(64)
	require.NoError(t, nets[0].SendTo(context.Background(), second, network.CheckpointTopic, data))
	require.Eventually(t, func() bool {
		for _, msg := range recorders[1].received() {
			if msg.sender == first && msg.topic == network.CheckpointTopic && string(msg.data) == string(data) {
				return true
			}
		}
		return false
	}, unittest.DefaultReturnTimeout, 50*time.Millisecond)
}

func TestNetwork_Broadcast(t *testing.T) {
	nets, recorders := startNetworks(t, 3)
	data := unittest.RandomBytes(64)

	// the mesh forms asynchronously, so publishing is repeated until delivery
	require.Eventually(t, func() bool {
		_ = nets[1].Broadcast(context.Background(), network.BridgeTopic, data)
		delivered := 0
		for _, i := range []int{0, 2} {
			for _, msg := range recorders[i].received() {
				if msg.topic == network.BridgeTopic && string(msg.data) == string(data) {
					delivered++
					break
				}
			}
		}
		return delivered == 2
	}, 10*time.Second, 200*time.Millisecond)

	// the publisher does not handle its own message
	for _, msg := range recorders[1].received() {
		assert.NotEqual(t, string(data), string(msg.data))
	}
}
