package p2p

import (
	"context"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/gossip"
	"github.com/attestnet/attest/utils/unittest"
)

func TestValidationResult(t *testing.T) {
	assert.Equal(t, pubsub.ValidationAccept, validationResult(gossip.ProcessAndKeep))
	assert.Equal(t, pubsub.ValidationIgnore, validationResult(gossip.ProcessAndDiscard))
	assert.Equal(t, pubsub.ValidationIgnore, validationResult(gossip.Discard))
}

func TestTopicValidator(t *testing.T) {
	self := peerIDFixture(t)
	remote := peerIDFixture(t)
	data := unittest.RandomBytes(32)

	handler := newRecorder(gossip.ProcessAndDiscard)
	validate := TopicValidator(self, network.CheckpointTopic, handler)

	msg := &pubsub.Message{Message: &pb.Message{Data: data}}

	// local messages pass untouched
	assert.Equal(t, pubsub.ValidationAccept, validate(context.Background(), self, msg))
	assert.Empty(t, handler.received())

	assert.Equal(t, pubsub.ValidationIgnore, validate(context.Background(), remote, msg))
	received := handler.received()
	require.Len(t, received, 1)
	assert.Equal(t, inbound{topic: network.CheckpointTopic, sender: quorum.PeerID(remote.String()), data: data}, received[0])
}

func TestAuthorityRoles(t *testing.T) {
	set, keys := unittest.AuthoritySetFixture(t, 1, 3)
	view := ledgerviewFixture(set)
	roles := NewAuthorityRoles(unittest.Logger(), view)

	authority, err := PeerIDFromPublicKey(keys[1].PubKey().SerializeCompressed())
	require.NoError(t, err)
	assert.Equal(t, quorum.RoleAuthority, roles.Role(authority))
	assert.Equal(t, quorum.RoleFull, roles.Role(peerIDFixture(t)))

	// the derived peer ID is the one of a host keyed with the validator key
	pk, err := PrivKey(keys[1])
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(pk)
	require.NoError(t, err)
	assert.Equal(t, authority, id)

	// rotating the set out revokes the role
	next, _ := unittest.AuthoritySetFixture(t, 2, 3)
	require.NoError(t, view.Rotate(next))
	assert.Equal(t, quorum.RoleFull, roles.Role(authority))
}
