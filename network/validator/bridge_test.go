package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network/gossip"
	"github.com/attestnet/attest/utils/unittest"
)

func TestBridgeValidator(t *testing.T) {
	f := newFixture(t)
	v := NewBridgeValidator(unittest.Logger(), f.codec, f.view, f.cache)
	sender := unittest.PeerIDFixture()

	vote := func(nonce uint64, network quorum.Network, epoch uint64) []byte {
		return f.encode(t, unittest.BridgeVoteFixture(
			unittest.WithNonce(nonce),
			unittest.WithNetwork(network),
			unittest.WithValidatorSetID(epoch),
		))
	}

	t.Run("live votes are kept", func(t *testing.T) {
		assert.Equal(t, gossip.ProcessAndKeep, v.Validate(sender, vote(21, 1, 1)))
		// nothing finalized on the native network yet
		assert.Equal(t, gossip.ProcessAndKeep, v.Validate(sender, vote(1, quorum.NativeNetwork, 1)))
	})

	t.Run("finalized nonces and foreign epochs are dropped", func(t *testing.T) {
		assert.Equal(t, gossip.Discard, v.Validate(sender, vote(20, 1, 1)))
		assert.Equal(t, gossip.Discard, v.Validate(sender, vote(21, 1, 0)))
		assert.Equal(t, gossip.Discard, v.Validate(sender, vote(21, 1, 2)))
	})

	t.Run("expiry follows liveness", func(t *testing.T) {
		data := vote(22, 1, 1)
		assert.False(t, v.MessageExpired(data))
		f.view.Advance(quorum.BridgeStream(1), 22)
		assert.True(t, v.MessageExpired(data))
		assert.False(t, v.MessageAllowed(sender, data))
	})

	t.Run("checkpoint messages are dropped", func(t *testing.T) {
		data := f.encode(t, unittest.CheckpointVoteFixture(unittest.WithVoteEpoch(1), unittest.WithVoteSequence(11)))
		assert.Equal(t, gossip.Discard, v.Validate(sender, data))
		assert.True(t, v.MessageExpired(data))
	})

	t.Run("rebroadcast interval", func(t *testing.T) {
		peer := unittest.PeerIDFixture()
		data := vote(30, 1, 1)
		assert.True(t, v.MessageAllowed(peer, data))
		assert.False(t, v.MessageAllowed(peer, data))
		f.clock.Advance(RebroadcastInterval + 1)
		assert.True(t, v.MessageAllowed(peer, data))
	})
}
