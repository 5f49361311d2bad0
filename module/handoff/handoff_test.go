package handoff_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/handoff"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/module/signature"
	"github.com/attestnet/attest/utils/unittest"
)

func sign(t *testing.T, key *btcec.PrivateKey, index int, epoch uint64, seq uint64, payload []byte) *quorum.Partial {
	p, err := signature.SignPartial(signature.NewLocalSigner(key), uint32(index), quorum.SnapshotStream, seq, epoch, payload)
	require.NoError(t, err)
	return p
}

// Sequence 54 is final when the set rotates while sequence 55 collects signatures.
// The new set serves Want(55), checks the retrieved payload against the local copy and
// finalizes 55 under the new epoch, which completes the handoff.
func TestHandoff_Rotation(t *testing.T) {
	outgoing, oldKeys := unittest.AuthoritySetFixture(t, 1, 4)
	incoming, newKeys := unittest.AuthoritySetFixture(t, 2, 4)
	aggregator := signature.NewAggregator(unittest.Logger(), metrics.NewNoopCollector(), signature.NewECDSAVerifier(), quorum.SnapshotStream, outgoing, 54)
	h := handoff.New(unittest.Logger())

	payload := unittest.SnapshotFixture(unittest.WithStateChangeID(55)).Encode()
	for i := 0; i < 2; i++ {
		_, err := aggregator.ProposeOrMerge(sign(t, oldKeys[i], i, 1, 55, payload))
		require.NoError(t, err)
	}

	pending, err := aggregator.Rotate(incoming)
	require.NoError(t, err)
	require.Equal(t, []uint64{55}, pending)

	seq, ok := h.Rotate(aggregator.Finalized(), func(seq uint64) bool {
		for _, p := range pending {
			if p == seq {
				return true
			}
		}
		return false
	})
	require.True(t, ok)
	assert.Equal(t, uint64(55), seq)

	seq, ok = h.Pending()
	require.True(t, ok)
	assert.Equal(t, uint64(55), seq)

	// payloads that differ from the local copy are refused
	_, err = h.Revalidate(55, unittest.SnapshotFixture().Encode(), aggregator)
	assert.ErrorIs(t, err, handoff.ErrPayloadMismatch)
	_, err = h.Revalidate(56, payload, aggregator)
	assert.ErrorIs(t, err, handoff.ErrNotPending)

	local, err := h.Revalidate(55, payload, aggregator)
	require.NoError(t, err)
	assert.Equal(t, quorum.HashPayload(payload), local.PayloadHash)

	// the new set endorses it again
	var outcome signature.Outcome
	for i := 0; i < int(incoming.Threshold()); i++ {
		outcome, err = aggregator.ProposeOrMerge(sign(t, newKeys[i], i, 2, 55, local.Payload))
		require.NoError(t, err)
	}
	require.Equal(t, signature.Finalized, outcome.Kind)
	h.OnFinalized(outcome.Finalized[0].Sequence)

	_, ok = h.Pending()
	assert.False(t, ok)
}

func TestHandoff_NothingPending(t *testing.T) {
	h := handoff.New(unittest.Logger())

	_, ok := h.Rotate(10, func(uint64) bool { return false })
	assert.False(t, ok)
	_, ok = h.Pending()
	assert.False(t, ok)

	_, err := h.Revalidate(11, unittest.RandomBytes(10), nil)
	assert.ErrorIs(t, err, handoff.ErrNotPending)
}

func TestHandoff_Marker(t *testing.T) {
	h := handoff.New(unittest.Logger())
	_, ok := h.Rotate(10, func(seq uint64) bool { return seq == 11 })
	require.True(t, ok)

	// finalizing below the marker keeps it
	h.OnFinalized(10)
	seq, ok := h.Pending()
	assert.True(t, ok)
	assert.Equal(t, uint64(11), seq)

	// a later rotation without unfinalized artifacts clears it
	_, ok = h.Rotate(10, func(uint64) bool { return false })
	assert.False(t, ok)
	_, ok = h.Pending()
	assert.False(t, ok)

	// finalizing past the marker clears it
	h.Rotate(20, func(uint64) bool { return true })
	h.OnFinalized(25)
	_, ok = h.Pending()
	assert.False(t, ok)
}

type emptyCopy struct{}

func (emptyCopy) Retired(uint64) []*quorum.Artifact { return nil }

func TestHandoff_NoLocalCopy(t *testing.T) {
	h := handoff.New(unittest.Logger())
	h.Rotate(4, func(uint64) bool { return true })

	_, err := h.Revalidate(5, unittest.RandomBytes(10), emptyCopy{})
	assert.ErrorIs(t, err, handoff.ErrNoLocalCopy)
}
