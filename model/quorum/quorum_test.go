package quorum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/utils/unittest"
)

func TestThreshold(t *testing.T) {
	cases := map[uint]uint{1: 1, 2: 2, 3: 2, 4: 3, 7: 5, 9: 6, 10: 7, 100: 67}
	for total, threshold := range cases {
		assert.Equal(t, threshold, quorum.Threshold(total), "total %d", total)
	}
}

func TestHashPayload(t *testing.T) {
	// keccak-256 of the empty input
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", quorum.HashPayload(nil).String())
	assert.NotEqual(t, quorum.HashPayload([]byte{1}), quorum.HashPayload([]byte{2}))
}

func TestSignerSet(t *testing.T) {
	s := quorum.NewSignerSet(3, 0)
	assert.True(t, s.Add(70))
	assert.False(t, s.Add(3))
	assert.Equal(t, uint(3), s.Count())
	assert.Equal(t, []uint{0, 3, 70}, s.Indexes())

	decoded := quorum.SignerSetFromWords(s.Words())
	assert.True(t, decoded.Equal(s))

	clone := s.Clone()
	clone.Add(5)
	assert.False(t, s.Has(5))
	assert.False(t, clone.Equal(s))

	var empty quorum.SignerSet
	assert.Zero(t, empty.Count())
	assert.False(t, empty.Has(0))
	assert.True(t, empty.Add(1))
}

func TestAuthoritySet_IndexOf(t *testing.T) {
	set, keys := unittest.AuthoritySetFixture(t, 4, 3)
	assert.Equal(t, uint64(4), set.Epoch())
	assert.Equal(t, uint(2), set.Threshold())

	for i, key := range keys {
		index, ok := set.IndexOf(key.PubKey().SerializeCompressed())
		require.True(t, ok)
		assert.Equal(t, uint(i), index)
	}
	_, ok := set.Key(3)
	assert.False(t, ok)
}

func TestSnapshot_Decode(t *testing.T) {
	snapshot := unittest.SnapshotFixture()
	decoded, err := quorum.DecodeSnapshot(snapshot.Encode())
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)

	_, err = quorum.DecodeSnapshot([]byte{0xff})
	assert.Error(t, err)
}
