package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/utils/unittest"
)

func TestCombiner(t *testing.T) {
	c := NewCombiner()
	sigs := map[uint32][]byte{
		7: unittest.RandomBytes(71),
		0: unittest.RandomBytes(72),
		3: unittest.RandomBytes(70),
	}

	aggregate, err := c.Aggregate(sigs)
	require.NoError(t, err)

	split, err := c.Split(aggregate)
	require.NoError(t, err)
	assert.Equal(t, sigs, split)

	t.Run("empty", func(t *testing.T) {
		_, err := c.Aggregate(nil)
		assert.ErrorIs(t, err, ErrInsufficientShares)
		_, err = c.Split(nil)
		assert.ErrorIs(t, err, ErrInsufficientShares)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := c.Split(aggregate[:len(aggregate)-1])
		assert.ErrorIs(t, err, ErrInvalidFormat)
		_, err = c.Split(aggregate[:3])
		assert.ErrorIs(t, err, ErrInvalidFormat)
		_, err = c.Split(aggregate[:1])
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("signers", func(t *testing.T) {
		signers, err := c.Signers(aggregate)
		require.NoError(t, err)
		assert.Equal(t, []uint{0, 3, 7}, signers.Indexes())
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := c.Split(append(aggregate, 1))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := c.Aggregate(map[uint32][]byte{maxSignerIndex + 1: {1}})
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestSignAndVerify(t *testing.T) {
	key := unittest.PrivateKeyFixture(t)
	signer := NewLocalSigner(key)
	verifier := NewECDSAVerifier()
	hash := unittest.HashFixture()
	msg := Message(quorum.SnapshotStream, 5, 1, hash)

	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	ok, err := verifier.Verify(sig, msg, signer.PublicKey())
	require.NoError(t, err)
	assert.True(t, ok)

	// bound to the stream kind
	other := Message(quorum.BridgeStream(quorum.NativeNetwork), 5, 1, hash)
	ok, err = verifier.Verify(sig, other, signer.PublicKey())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = verifier.Verify(sig, msg, []byte{1, 2, 3})
	assert.Error(t, err)

	_, err = signer.Sign([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidInputs)
}
