package local

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/ledger"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/module/signature"
	"github.com/attestnet/attest/utils/unittest"
)

// finalize signs the payload with the first threshold keys of the set.
func finalize(t *testing.T, set *quorum.AuthoritySet, keys []*btcec.PrivateKey, stream quorum.Stream, seq uint64, payload []byte) *quorum.Artifact {
	var artifact *quorum.Artifact
	for i := 0; i < int(set.Threshold()); i++ {
		p, err := signature.SignPartial(signature.NewLocalSigner(keys[i]), uint32(i), stream, seq, set.Epoch(), payload)
		require.NoError(t, err)
		if artifact == nil {
			artifact = quorum.NewArtifact(p)
			continue
		}
		artifact.Signatures[p.SignerIndex] = p.Signature
	}
	aggregate, err := signature.NewCombiner().Aggregate(artifact.Signatures)
	require.NoError(t, err)
	artifact.AggregateSignature = aggregate
	return artifact
}

func withLedger(t *testing.T, f func(*Ledger, *quorum.AuthoritySet, []*btcec.PrivateKey)) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		set, keys := unittest.AuthoritySetFixture(t, 1, 4)
		l := New(unittest.Logger(), metrics.NewNoopCollector(), db, signature.NewECDSAVerifier())
		require.NoError(t, l.Bootstrap(set))
		f(l, set, keys)
	})
}

func TestLedger_NotBootstrapped(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		l := New(unittest.Logger(), metrics.NewNoopCollector(), db, signature.NewECDSAVerifier())
		_, err := l.CurrentAuthoritySet(context.Background())
		require.True(t, errors.Is(err, ledger.ErrNotFound))

		_, err = l.LatestSnapshot(context.Background())
		require.True(t, errors.Is(err, ledger.ErrNotFound))

		seq, err := l.LastFinalizedSequence(context.Background(), quorum.SnapshotStream)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), seq)
	})
}

func TestLedger_Bootstrap(t *testing.T) {
	withLedger(t, func(l *Ledger, set *quorum.AuthoritySet, _ []*btcec.PrivateKey) {
		other, _ := unittest.AuthoritySetFixture(t, 7, 3)
		require.NoError(t, l.Bootstrap(other))

		current, err := l.CurrentAuthoritySet(context.Background())
		require.NoError(t, err)
		assert.Equal(t, set.Epoch(), current.Epoch())
		assert.Equal(t, set.Keys(), current.Keys())
	})
}

func TestLedger_SubmitSnapshot(t *testing.T) {
	withLedger(t, func(l *Ledger, set *quorum.AuthoritySet, keys []*btcec.PrivateKey) {
		ctx := context.Background()
		snapshot := unittest.SnapshotFixture(unittest.WithStateChangeID(1))
		artifact := finalize(t, set, keys, quorum.SnapshotStream, 1, snapshot.Encode())

		require.NoError(t, l.SubmitFinalized(ctx, artifact))

		seq, err := l.LastFinalizedSequence(ctx, quorum.SnapshotStream)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), seq)

		latest, err := l.LatestSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, snapshot, latest)

		payload, err := l.Payload(1)
		require.NoError(t, err)
		assert.Equal(t, artifact.Payload, payload)

		stored, err := l.Artifact(quorum.SnapshotStream, 1)
		require.NoError(t, err)
		assert.Equal(t, artifact.PayloadHash, stored.PayloadHash)

		// resubmission is idempotent
		require.NoError(t, l.SubmitFinalized(ctx, artifact))
	})
}

func TestLedger_OutOfOrder(t *testing.T) {
	withLedger(t, func(l *Ledger, set *quorum.AuthoritySet, keys []*btcec.PrivateKey) {
		ctx := context.Background()
		stream := quorum.BridgeStream(2)

		gap := finalize(t, set, keys, stream, 2, unittest.BridgeMessageFixture(unittest.WithNonce(2)).Encode())
		err := l.SubmitFinalized(ctx, gap)
		require.True(t, ledger.IsErrOutOfOrder(err))

		first := finalize(t, set, keys, stream, 1, unittest.BridgeMessageFixture(unittest.WithNonce(1)).Encode())
		require.NoError(t, l.SubmitFinalized(ctx, first))
		require.NoError(t, l.SubmitFinalized(ctx, gap))

		// a conflicting payload at a finalized position is rejected
		conflict := finalize(t, set, keys, stream, 1, unittest.BridgeMessageFixture(unittest.WithNonce(1)).Encode())
		err = l.SubmitFinalized(ctx, conflict)
		require.True(t, ledger.IsErrOutOfOrder(err))

		// bridge streams do not move the snapshot
		_, err = l.LatestSnapshot(ctx)
		require.True(t, errors.Is(err, ledger.ErrNotFound))
	})
}

func TestLedger_InsufficientSignatures(t *testing.T) {
	withLedger(t, func(l *Ledger, set *quorum.AuthoritySet, keys []*btcec.PrivateKey) {
		ctx := context.Background()
		artifact := finalize(t, set, keys, quorum.SnapshotStream, 1, unittest.SnapshotFixture().Encode())

		for index := range artifact.Signatures {
			delete(artifact.Signatures, index)
			break
		}
		aggregate, err := signature.NewCombiner().Aggregate(artifact.Signatures)
		require.NoError(t, err)
		artifact.AggregateSignature = aggregate

		err = l.SubmitFinalized(ctx, artifact)
		require.True(t, errors.Is(err, ledger.ErrInsufficientSignatures))

		seq, err := l.LastFinalizedSequence(ctx, quorum.SnapshotStream)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), seq)
	})
}

func TestLedger_Rotate(t *testing.T) {
	withLedger(t, func(l *Ledger, set *quorum.AuthoritySet, keys []*btcec.PrivateKey) {
		ctx := context.Background()
		next, nextKeys := unittest.AuthoritySetFixture(t, 2, 5)

		require.Error(t, l.Rotate(set))
		require.NoError(t, l.Rotate(next))

		current, err := l.CurrentAuthoritySet(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), current.Epoch())

		// artifacts signed under the old set are no longer accepted
		old := finalize(t, set, keys, quorum.SnapshotStream, 1, unittest.SnapshotFixture().Encode())
		err = l.SubmitFinalized(ctx, old)
		require.True(t, errors.Is(err, ledger.ErrInsufficientSignatures))

		fresh := finalize(t, next, nextKeys, quorum.SnapshotStream, 1, unittest.SnapshotFixture().Encode())
		require.NoError(t, l.SubmitFinalized(ctx, fresh))
	})
}
