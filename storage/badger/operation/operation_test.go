package operation

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/storage"
	"github.com/attestnet/attest/utils/unittest"
)

func TestFinalizedSequence(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		stream := quorum.BridgeStream(3)

		var seq uint64
		err := db.View(RetrieveFinalizedSequence(stream, &seq))
		require.True(t, errors.Is(err, storage.ErrNotFound))

		require.NoError(t, db.Update(UpsertFinalizedSequence(stream, 7)))
		require.NoError(t, db.Update(UpsertFinalizedSequence(stream, 8)))
		require.NoError(t, db.View(RetrieveFinalizedSequence(stream, &seq)))
		assert.Equal(t, uint64(8), seq)

		// streams are independent
		err = db.View(RetrieveFinalizedSequence(quorum.SnapshotStream, &seq))
		require.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestAuthoritySet(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		set, _ := unittest.AuthoritySetFixture(t, 4, 5)
		require.NoError(t, db.Update(InsertAuthoritySet(set)))

		err := db.Update(InsertAuthoritySet(set))
		require.True(t, errors.Is(err, storage.ErrAlreadyExists))

		var retrieved *quorum.AuthoritySet
		require.NoError(t, db.View(RetrieveAuthoritySet(4, &retrieved)))
		assert.Equal(t, set.Keys(), retrieved.Keys())
		assert.Equal(t, set.Epoch(), retrieved.Epoch())
	})
}

func TestArtifacts(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		stream := quorum.SnapshotStream
		for seq := uint64(1); seq <= 3; seq++ {
			payload := unittest.SnapshotFixture(unittest.WithStateChangeID(seq)).Encode()
			artifact := &quorum.Artifact{
				Stream:             stream,
				Sequence:           seq,
				Epoch:              1,
				Payload:            payload,
				PayloadHash:        quorum.HashPayload(payload),
				Signatures:         map[uint32][]byte{0: unittest.RandomBytes(70), 2: unittest.RandomBytes(71)},
				AggregateSignature: unittest.RandomBytes(150),
			}
			require.NoError(t, db.Update(InsertArtifact(artifact)))

			var retrieved quorum.Artifact
			require.NoError(t, db.View(RetrieveArtifact(stream, seq, &retrieved)))
			assert.Equal(t, artifact, &retrieved)
		}

		var found bool
		require.NoError(t, db.View(ArtifactExists(stream, 2, &found)))
		assert.True(t, found)
		require.NoError(t, db.View(ArtifactExists(stream, 4, &found)))
		assert.False(t, found)

		var seqs []uint64
		require.NoError(t, db.View(TraverseArtifacts(stream, func(seq uint64, artifact *quorum.Artifact) error {
			assert.Equal(t, seq, artifact.Sequence)
			seqs = append(seqs, seq)
			return nil
		})))
		assert.Equal(t, []uint64{1, 2, 3}, seqs)
	})
}

func TestPayload(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		payload := unittest.RandomBytes(2048)
		require.NoError(t, db.Update(UpsertPayload(55, payload)))

		var retrieved []byte
		require.NoError(t, db.View(RetrievePayload(55, &retrieved)))
		assert.Equal(t, payload, retrieved)
	})
}

func TestCodec_Corrupted(t *testing.T) {
	var v uint64
	err := decodeValue([]byte{0xff, 0x00, 0x01}, &v)
	require.Error(t, err)
}
