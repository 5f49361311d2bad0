package chunks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/utils/unittest"
)

func TestSplit(t *testing.T) {
	payload := unittest.RandomBytes(1000)

	chunks, all, err := Split(payload, 300)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, uint(4), all.Count())
	assert.Len(t, chunks[3], 100)

	chunks, _, err = Split(nil, 300)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	_, _, err = Split(payload, 0)
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	store, err := NewStore(unittest.Logger(), 2, 100)
	require.NoError(t, err)
	payload := unittest.RandomBytes(250)
	require.NoError(t, store.Put(55, payload))

	have, ok := store.Have(55)
	require.True(t, ok)
	assert.Equal(t, uint16(3), have.Total)
	assert.Equal(t, []uint64{0b111}, have.Bitmap)

	chunks := store.Chunks(55, []uint64{0b101})
	require.Len(t, chunks, 2)
	assert.Equal(t, uint16(0), chunks[0].Index)
	assert.Equal(t, payload[:100], chunks[0].Data)
	assert.Equal(t, uint16(2), chunks[1].Index)
	assert.Equal(t, payload[200:], chunks[1].Data)

	// indexes beyond the artifact are skipped
	assert.Len(t, store.Chunks(55, []uint64{0b11000}), 0)

	// unknown artifacts are ignored
	_, ok = store.Have(7)
	assert.False(t, ok)
	assert.Nil(t, store.Chunks(7, []uint64{1}))

	// bounded
	require.NoError(t, store.Put(56, payload))
	require.NoError(t, store.Put(57, payload))
	assert.False(t, store.Has(55))
}

// a payload moves from a holder to a requester through Have, RequestChunk and Chunk
func TestTransfer(t *testing.T) {
	store, err := NewStore(unittest.Logger(), 4, 64)
	require.NoError(t, err)
	payload := unittest.RandomBytes(64*5 + 10)
	require.NoError(t, store.Put(55, payload))

	assembler := NewAssembler(55)
	assert.Empty(t, assembler.Want().Bitmap)
	assert.Empty(t, assembler.Missing())

	holder := unittest.PeerIDFixture()
	have, ok := store.Have(55)
	require.True(t, ok)

	request, ok, err := assembler.OnHave(holder, have)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, assembler.Missing(), 6)
	assert.Equal(t, []uint64{0b111111}, request.Bitmap)

	chunks := store.Chunks(request.ArtifactID, request.Bitmap)
	require.Len(t, chunks, 6)

	// a partial delivery leaves the rest missing
	for _, chunk := range chunks[:4] {
		added, err := assembler.OnChunk(holder, chunk)
		require.NoError(t, err)
		assert.True(t, added)
	}
	_, done := assembler.Complete(holder)
	assert.False(t, done)
	assert.Equal(t, []uint16{4, 5}, assembler.Missing())
	assert.Equal(t, []uint64{0b1111}, assembler.Want().Bitmap)

	// the next announcement only asks for what is missing
	request, ok, err = assembler.OnHave(holder, have)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []uint64{0b110000}, request.Bitmap)

	for _, chunk := range store.Chunks(55, request.Bitmap) {
		_, err := assembler.OnChunk(holder, chunk)
		require.NoError(t, err)
	}
	// duplicates are ignored
	added, err := assembler.OnChunk(holder, chunks[0])
	require.NoError(t, err)
	assert.False(t, added)

	assembled, done := assembler.Complete(holder)
	require.True(t, done)
	assert.Equal(t, payload, assembled)

	_, ok, err = assembler.OnHave(holder, have)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []quorum.PeerID{holder}, assembler.Holders(0))
}

func TestAssembler_Errors(t *testing.T) {
	assembler := NewAssembler(1)
	holder := unittest.PeerIDFixture()

	_, err := assembler.OnChunk(holder, &messages.Chunk{ArtifactID: 1, Index: 0})
	assert.Error(t, err)

	_, _, err = assembler.OnHave(holder, &messages.Have{ArtifactID: 2, Total: 1, Bitmap: []uint64{1}})
	assert.Error(t, err)

	_, _, err = assembler.OnHave(holder, &messages.Have{ArtifactID: 1, Total: 0})
	assert.Error(t, err)

	_, ok, err := assembler.OnHave(holder, &messages.Have{ArtifactID: 1, Total: 2, Bitmap: []uint64{0b11}})
	require.NoError(t, err)
	require.True(t, ok)
	_, err = assembler.OnChunk(holder, &messages.Chunk{ArtifactID: 1, Index: 2})
	assert.Error(t, err)

	// chunks from a peer that never announced are refused
	_, err = assembler.OnChunk(unittest.PeerIDFixture(), &messages.Chunk{ArtifactID: 1, Index: 0})
	assert.Error(t, err)
}

// holders serving different payloads are reassembled apart, and an excluded holder
// is ignored while the others continue
func TestAssembler_HoldersApart(t *testing.T) {
	honest, err := NewStore(unittest.Logger(), 4, 16)
	require.NoError(t, err)
	forged, err := NewStore(unittest.Logger(), 4, 16)
	require.NoError(t, err)
	payload := unittest.RandomBytes(40)
	require.NoError(t, honest.Put(55, payload))
	require.NoError(t, forged.Put(55, unittest.RandomBytes(40)))

	assembler := NewAssembler(55)
	junk, good := unittest.PeerIDFixture(), unittest.PeerIDFixture()

	forgedHave, _ := forged.Have(55)
	request, ok, err := assembler.OnHave(junk, forgedHave)
	require.NoError(t, err)
	require.True(t, ok)
	goodHave, _ := honest.Have(55)
	_, ok, err = assembler.OnHave(good, goodHave)
	require.NoError(t, err)
	require.True(t, ok)

	// the junk holder delivers everything, the honest one only the first chunk
	for _, chunk := range forged.Chunks(55, request.Bitmap) {
		_, err := assembler.OnChunk(junk, chunk)
		require.NoError(t, err)
	}
	first := honest.Chunks(55, []uint64{0b1})
	require.Len(t, first, 1)
	added, err := assembler.OnChunk(good, first[0])
	require.NoError(t, err)
	assert.True(t, added)

	_, done := assembler.Complete(good)
	assert.False(t, done)
	_, done = assembler.Complete(junk)
	require.True(t, done)
	assert.Equal(t, []uint64{0b111}, assembler.Want().Bitmap)

	assembler.Exclude(junk)
	_, ok, err = assembler.OnHave(junk, forgedHave)
	require.NoError(t, err)
	assert.False(t, ok)
	added, err = assembler.OnChunk(junk, first[0])
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []quorum.PeerID{good}, assembler.Holders(0))
	assert.Equal(t, []uint16{1, 2}, assembler.Missing())

	request, ok, err = assembler.OnHave(good, goodHave)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []uint64{0b110}, request.Bitmap)
	for _, chunk := range honest.Chunks(55, request.Bitmap) {
		_, err := assembler.OnChunk(good, chunk)
		require.NoError(t, err)
	}
	assembled, done := assembler.Complete(good)
	require.True(t, done)
	assert.Equal(t, payload, assembled)
}
