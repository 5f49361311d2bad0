package chunks

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/model/messages"
)

// Store is the holder side of the chunk exchange: a bounded set of artifacts, split into
// chunks, that this node can serve. Requests for unknown artifacts are ignored since
// another holder may answer them.
type Store struct {
	log       zerolog.Logger
	chunkSize int
	artifacts *lru.Cache[uint64, [][]byte]
}

func NewStore(log zerolog.Logger, capacity int, chunkSize int) (*Store, error) {
	artifacts, err := lru.New[uint64, [][]byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("could not create chunk store: %w", err)
	}
	return &Store{
		log:       log.With().Str("component", "chunk_store").Logger(),
		chunkSize: chunkSize,
		artifacts: artifacts,
	}, nil
}

// Put splits the payload and makes it available under the id.
func (s *Store) Put(id uint64, payload []byte) error {
	chunks, _, err := Split(payload, s.chunkSize)
	if err != nil {
		return fmt.Errorf("could not split artifact %d: %w", id, err)
	}
	s.artifacts.Add(id, chunks)
	s.log.Debug().Uint64("artifact", id).Int("chunks", len(chunks)).Msg("artifact available for transfer")
	return nil
}

// Has returns true if the artifact can be served.
func (s *Store) Has(id uint64) bool {
	return s.artifacts.Contains(id)
}

// Have returns the announcement of the artifact, or false if it is unknown.
func (s *Store) Have(id uint64) (*messages.Have, bool) {
	chunks, ok := s.artifacts.Get(id)
	if !ok {
		return nil, false
	}
	all := bitset.New(uint(len(chunks)))
	for i := range chunks {
		all.Set(uint(i))
	}
	return &messages.Have{
		ArtifactID: id,
		Total:      uint16(len(chunks)),
		Bitmap:     all.Bytes(),
	}, true
}

// Chunks returns the requested chunks of the artifact. Indexes beyond the artifact are
// skipped; an unknown artifact yields nothing.
func (s *Store) Chunks(id uint64, bitmap []uint64) []*messages.Chunk {
	chunks, ok := s.artifacts.Get(id)
	if !ok {
		return nil
	}

	var out []*messages.Chunk
	for _, index := range indexes(bitmap, len(chunks)) {
		out = append(out, &messages.Chunk{
			ArtifactID: id,
			Index:      index,
			Data:       chunks[index],
		})
	}
	return out
}
