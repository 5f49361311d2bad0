package chunks

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// DefaultChunkSize keeps every chunk well below the gossip frame limit.
const DefaultChunkSize = 512 * 1024

// MaxChunks bounds the number of chunks of one artifact; chunk counts travel as uint16.
const MaxChunks = math.MaxUint16

// Split cuts the payload into chunks of at most chunkSize bytes and returns them with
// the bitmap of all their indexes. An empty payload is a single empty chunk.
func Split(payload []byte, chunkSize int) ([][]byte, *bitset.BitSet, error) {
	if chunkSize <= 0 {
		return nil, nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	n := (len(payload) + chunkSize - 1) / chunkSize
	if n == 0 {
		n = 1
	}
	if n > MaxChunks {
		return nil, nil, fmt.Errorf("payload of %d bytes needs %d chunks, at most %d allowed", len(payload), n, MaxChunks)
	}

	chunks := make([][]byte, 0, n)
	all := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[start:end])
		all.Set(uint(i))
	}

	return chunks, all, nil
}

// indexes returns the set bits of the wire bitmap below total.
func indexes(words []uint64, total int) []uint16 {
	b := bitset.From(words)
	var set []uint16
	for i, ok := b.NextSet(0); ok && int(i) < total; i, ok = b.NextSet(i + 1) {
		set = append(set, uint16(i))
	}
	return set
}
