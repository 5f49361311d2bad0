package messages

import (
	"sort"

	"github.com/attestnet/attest/model/quorum"
)

func partials(stream quorum.Stream, seq uint64, epoch uint64, payload []byte, sigs map[uint32][]byte) []*quorum.Partial {
	indexes := make([]uint32, 0, len(sigs))
	for index := range sigs {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	out := make([]*quorum.Partial, 0, len(indexes))
	for _, index := range indexes {
		out = append(out, &quorum.Partial{
			Stream:      stream,
			Sequence:    seq,
			Epoch:       epoch,
			Payload:     payload,
			SignerIndex: index,
			Signature:   sigs[index],
		})
	}
	return out
}
