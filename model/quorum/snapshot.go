package quorum

import (
	"github.com/attestnet/attest/model/encoding"
)

// Snapshot is the order-book state checkpoint agreed upon by the validators. Its
// deterministic encoding is the payload of snapshot partials; the sequence of a
// snapshot is its StateChangeID.
type Snapshot struct {
	SnapshotID         uint64
	StateChangeID      uint64
	LastProcessedBlock uint32
	WorkerNonce        uint64
	StateRoot          Hash
	StateVersion       uint16
}

// Encode returns the deterministic encoding of the snapshot.
func (s *Snapshot) Encode() []byte {
	return encoding.DefaultEncoder.MustEncode(s)
}

// DecodeSnapshot decodes a snapshot payload.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	var s Snapshot
	err := encoding.DefaultEncoder.Decode(payload, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
