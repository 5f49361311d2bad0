package quorum

import (
	"sort"
)

// Artifact is an agreed object under construction or finalized: an order-book
// checkpoint or a bridge message together with the endorsements collected so far.
// Artifacts are keyed by (sequence, payload hash) within their stream; the signature
// set only ever grows.
type Artifact struct {
	Stream      Stream
	Sequence    uint64
	Epoch       uint64
	Payload     []byte
	PayloadHash Hash
	// Signatures maps validator index to its partial signature.
	Signatures map[uint32][]byte
	// AggregateSignature is set once the artifact is finalized.
	AggregateSignature []byte
}

// NewArtifact creates a working artifact seeded with the given partial.
func NewArtifact(p *Partial) *Artifact {
	return &Artifact{
		Stream:      p.Stream,
		Sequence:    p.Sequence,
		Epoch:       p.Epoch,
		Payload:     append([]byte(nil), p.Payload...),
		PayloadHash: p.PayloadHash(),
		Signatures: map[uint32][]byte{
			p.SignerIndex: append([]byte(nil), p.Signature...),
		},
	}
}

// Signers returns the set of validator indexes that endorsed the artifact.
func (a *Artifact) Signers() SignerSet {
	s := NewSignerSet()
	for index := range a.Signatures {
		s.Add(uint(index))
	}
	return s
}

// SignerIndexes returns the endorsing validator indexes in ascending order.
func (a *Artifact) SignerIndexes() []uint32 {
	indexes := make([]uint32, 0, len(a.Signatures))
	for index := range a.Signatures {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })
	return indexes
}

// Finalized reports whether an aggregate signature has been attached.
func (a *Artifact) Finalized() bool {
	return len(a.AggregateSignature) > 0
}

// Copy returns a deep copy of the artifact.
func (a *Artifact) Copy() *Artifact {
	cp := *a
	cp.Payload = append([]byte(nil), a.Payload...)
	cp.AggregateSignature = append([]byte(nil), a.AggregateSignature...)
	cp.Signatures = make(map[uint32][]byte, len(a.Signatures))
	for index, sig := range a.Signatures {
		cp.Signatures[index] = append([]byte(nil), sig...)
	}
	return &cp
}
