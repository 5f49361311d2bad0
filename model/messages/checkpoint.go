package messages

import (
	"github.com/attestnet/attest/model/quorum"
)

// CheckpointVote carries endorsements of an order-book snapshot. A partial vote
// carries a single signature; a final vote carries every collected signature
// together with the aggregate. Reset votes announce the snapshot of the next
// epoch to peers that missed a rotation.
type CheckpointVote struct {
	Sequence   uint64
	Epoch      uint64
	Reset      bool
	Payload    []byte
	Signatures map[uint32][]byte
	Aggregate  []byte
}

// NewCheckpointVote creates a partial vote from a local endorsement.
func NewCheckpointVote(p *quorum.Partial) *CheckpointVote {
	return &CheckpointVote{
		Sequence:   p.Sequence,
		Epoch:      p.Epoch,
		Payload:    p.Payload,
		Signatures: map[uint32][]byte{p.SignerIndex: p.Signature},
	}
}

// CheckpointVoteFromArtifact creates a vote carrying all endorsements of the artifact.
func CheckpointVoteFromArtifact(a *quorum.Artifact) *CheckpointVote {
	return &CheckpointVote{
		Sequence:   a.Sequence,
		Epoch:      a.Epoch,
		Payload:    a.Payload,
		Signatures: a.Signatures,
		Aggregate:  a.AggregateSignature,
	}
}

// Final reports whether the vote carries an aggregate signature.
func (v *CheckpointVote) Final() bool {
	return len(v.Aggregate) > 0
}

// Partials splits the vote into one partial per carried signature, in signer order.
func (v *CheckpointVote) Partials() []*quorum.Partial {
	return partials(quorum.SnapshotStream, v.Sequence, v.Epoch, v.Payload, v.Signatures)
}
