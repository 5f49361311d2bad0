package messages

import (
	"github.com/attestnet/attest/model/quorum"
)

// BridgeVote carries endorsements of a cross-chain message, either a single partial
// or the full set once aggregated.
type BridgeVote struct {
	Message    quorum.BridgeMessage
	Signatures map[uint32][]byte
	Aggregate  []byte
}

// NewBridgeVote creates a partial vote over the message.
func NewBridgeVote(msg *quorum.BridgeMessage, index uint32, sig []byte) *BridgeVote {
	return &BridgeVote{
		Message:    *msg,
		Signatures: map[uint32][]byte{index: sig},
	}
}

// BridgeVoteFromArtifact creates a vote carrying all endorsements of a bridge artifact.
func BridgeVoteFromArtifact(msg *quorum.BridgeMessage, a *quorum.Artifact) *BridgeVote {
	return &BridgeVote{
		Message:    *msg,
		Signatures: a.Signatures,
		Aggregate:  a.AggregateSignature,
	}
}

// Final reports whether the vote carries an aggregate signature.
func (v *BridgeVote) Final() bool {
	return len(v.Aggregate) > 0
}

// Partials splits the vote into one partial per carried signature, in signer order.
func (v *BridgeVote) Partials() []*quorum.Partial {
	return partials(v.Message.Stream(), v.Message.Nonce, v.Message.ValidatorSetID, v.Message.Encode(), v.Signatures)
}
