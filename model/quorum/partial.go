package quorum

import (
	"fmt"
)

// Partial is a single validator's endorsement of a payload at a given sequence of a
// stream. It is what the aggregator consumes.
type Partial struct {
	Stream      Stream
	Sequence    uint64
	Epoch       uint64
	Payload     []byte
	SignerIndex uint32
	Signature   []byte
}

// PayloadHash returns the Keccak-256 digest of the endorsed payload.
func (p *Partial) PayloadHash() Hash {
	return HashPayload(p.Payload)
}

func (p *Partial) String() string {
	return fmt.Sprintf("%s seq=%d epoch=%d signer=%d", p.Stream, p.Sequence, p.Epoch, p.SignerIndex)
}
