package quorum

import (
	"github.com/attestnet/attest/model/encoding"
)

// BridgeMessage is a cross-chain message. Messages are sequenced per origin network by
// Nonce; the deterministic encoding is the payload of bridge partials.
type BridgeMessage struct {
	BlockNo         uint64
	Nonce           uint64
	Data            []byte
	Network         Network
	IsKeyChange     bool
	ValidatorSetID  uint64
	ValidatorSetLen uint64
}

// Stream returns the stream the message is sequenced in.
func (m *BridgeMessage) Stream() Stream {
	return BridgeStream(m.Network)
}

// Encode returns the deterministic encoding of the message.
func (m *BridgeMessage) Encode() []byte {
	return encoding.DefaultEncoder.MustEncode(m)
}

// DecodeBridgeMessage decodes a bridge message payload.
func DecodeBridgeMessage(payload []byte) (*BridgeMessage, error) {
	var m BridgeMessage
	err := encoding.DefaultEncoder.Decode(payload, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
