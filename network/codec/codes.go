package codec

import (
	"fmt"

	"github.com/attestnet/attest/model/messages"
)

// MessageCode is the code byte that precedes the payload of every encoded message.
type MessageCode uint8

func (m MessageCode) Uint8() uint8 {
	return uint8(m)
}

const (
	CodeMin MessageCode = iota + 1

	// order-book checkpoints
	CodeCheckpointVote
	CodeWantNonce

	// chunked artifact exchange
	CodeWant
	CodeHave
	CodeRequestChunk
	CodeChunk

	// bridge messages
	CodeBridgeVote

	CodeMax
)

// MessageCodeFromInterface returns the correct Code based on the underlying type of message v.
func MessageCodeFromInterface(v interface{}) (MessageCode, string, error) {
	switch v.(type) {
	// order-book checkpoints
	case *messages.CheckpointVote:
		return CodeCheckpointVote, "messages.CheckpointVote", nil
	case *messages.WantNonce:
		return CodeWantNonce, "messages.WantNonce", nil

	// chunked artifact exchange
	case *messages.Want:
		return CodeWant, "messages.Want", nil
	case *messages.Have:
		return CodeHave, "messages.Have", nil
	case *messages.RequestChunk:
		return CodeRequestChunk, "messages.RequestChunk", nil
	case *messages.Chunk:
		return CodeChunk, "messages.Chunk", nil

	// bridge messages
	case *messages.BridgeVote:
		return CodeBridgeVote, "messages.BridgeVote", nil

	default:
		return 0, "", fmt.Errorf("invalid encode type (%T)", v)
	}
}

// InterfaceFromMessageCode returns an interface with the correct underlying go type
// of the message code represents.
// Expected error returns during normal operations:
//   - ErrUnknownMsgCode if message code does not match any of the configured message codes above.
func InterfaceFromMessageCode(code MessageCode) (interface{}, string, error) {
	switch code {
	// order-book checkpoints
	case CodeCheckpointVote:
		return &messages.CheckpointVote{}, "messages.CheckpointVote", nil
	case CodeWantNonce:
		return &messages.WantNonce{}, "messages.WantNonce", nil

	// chunked artifact exchange
	case CodeWant:
		return &messages.Want{}, "messages.Want", nil
	case CodeHave:
		return &messages.Have{}, "messages.Have", nil
	case CodeRequestChunk:
		return &messages.RequestChunk{}, "messages.RequestChunk", nil
	case CodeChunk:
		return &messages.Chunk{}, "messages.Chunk", nil

	// bridge messages
	case CodeBridgeVote:
		return &messages.BridgeVote{}, "messages.BridgeVote", nil

	default:
		return nil, "", NewUnknownMsgCodeErr(code)
	}
}
