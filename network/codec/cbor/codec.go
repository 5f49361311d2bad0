package cbor

import (
	"fmt"

	encoding "github.com/attestnet/attest/model/encoding/cbor"
	"github.com/attestnet/attest/network/codec"
)

// EnvelopeVersion is the version byte prepended to every encoded message.
const EnvelopeVersion uint8 = 1

// Codec encodes gossip messages as an envelope of one version byte, one message code
// byte and the deterministic CBOR encoding of the message.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Encode encodes the given message.
// No errors are expected during normal operations for the known message types.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	code, what, err := codec.MessageCodeFromInterface(v)
	if err != nil {
		return nil, fmt.Errorf("could not determine envelope code: %w", err)
	}

	payload, err := encoding.EncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode cbor payload of %s: %w", what, err)
	}

	data := make([]byte, 0, len(payload)+2)
	data = append(data, EnvelopeVersion, code.Uint8())
	data = append(data, payload...)
	return data, nil
}

// Decode decodes untrusted bytes into a message.
// Expected error returns during normal operations:
//   - codec.ErrInvalidEncoding if the envelope is too short.
//   - codec.ErrUnsupportedVersion if the envelope version is unknown.
//   - codec.ErrUnknownMsgCode if the message code is unknown.
//   - codec.ErrMsgUnmarshal if the payload does not decode into the message type.
func (c *Codec) Decode(data []byte) (interface{}, error) {
	if len(data) < 2 {
		return nil, codec.ErrInvalidEncoding
	}
	if data[0] != EnvelopeVersion {
		return nil, codec.NewUnsupportedVersionErr(data[0])
	}

	code := codec.MessageCode(data[1])
	v, what, err := codec.InterfaceFromMessageCode(code)
	if err != nil {
		return nil, err
	}

	err = encoding.DecMode.Unmarshal(data[2:], v)
	if err != nil {
		return nil, codec.NewMsgUnmarshalErr(code, what, err)
	}

	return v, nil
}
