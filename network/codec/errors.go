package codec

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is returned when attempting to decoded a message with an invalid encoding.
var ErrInvalidEncoding = errors.New("invalid encoding")

// ErrUnsupportedVersion indicates that the envelope version byte (first byte of the message) is not supported.
type ErrUnsupportedVersion struct {
	version uint8
}

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported envelope version: %d", e.version)
}

// NewUnsupportedVersionErr returns a new ErrUnsupportedVersion
func NewUnsupportedVersionErr(version uint8) ErrUnsupportedVersion {
	return ErrUnsupportedVersion{version}
}

// IsErrUnsupportedVersion returns true if an error is ErrUnsupportedVersion
func IsErrUnsupportedVersion(err error) bool {
	var e ErrUnsupportedVersion
	return errors.As(err, &e)
}

// ErrUnknownMsgCode indicates that the message code byte (second byte of the message) is unknown.
type ErrUnknownMsgCode struct {
	code MessageCode
}

func (e ErrUnknownMsgCode) Error() string {
	return fmt.Sprintf("failed to decode message could not get interface from unknown message code: %d", e.code)
}

// NewUnknownMsgCodeErr returns a new ErrUnknownMsgCode
func NewUnknownMsgCodeErr(code MessageCode) ErrUnknownMsgCode {
	return ErrUnknownMsgCode{code}
}

// IsErrUnknownMsgCode returns true if an error is ErrUnknownMsgCode
func IsErrUnknownMsgCode(err error) bool {
	var e ErrUnknownMsgCode
	return errors.As(err, &e)
}

// ErrMsgUnmarshal indicates that the message could not be unmarshalled.
type ErrMsgUnmarshal struct {
	code    MessageCode
	msgType string
	err     string
}

func (e ErrMsgUnmarshal) Error() string {
	return fmt.Sprintf("failed to unmarshal message payload with message type %s and message code %d: %s", e.msgType, e.code, e.err)
}

// NewMsgUnmarshalErr returns a new ErrMsgUnmarshal
func NewMsgUnmarshalErr(code MessageCode, msgType string, err error) ErrMsgUnmarshal {
	return ErrMsgUnmarshal{code: code, msgType: msgType, err: err.Error()}
}

// IsErrMsgUnmarshal returns true if an error is ErrMsgUnmarshal
func IsErrMsgUnmarshal(err error) bool {
	var e ErrMsgUnmarshal
	return errors.As(err, &e)
}

// IsDecodeError returns true if the error is any of the expected errors of decoding
// untrusted bytes.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrInvalidEncoding) ||
		IsErrUnsupportedVersion(err) ||
		IsErrUnknownMsgCode(err) ||
		IsErrMsgUnmarshal(err)
}
