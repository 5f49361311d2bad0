package ledger

import (
	"errors"
	"fmt"

	"github.com/attestnet/attest/model/quorum"
)

// ErrNotFound is returned when the requested ledger entry does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientSignatures is returned when a submitted artifact is not endorsed by a
// threshold of the current authority set.
var ErrInsufficientSignatures = errors.New("insufficient signatures")

// ErrOutOfOrder is returned when a submitted artifact is not the next one of its stream.
type ErrOutOfOrder struct {
	Stream   quorum.Stream
	Expected uint64
	Got      uint64
}

func (e ErrOutOfOrder) Error() string {
	return fmt.Sprintf("out of order submission for stream %s: expected sequence %d, got %d", e.Stream, e.Expected, e.Got)
}

// NewOutOfOrderErr returns a new ErrOutOfOrder
func NewOutOfOrderErr(stream quorum.Stream, expected uint64, got uint64) ErrOutOfOrder {
	return ErrOutOfOrder{Stream: stream, Expected: expected, Got: got}
}

// IsErrOutOfOrder returns true if an error is ErrOutOfOrder
func IsErrOutOfOrder(err error) bool {
	var e ErrOutOfOrder
	return errors.As(err, &e)
}
