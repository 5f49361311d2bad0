package signature

import (
	"errors"
)

var (
	ErrInvalidFormat      = errors.New("invalid signature format")
	ErrInsufficientShares = errors.New("insufficient threshold signature shares")

	ErrInvalidInputs = errors.New("invalid inputs")

	// ErrStale is returned for partials at or below the finalized sequence that do not
	// endorse the finalized payload.
	ErrStale = errors.New("partial is at or below the finalized sequence")
	// ErrEpochMismatch is returned for partials signed under another authority set.
	ErrEpochMismatch = errors.New("partial epoch does not match the active authority set")
	// ErrUnknownSigner is returned for signer indexes outside the authority set.
	ErrUnknownSigner = errors.New("signer index is not part of the authority set")
	// ErrInvalidSignature is returned when a partial signature does not verify.
	ErrInvalidSignature = errors.New("invalid partial signature")
)

// IsRejection returns true if the error is one of the expected reasons to reject a
// partial. Other errors returned by the aggregator are exceptions.
func IsRejection(err error) bool {
	return errors.Is(err, ErrStale) ||
		errors.Is(err, ErrEpochMismatch) ||
		errors.Is(err, ErrUnknownSigner) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrInvalidInputs)
}
