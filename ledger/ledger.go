package ledger

import (
	"context"

	"github.com/attestnet/attest/model/quorum"
)

// Reader provides the parts of the chain state the validators agree against.
type Reader interface {
	// CurrentAuthoritySet returns the active authority set.
	CurrentAuthoritySet(ctx context.Context) (*quorum.AuthoritySet, error)

	// LastFinalizedSequence returns the sequence of the last artifact accepted for the
	// stream, or 0 if none was accepted yet.
	LastFinalizedSequence(ctx context.Context, stream quorum.Stream) (uint64, error)

	// LatestSnapshot returns the last accepted order-book snapshot.
	// Expected error returns during normal operations:
	//   - ErrNotFound if no snapshot was accepted yet.
	LatestSnapshot(ctx context.Context) (*quorum.Snapshot, error)
}

// Submitter accepts finalized artifacts. Submission is idempotent: re-submitting the
// last accepted artifact of a stream is a no-op.
type Submitter interface {
	// SubmitFinalized hands a finalized artifact to the ledger.
	// Expected error returns during normal operations:
	//   - ErrOutOfOrder if the sequence is not the next one of its stream, or it
	//     conflicts with an accepted artifact.
	//   - ErrInsufficientSignatures if the artifact does not carry a threshold of
	//     endorsements of the current authority set.
	SubmitFinalized(ctx context.Context, artifact *quorum.Artifact) error
}

// Ledger is the external chain the validators read from and submit to.
type Ledger interface {
	Reader
	Submitter
}
