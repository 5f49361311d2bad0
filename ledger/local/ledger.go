// Package local implements a ledger on a local badger database. It is the development
// counterpart of the chain the validators submit to: it enforces the same ordering and
// endorsement rules, so a network of nodes can run without a real chain.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/ledger"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
	"github.com/attestnet/attest/module/signature"
	"github.com/attestnet/attest/storage"
	badgerstorage "github.com/attestnet/attest/storage/badger"
	"github.com/attestnet/attest/storage/badger/operation"
)

// Ledger persists finalized artifacts, finalized sequences and authority sets.
type Ledger struct {
	log      zerolog.Logger
	db       *badger.DB
	sets     *badgerstorage.AuthoritySets
	verifier signature.Verifier

	// submissions are serialized so that the ordering check and the write are atomic
	mu sync.Mutex
}

var _ ledger.Ledger = (*Ledger)(nil)

func New(log zerolog.Logger, collector module.CacheMetrics, db *badger.DB, verifier signature.Verifier) *Ledger {
	return &Ledger{
		log:      log.With().Str("component", "local_ledger").Logger(),
		db:       db,
		sets:     badgerstorage.NewAuthoritySets(collector, db),
		verifier: verifier,
	}
}

// Bootstrap stores the genesis authority set. It is a no-op if a set is already active.
func (l *Ledger) Bootstrap(set *quorum.AuthoritySet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.sets.Current()
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not check current authority set: %w", err)
	}
	err = l.sets.Activate(set)
	if err != nil {
		return fmt.Errorf("could not activate genesis authority set: %w", err)
	}
	return nil
}

// Rotate activates a new authority set with a higher epoch.
func (l *Ledger) Rotate(set *quorum.AuthoritySet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.sets.Activate(set)
	if err != nil {
		return err
	}

	l.log.Info().Uint64("epoch", set.Epoch()).Uint("size", set.Size()).Msg("authority set rotated")
	return nil
}

func (l *Ledger) CurrentAuthoritySet(_ context.Context) (*quorum.AuthoritySet, error) {
	set, err := l.sets.Current()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("ledger is not bootstrapped: %w", ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve current authority set: %w", err)
	}
	return set, nil
}

func (l *Ledger) LastFinalizedSequence(_ context.Context, stream quorum.Stream) (uint64, error) {
	var seq uint64
	err := l.db.View(operation.RetrieveFinalizedSequence(stream, &seq))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve finalized sequence of %s: %w", stream, err)
	}
	return seq, nil
}

func (l *Ledger) LatestSnapshot(_ context.Context) (*quorum.Snapshot, error) {
	var snapshot quorum.Snapshot
	err := l.db.View(operation.RetrieveLatestSnapshot(&snapshot))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve latest snapshot: %w", err)
	}
	return &snapshot, nil
}

// SubmitFinalized accepts the next artifact of its stream if it is endorsed by a
// threshold of the current authority set. Re-submitting an accepted artifact is a
// no-op.
func (l *Ledger) SubmitFinalized(ctx context.Context, artifact *quorum.Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, err := l.LastFinalizedSequence(ctx, artifact.Stream)
	if err != nil {
		return err
	}

	if artifact.Sequence <= last {
		var accepted quorum.Artifact
		err := l.db.View(operation.RetrieveArtifact(artifact.Stream, artifact.Sequence, &accepted))
		if err == nil && accepted.PayloadHash == artifact.PayloadHash {
			return nil
		}
		return ledger.NewOutOfOrderErr(artifact.Stream, last+1, artifact.Sequence)
	}
	if artifact.Sequence != last+1 {
		return ledger.NewOutOfOrderErr(artifact.Stream, last+1, artifact.Sequence)
	}

	set, err := l.CurrentAuthoritySet(ctx)
	if err != nil {
		return err
	}
	err = signature.VerifyArtifact(l.verifier, set, artifact)
	if err != nil {
		return fmt.Errorf("%w: %s", ledger.ErrInsufficientSignatures, err.Error())
	}

	var snapshot *quorum.Snapshot
	if artifact.Stream == quorum.SnapshotStream {
		snapshot, err = quorum.DecodeSnapshot(artifact.Payload)
		if err != nil {
			return fmt.Errorf("could not decode snapshot payload: %w", err)
		}
	}

	err = l.db.Update(func(tx *badger.Txn) error {
		err := operation.InsertArtifact(artifact)(tx)
		if err != nil {
			return fmt.Errorf("could not insert artifact: %w", err)
		}
		err = operation.UpsertFinalizedSequence(artifact.Stream, artifact.Sequence)(tx)
		if err != nil {
			return fmt.Errorf("could not update finalized sequence: %w", err)
		}
		if snapshot == nil {
			return nil
		}
		err = operation.UpsertPayload(artifact.Sequence, artifact.Payload)(tx)
		if err != nil {
			return fmt.Errorf("could not store payload: %w", err)
		}
		return operation.UpsertLatestSnapshot(snapshot)(tx)
	})
	if err != nil {
		return err
	}

	l.log.Info().
		Str("stream", artifact.Stream.String()).
		Uint64("sequence", artifact.Sequence).
		Str("payload_hash", artifact.PayloadHash.String()).
		Msg("artifact accepted")
	return nil
}

// Artifact returns the accepted artifact at the sequence of the stream.
// Expected error returns during normal operations:
//   - ledger.ErrNotFound if no artifact was accepted there
func (l *Ledger) Artifact(stream quorum.Stream, seq uint64) (*quorum.Artifact, error) {
	var artifact quorum.Artifact
	err := l.db.View(operation.RetrieveArtifact(stream, seq, &artifact))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve artifact: %w", err)
	}
	return &artifact, nil
}

// Payload returns the snapshot payload accepted at the sequence.
// Expected error returns during normal operations:
//   - ledger.ErrNotFound if no snapshot was accepted there
func (l *Ledger) Payload(seq uint64) ([]byte, error) {
	var payload []byte
	err := l.db.View(operation.RetrievePayload(seq, &payload))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve payload: %w", err)
	}
	return payload, nil
}
