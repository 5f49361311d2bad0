package ledgerview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/attestnet/attest/ledger"
	"github.com/attestnet/attest/model/quorum"
)

// View is an immutable snapshot of the ledger state validators decide against. A View
// is never modified once published; writers publish a modified copy.
type View struct {
	Authorities *quorum.AuthoritySet
	Finalized   map[quorum.Stream]uint64
	// Snapshot is the latest accepted order-book snapshot, nil before the first one.
	Snapshot *quorum.Snapshot
}

// Epoch returns the id of the active authority set.
func (v *View) Epoch() uint64 {
	return v.Authorities.Epoch()
}

// LastFinalized returns the last finalized sequence of the stream.
func (v *View) LastFinalized(stream quorum.Stream) uint64 {
	return v.Finalized[stream]
}

// WorkerNonce returns the worker nonce covered by the latest snapshot.
func (v *View) WorkerNonce() uint64 {
	if v.Snapshot == nil {
		return 0
	}
	return v.Snapshot.WorkerNonce
}

// SnapshotID returns the id of the latest snapshot.
func (v *View) SnapshotID() uint64 {
	if v.Snapshot == nil {
		return 0
	}
	return v.Snapshot.SnapshotID
}

func (v *View) copy() *View {
	cp := &View{
		Authorities: v.Authorities,
		Finalized:   make(map[quorum.Stream]uint64, len(v.Finalized)),
		Snapshot:    v.Snapshot,
	}
	for stream, seq := range v.Finalized {
		cp.Finalized[stream] = seq
	}
	return cp
}

// LedgerView holds the current View. Readers never block and never observe a partially
// applied update; writers are serialized.
type LedgerView struct {
	log     zerolog.Logger
	mu      sync.Mutex
	current *atomic.Pointer[View]
}

// New creates a ledger view starting from the given authority set with nothing finalized.
func New(log zerolog.Logger, authorities *quorum.AuthoritySet) *LedgerView {
	return &LedgerView{
		log: log.With().Str("component", "ledger_view").Logger(),
		current: atomic.NewPointer(&View{
			Authorities: authorities,
			Finalized:   make(map[quorum.Stream]uint64),
		}),
	}
}

// Load returns the current view. The returned view must not be modified.
func (l *LedgerView) Load() *View {
	return l.current.Load()
}

// Update applies the given function to a copy of the current view and publishes the result.
func (l *LedgerView) Update(apply func(next *View)) *View {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.current.Load().copy()
	apply(next)
	l.current.Store(next)
	return next
}

// Advance records a finalized sequence. Finalized sequences never decrease: an older
// sequence is ignored. Returns true if the view changed.
func (l *LedgerView) Advance(stream quorum.Stream, seq uint64) bool {
	if l.Load().LastFinalized(stream) >= seq {
		return false
	}
	advanced := false
	l.Update(func(next *View) {
		if next.Finalized[stream] < seq {
			next.Finalized[stream] = seq
			advanced = true
		}
	})
	if advanced {
		l.log.Debug().Str("stream", stream.String()).Uint64("sequence", seq).Msg("finalized sequence advanced")
	}
	return advanced
}

// SetSnapshot records the latest accepted snapshot and advances the snapshot stream to
// its sequence.
func (l *LedgerView) SetSnapshot(snapshot *quorum.Snapshot) {
	l.Update(func(next *View) {
		if next.Snapshot != nil && next.Snapshot.StateChangeID > snapshot.StateChangeID {
			return
		}
		next.Snapshot = snapshot
		if next.Finalized[quorum.SnapshotStream] < snapshot.StateChangeID {
			next.Finalized[quorum.SnapshotStream] = snapshot.StateChangeID
		}
	})
}

// Rotate replaces the authority set. The new set must have a higher epoch.
func (l *LedgerView) Rotate(authorities *quorum.AuthoritySet) error {
	var err error
	l.Update(func(next *View) {
		if authorities.Epoch() <= next.Authorities.Epoch() {
			err = fmt.Errorf("cannot rotate from epoch %d to %d", next.Authorities.Epoch(), authorities.Epoch())
			return
		}
		next.Authorities = authorities
	})
	if err == nil {
		l.log.Info().Uint64("epoch", authorities.Epoch()).Uint("size", authorities.Size()).Msg("authority set rotated")
	}
	return err
}

// Refresh re-reads the authority set, the finalized sequences of every tracked stream and
// the latest snapshot from the ledger. Finalized sequences only move forward.
// No errors are expected during normal operations.
func (l *LedgerView) Refresh(ctx context.Context, reader ledger.Reader, streams ...quorum.Stream) error {
	authorities, err := reader.CurrentAuthoritySet(ctx)
	if err != nil {
		return fmt.Errorf("could not read authority set: %w", err)
	}

	tracked := map[quorum.Stream]struct{}{quorum.SnapshotStream: {}}
	for _, stream := range streams {
		tracked[stream] = struct{}{}
	}
	for stream := range l.Load().Finalized {
		tracked[stream] = struct{}{}
	}

	finalized := make(map[quorum.Stream]uint64, len(tracked))
	for stream := range tracked {
		seq, err := reader.LastFinalizedSequence(ctx, stream)
		if err != nil {
			return fmt.Errorf("could not read last finalized sequence of stream %s: %w", stream, err)
		}
		finalized[stream] = seq
	}

	snapshot, err := reader.LatestSnapshot(ctx)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("could not read latest snapshot: %w", err)
	}

	view := l.Update(func(next *View) {
		if authorities.Epoch() >= next.Authorities.Epoch() {
			next.Authorities = authorities
		}
		for stream, seq := range finalized {
			if next.Finalized[stream] < seq {
				next.Finalized[stream] = seq
			}
		}
		if snapshot != nil && (next.Snapshot == nil || next.Snapshot.StateChangeID <= snapshot.StateChangeID) {
			next.Snapshot = snapshot
		}
	})

	l.log.Debug().
		Uint64("epoch", view.Epoch()).
		Uint64("snapshot_sequence", view.LastFinalized(quorum.SnapshotStream)).
		Msg("ledger view refreshed")
	return nil
}
