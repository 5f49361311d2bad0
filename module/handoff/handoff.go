// Package handoff carries the sequence left unfinalized by an outgoing authority set
// over to the incoming one.
//
// When the set rotates while artifacts at the next sequence are still collecting
// signatures, those signatures become useless: they were made under the old epoch.
// The handoff records that sequence as pending so that peers serve it on request, and
// re-validates the payload retrieved from peers against the local copy before the new
// set endorses it again.
package handoff

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/attestnet/attest/model/quorum"
)

var (
	// ErrNotPending is returned when re-validating a sequence that is not pending.
	ErrNotPending = errors.New("sequence is not pending")
	// ErrNoLocalCopy is returned when no local artifact exists for the pending sequence.
	ErrNoLocalCopy = errors.New("no local copy of the pending artifact")
	// ErrPayloadMismatch is returned when the retrieved payload matches no local copy.
	ErrPayloadMismatch = errors.New("retrieved payload does not match the local copy")
)

// LocalCopy gives access to the artifacts dropped by the last rotation.
type LocalCopy interface {
	Retired(seq uint64) []*quorum.Artifact
}

// Handoff holds at most one pending sequence. Zero means nothing is pending, since
// sequences start at one.
type Handoff struct {
	log    zerolog.Logger
	marker *atomic.Uint64
}

func New(log zerolog.Logger) *Handoff {
	return &Handoff{
		log:    log.With().Str("component", "handoff").Logger(),
		marker: atomic.NewUint64(0),
	}
}

// Rotate records last+1 as pending if the outgoing set left unfinalized artifacts
// there, and clears any previous marker otherwise. Returns the pending sequence.
func (h *Handoff) Rotate(lastFinalized uint64, hadUnfinalized func(seq uint64) bool) (uint64, bool) {
	next := lastFinalized + 1
	if !hadUnfinalized(next) {
		h.marker.Store(0)
		h.log.Debug().Uint64("last_finalized", lastFinalized).Msg("nothing to hand off")
		return 0, false
	}

	h.marker.Store(next)
	h.log.Info().Uint64("sequence", next).Msg("handing off unfinalized sequence")
	return next, true
}

// Pending returns the pending sequence.
func (h *Handoff) Pending() (uint64, bool) {
	seq := h.marker.Load()
	return seq, seq != 0
}

// OnFinalized clears the marker once a sequence at or above it finalized.
func (h *Handoff) OnFinalized(seq uint64) {
	for {
		marker := h.marker.Load()
		if marker == 0 || seq < marker {
			return
		}
		if h.marker.CompareAndSwap(marker, 0) {
			h.log.Info().Uint64("sequence", marker).Uint64("finalized", seq).Msg("handoff completed")
			return
		}
	}
}

// Revalidate checks a payload retrieved from peers for the pending sequence against the
// locally held copies and returns the matching one.
// Expected error returns during normal operations:
//   - ErrNotPending if seq is not the pending sequence
//   - ErrNoLocalCopy if nothing was held locally for it
//   - ErrPayloadMismatch if the payload hash matches no local copy
func (h *Handoff) Revalidate(seq uint64, retrieved []byte, local LocalCopy) (*quorum.Artifact, error) {
	pending, ok := h.Pending()
	if !ok || pending != seq {
		return nil, fmt.Errorf("sequence %d: %w", seq, ErrNotPending)
	}

	copies := local.Retired(seq)
	if len(copies) == 0 {
		return nil, fmt.Errorf("sequence %d: %w", seq, ErrNoLocalCopy)
	}

	hash := quorum.HashPayload(retrieved)
	for _, artifact := range copies {
		if artifact.PayloadHash == hash {
			return artifact, nil
		}
	}

	h.log.Warn().
		Uint64("sequence", seq).
		Str("retrieved_hash", hash.String()).
		Int("local_copies", len(copies)).
		Msg("retrieved payload does not match any local copy")
	return nil, fmt.Errorf("sequence %d, hash %s: %w", seq, hash, ErrPayloadMismatch)
}
