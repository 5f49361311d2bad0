package checkpoint

import (
	"context"
	"fmt"

	"github.com/attestnet/attest/model/quorum"
)

// OnRotation activates a new authority set. Snapshot endorsements of the previous set
// are dropped; if they left the next sequence unfinalized, that sequence is handed
// over: the node serves its copy of the payload and requests the payload from peers to
// endorse it again under the new set.
func (e *Engine) OnRotation(set *quorum.AuthoritySet) error {
	if e.view.Load().Epoch() < set.Epoch() {
		err := e.view.Rotate(set)
		if err != nil {
			return fmt.Errorf("could not rotate ledger view: %w", err)
		}
	}
	return e.rotate(e.unit.Ctx(), set)
}

func (e *Engine) rotate(ctx context.Context, set *quorum.AuthoritySet) error {
	e.rotationMu.Lock()
	defer e.rotationMu.Unlock()

	if set.Epoch() <= e.aggregator.Epoch() {
		return nil
	}

	pending, err := e.aggregator.Rotate(set)
	if err != nil {
		return fmt.Errorf("could not rotate aggregator: %w", err)
	}

	unfinalized := make(map[uint64]struct{}, len(pending))
	for _, seq := range pending {
		unfinalized[seq] = struct{}{}
	}
	seq, ok := e.handoff.Rotate(e.aggregator.Finalized(), func(seq uint64) bool {
		_, ok := unfinalized[seq]
		return ok
	})
	if !ok {
		return nil
	}

	// serve the best endorsed local copy
	var best *quorum.Artifact
	for _, artifact := range e.aggregator.Retired(seq) {
		if best == nil || len(artifact.Signatures) > len(best.Signatures) {
			best = artifact
		}
	}
	if best != nil {
		err = e.store.Put(seq, best.Payload)
		if err != nil {
			return fmt.Errorf("could not store handed over payload: %w", err)
		}
	}

	return e.request(ctx, seq)
}

func (e *Engine) refresh() {
	err := e.view.Refresh(e.unit.Ctx(), e.reader)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not refresh ledger view")
		return
	}
	e.sync()
}

// sync aligns the aggregator, the handoff and the chunk store with the ledger view.
// The finalized watermark moves before a rotation so that the handoff starts from the
// sequence the ledger accepted last.
func (e *Engine) sync() {
	view := e.view.Load()

	last := view.LastFinalized(quorum.SnapshotStream)
	if last > e.aggregator.Finalized() {
		hash := quorum.ZeroHash
		if view.Snapshot != nil && view.Snapshot.StateChangeID == last {
			hash = quorum.HashPayload(view.Snapshot.Encode())
		}
		_, err := e.aggregator.Advance(last, hash)
		if err != nil {
			e.log.Error().Err(err).Uint64("sequence", last).Msg("could not advance aggregator")
		}
		e.handoff.OnFinalized(last)
		e.dropAssemblers(last)
	}

	if view.Snapshot != nil && !e.store.Has(view.Snapshot.StateChangeID) {
		err := e.store.Put(view.Snapshot.StateChangeID, view.Snapshot.Encode())
		if err != nil {
			e.log.Warn().Err(err).Msg("could not store latest snapshot")
		}
	}

	if view.Epoch() > e.aggregator.Epoch() {
		err := e.rotate(e.unit.Ctx(), view.Authorities)
		if err != nil {
			e.log.Error().Err(err).Uint64("epoch", view.Epoch()).Msg("could not rotate authority set")
		}
	}
}
