package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/module/signature"
)

// ProposeSnapshot endorses a snapshot produced by the local worker and broadcasts the
// endorsement. The snapshot is agreed at its StateChangeID.
// Expected error returns during normal operations:
//   - engine.OutdatedInputError if the sequence is already finalized
//   - ErrNotAuthority if this node does not sign under the active authority set
func (e *Engine) ProposeSnapshot(ctx context.Context, snapshot *quorum.Snapshot) error {
	seq := snapshot.StateChangeID
	last := e.view.Load().LastFinalized(quorum.SnapshotStream)
	if seq <= last {
		return engine.NewOutdatedInputErrorf("snapshot %d is not above the finalized sequence %d", seq, last)
	}
	return e.endorse(ctx, seq, snapshot.Encode(), false)
}

// endorse signs the payload at the sequence under the active authority set, merges the
// local partial and broadcasts it. A reset endorsement is announced once more as a
// reset vote for peers still on the previous set.
func (e *Engine) endorse(ctx context.Context, seq uint64, payload []byte, reset bool) error {
	set := e.view.Load().Authorities
	index, ok := set.IndexOf(e.signer.PublicKey())
	if !ok {
		return fmt.Errorf("epoch %d: %w", set.Epoch(), ErrNotAuthority)
	}

	p, err := signature.SignPartial(e.signer, uint32(index), quorum.SnapshotStream, seq, set.Epoch(), payload)
	if err != nil {
		return fmt.Errorf("could not sign snapshot %d: %w", seq, err)
	}

	// peers may request the payload as soon as they see the vote
	err = e.store.Put(seq, payload)
	if err != nil {
		return fmt.Errorf("could not store snapshot payload: %w", err)
	}

	_, err = e.aggregator.ProposeOrMerge(p)
	if err != nil {
		if errors.Is(err, signature.ErrStale) {
			return engine.NewOutdatedInputErrorf("local endorsement of %d is stale: %w", seq, err)
		}
		return fmt.Errorf("could not merge local endorsement: %w", err)
	}

	vote := messages.NewCheckpointVote(p)
	err = e.conduit.Publish(ctx, vote)
	if err != nil && !engine.IsOutdatedInputError(err) {
		return fmt.Errorf("could not publish vote: %w", err)
	}
	e.metrics.MessageSent(metrics.EngineCheckpoint, metrics.MessageCheckpointVote)

	if reset {
		announcement := *vote
		announcement.Reset = true
		err = e.conduit.Announce(ctx, &announcement)
		if err != nil {
			return fmt.Errorf("could not announce reset vote: %w", err)
		}
	}

	e.log.Debug().
		Uint64("sequence", seq).
		Uint64("epoch", set.Epoch()).
		Uint("signer", index).
		Bool("reset", reset).
		Msg("snapshot endorsed")
	return nil
}

func (e *Engine) onVote(ctx context.Context, origin quorum.PeerID, vote *messages.CheckpointVote) error {
	if vote.Reset {
		e.onReset(ctx, vote)
	}
	if vote.Final() {
		return e.onFinalVote(origin, vote)
	}

	invalid := 0
	for _, p := range vote.Partials() {
		outcome, err := e.aggregator.ProposeOrMerge(p)
		if err != nil {
			if !signature.IsRejection(err) {
				return fmt.Errorf("could not merge partial %s: %w", p, err)
			}
			if errors.Is(err, signature.ErrInvalidSignature) || errors.Is(err, signature.ErrUnknownSigner) {
				invalid++
			}
			continue
		}
		e.log.Trace().
			Str("origin", origin.String()).
			Str("partial", p.String()).
			Str("outcome", outcome.Kind.String()).
			Msg("partial processed")
	}

	if invalid > 0 {
		return engine.NewInvalidInputErrorf("vote for %d carries %d invalid signatures", vote.Sequence, invalid)
	}
	return nil
}

// onReset catches up with a rotation announced by a peer before the ledger view was
// refreshed.
func (e *Engine) onReset(ctx context.Context, vote *messages.CheckpointVote) {
	if vote.Epoch <= e.aggregator.Epoch() {
		return
	}
	e.log.Info().Uint64("epoch", vote.Epoch).Msg("reset vote announces a new authority set")

	err := e.view.Refresh(ctx, e.reader)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not refresh ledger view")
		return
	}
	e.sync()
}

// onFinalVote accepts an aggregate finalized by a peer.
func (e *Engine) onFinalVote(origin quorum.PeerID, vote *messages.CheckpointVote) error {
	if vote.Sequence <= e.aggregator.Finalized() {
		return nil
	}

	artifact := &quorum.Artifact{
		Stream:             quorum.SnapshotStream,
		Sequence:           vote.Sequence,
		Epoch:              vote.Epoch,
		Payload:            vote.Payload,
		PayloadHash:        quorum.HashPayload(vote.Payload),
		Signatures:         vote.Signatures,
		AggregateSignature: vote.Aggregate,
	}
	err := signature.VerifyArtifact(e.verifier, e.view.Load().Authorities, artifact)
	if err != nil {
		return engine.NewInvalidInputErrorf("invalid final vote for %d from %s: %w", vote.Sequence, origin, err)
	}

	// queued before advancing so that artifacts finalized by the advance follow it
	e.enqueueFinalized(artifact)
	_, err = e.aggregator.Advance(artifact.Sequence, artifact.PayloadHash)
	if err != nil {
		return fmt.Errorf("could not advance aggregator to %d: %w", artifact.Sequence, err)
	}
	return nil
}

// onFinalized is the aggregator callback. It runs in finalization order and must not
// block.
func (e *Engine) onFinalized(artifact *quorum.Artifact) {
	e.enqueueFinalized(artifact)
}

func (e *Engine) enqueueFinalized(artifact *quorum.Artifact) {
	e.finalized.Push(artifact)
	e.finalizedNotifier.Notify()
}

func (e *Engine) finalizationLoop() {
	for {
		select {
		case <-e.unit.Quit():
			return
		case <-e.finalizedNotifier.Channel():
		}

		for {
			artifact, ok := e.finalized.Pop()
			if !ok {
				break
			}
			e.processFinalized(e.unit.Ctx(), artifact)
		}
	}
}

// processFinalized broadcasts the aggregate, submits it to the ledger and advances the
// local view once the ledger accepted it.
func (e *Engine) processFinalized(ctx context.Context, artifact *quorum.Artifact) {
	log := e.log.With().Uint64("sequence", artifact.Sequence).Logger()

	err := e.conduit.Publish(ctx, messages.CheckpointVoteFromArtifact(artifact))
	if err != nil && !engine.IsOutdatedInputError(err) {
		log.Warn().Err(err).Msg("could not publish final vote")
	} else if err == nil {
		e.metrics.MessageSent(metrics.EngineCheckpoint, metrics.MessageCheckpointVote)
	}

	err = e.submitter.SubmitFinalized(ctx, artifact)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Msg("could not submit finalized snapshot")
		return
	}

	snapshot, err := quorum.DecodeSnapshot(artifact.Payload)
	if err != nil || snapshot.StateChangeID != artifact.Sequence {
		log.Warn().Err(err).Msg("finalized payload is not a snapshot of its sequence")
		e.view.Advance(quorum.SnapshotStream, artifact.Sequence)
	} else {
		e.view.SetSnapshot(snapshot)
	}
	e.handoff.OnFinalized(artifact.Sequence)
	e.dropAssemblers(artifact.Sequence)

	err = e.store.Put(artifact.Sequence, artifact.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("could not store finalized payload")
	}
}
