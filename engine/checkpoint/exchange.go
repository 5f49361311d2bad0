package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/chunks"
	"github.com/attestnet/attest/module/handoff"
	"github.com/attestnet/attest/module/metrics"
)

// onWant announces the chunks of the requested artifact if this node holds it. Nodes
// that do not hold it stay silent; another holder answers.
func (e *Engine) onWant(ctx context.Context, origin quorum.PeerID, want *messages.Want) error {
	have, ok := e.store.Have(want.ArtifactID)
	if !ok {
		return nil
	}

	err := e.conduit.Unicast(ctx, origin, have)
	if err != nil {
		return fmt.Errorf("could not announce artifact %d to %s: %w", want.ArtifactID, origin, err)
	}
	e.metrics.MessageSent(metrics.EngineCheckpoint, metrics.MessageHave)
	return nil
}

func (e *Engine) onRequestChunk(ctx context.Context, origin quorum.PeerID, req *messages.RequestChunk) error {
	for _, chunk := range e.store.Chunks(req.ArtifactID, req.Bitmap) {
		err := e.conduit.Unicast(ctx, origin, chunk)
		if err != nil {
			return fmt.Errorf("could not send chunk %d of artifact %d to %s: %w", chunk.Index, chunk.ArtifactID, origin, err)
		}
		e.metrics.MessageSent(metrics.EngineCheckpoint, metrics.MessageChunk)
	}
	return nil
}

// onHave requests from the holder the chunks this node still misses.
func (e *Engine) onHave(ctx context.Context, origin quorum.PeerID, have *messages.Have) error {
	assembler, ok := e.assembler(have.ArtifactID)
	if !ok {
		return nil
	}

	req, ok, err := assembler.OnHave(origin, have)
	if err != nil {
		return engine.NewInvalidInputErrorf("invalid announcement from %s: %w", origin, err)
	}
	if !ok {
		return nil
	}

	err = e.conduit.Unicast(ctx, origin, req)
	if err != nil {
		return fmt.Errorf("could not request chunks of artifact %d from %s: %w", have.ArtifactID, origin, err)
	}
	e.metrics.MessageSent(metrics.EngineCheckpoint, metrics.MessageRequestChunk)
	return nil
}

// onChunk stores a chunk of an artifact being retrieved. Once the holder delivered all
// of them the payload is re-validated; a holder serving a payload that matches no local
// copy is excluded and the retrieval continues with the other holders.
func (e *Engine) onChunk(ctx context.Context, origin quorum.PeerID, chunk *messages.Chunk) error {
	assembler, ok := e.assembler(chunk.ArtifactID)
	if !ok {
		return nil
	}

	_, err := assembler.OnChunk(origin, chunk)
	if err != nil {
		return engine.NewInvalidInputErrorf("invalid chunk from %s: %w", origin, err)
	}

	payload, complete := assembler.Complete(origin)
	if !complete {
		return nil
	}

	e.log.Info().
		Uint64("artifact", chunk.ArtifactID).
		Str("holder", origin.String()).
		Int("size", len(payload)).
		Msg("artifact retrieved")

	err = e.onRetrieved(ctx, chunk.ArtifactID, payload)
	if errors.Is(err, handoff.ErrPayloadMismatch) {
		assembler.Exclude(origin)
		e.log.Warn().
			Uint64("artifact", chunk.ArtifactID).
			Str("holder", origin.String()).
			Msg("excluding holder of a mismatching payload")
		return err
	}
	e.removeAssembler(chunk.ArtifactID)
	return err
}

// onRetrieved re-validates a payload retrieved for the pending handoff sequence and
// endorses it under the active authority set.
func (e *Engine) onRetrieved(ctx context.Context, seq uint64, payload []byte) error {
	artifact, err := e.handoff.Revalidate(seq, payload, e.aggregator)
	if errors.Is(err, handoff.ErrNotPending) {
		return nil
	}
	if errors.Is(err, handoff.ErrPayloadMismatch) {
		return engine.NewInvalidInputErrorf("retrieved payload for %d: %w", seq, err)
	}
	if err != nil {
		return fmt.Errorf("could not re-validate retrieved payload: %w", err)
	}

	err = e.endorse(ctx, seq, artifact.Payload, true)
	if errors.Is(err, ErrNotAuthority) {
		e.log.Debug().Uint64("sequence", seq).Msg("not part of the new authority set, skipping endorsement")
		return nil
	}
	return err
}

// request starts the retrieval of the artifact and broadcasts the first Want.
func (e *Engine) request(ctx context.Context, id uint64) error {
	e.mu.Lock()
	assembler, ok := e.assemblers[id]
	if !ok {
		assembler = chunks.NewAssembler(id)
		e.assemblers[id] = assembler
	}
	e.mu.Unlock()

	err := e.conduit.Publish(ctx, assembler.Want())
	if err != nil {
		return fmt.Errorf("could not publish want for artifact %d: %w", id, err)
	}
	e.metrics.MessageSent(metrics.EngineCheckpoint, metrics.MessageWant)
	return nil
}

func (e *Engine) assembler(id uint64) (*chunks.Assembler, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	assembler, ok := e.assemblers[id]
	return assembler, ok
}

func (e *Engine) removeAssembler(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.assemblers, id)
}

// dropAssemblers abandons the retrieval of every artifact at or below the sequence.
func (e *Engine) dropAssemblers(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.assemblers {
		if id <= seq {
			delete(e.assemblers, id)
		}
	}
}
