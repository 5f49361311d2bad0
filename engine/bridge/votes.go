package bridge

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

type endorsement struct {
	epoch uint64
	nonce uint64
}

// poll reads the next message of every origin network and endorses it. Native messages
// are relayed only once the foreign chain knows the authority set.
func (e *Engine) poll() {
	ctx := e.unit.Ctx()
	e.pollSource(ctx, e.config.ForeignNetwork, e.connector)

	if e.native == nil {
		return
	}
	initialized, err := e.connector.CheckAuthorityInitialization(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not check authority initialization on the foreign chain")
		return
	}
	if !initialized {
		e.log.Debug().Msg("foreign chain has no authority set yet, native messages are held back")
		return
	}
	e.pollSource(ctx, quorum.NativeNetwork, e.native)
}

func (e *Engine) pollSource(ctx context.Context, network quorum.Network, source MessageSource) {
	stream := quorum.BridgeStream(network)
	view := e.view.Load()
	last := view.LastFinalized(stream)
	log := e.log.With().Uint8("network", uint8(network)).Uint64("last_nonce", last).Logger()

	msg, err := source.ReadEvents(ctx, last)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("could not read bridge messages")
		}
		return
	}
	if msg == nil {
		return
	}
	if msg.Nonce != last+1 {
		log.Warn().Uint64("nonce", msg.Nonce).Msg("message source skipped a nonce")
		return
	}
	e.metrics.BridgeMessageReceived(networkLabel(network), len(msg.Data))

	msg.Network = network
	msg.ValidatorSetID = view.Epoch()
	msg.ValidatorSetLen = uint64(view.Authorities.Size())

	err = e.endorse(ctx, msg)
	if err != nil && !engine.IsOutdatedInputError(err) && !errors.Is(err, ErrNotAuthority) {
		log.Error().Err(err).Uint64("nonce", msg.Nonce).Msg("could not endorse bridge message")
	}
}

// endorse signs the message under the active authority set, merges the local partial
// and broadcasts it. A message is endorsed at most once per epoch.
// Expected error returns during normal operations:
//   - engine.OutdatedInputError if the message is finalized or stamped with another epoch
//   - ErrNotAuthority if this node does not sign under the active authority set
func (e *Engine) endorse(ctx context.Context, msg *quorum.BridgeMessage) error {
	set := e.view.Load().Authorities
	if msg.ValidatorSetID != set.Epoch() {
		return engine.NewOutdatedInputErrorf("message %d is stamped with epoch %d, active epoch is %d", msg.Nonce, msg.ValidatorSetID, set.Epoch())
	}
	aggregator, ok := e.aggregators[msg.Network]
	if !ok {
		return engine.NewInvalidInputErrorf("no stream for network %d", msg.Network)
	}
	index, ok := set.IndexOf(e.signer.PublicKey())
	if !ok {
		return fmt.Errorf("epoch %d: %w", set.Epoch(), ErrNotAuthority)
	}

	// reserve the nonce so that concurrent polls sign once, release it if the local
	// partial does not make it into the aggregator
	reserved := endorsement{epoch: set.Epoch(), nonce: msg.Nonce}
	e.mu.Lock()
	prev, hadPrev := e.endorsed[msg.Network]
	if hadPrev && prev.epoch == set.Epoch() && prev.nonce >= msg.Nonce {
		e.mu.Unlock()
		return nil
	}
	e.endorsed[msg.Network] = reserved
	e.mu.Unlock()

	release := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.endorsed[msg.Network] != reserved {
			return
		}
		if hadPrev {
			e.endorsed[msg.Network] = prev
			return
		}
		delete(e.endorsed, msg.Network)
	}

	p, err := signature.SignPartial(e.signer, uint32(index), msg.Stream(), msg.Nonce, set.Epoch(), msg.Encode())
	if err != nil {
		release()
		return fmt.Errorf("could not sign bridge message %d: %w", msg.Nonce, err)
	}

	_, err = aggregator.ProposeOrMerge(p)
	if err != nil {
		if errors.Is(err, signature.ErrStale) {
			return engine.NewOutdatedInputErrorf("local endorsement of %d is stale: %w", msg.Nonce, err)
		}
		release()
		return fmt.Errorf("could not merge local endorsement: %w", err)
	}

	err = e.conduit.Publish(ctx, messages.NewBridgeVote(msg, uint32(index), p.Signature))
	if err != nil && !engine.IsOutdatedInputError(err) {
		return fmt.Errorf("could not publish bridge vote: %w", err)
	}
	e.metrics.MessageSent(metrics.EngineBridge, metrics.MessageBridgeVote)

	e.log.Debug().
		Uint8("network", uint8(msg.Network)).
		Uint64("nonce", msg.Nonce).
		Uint64("epoch", set.Epoch()).
		Uint("signer", index).
		Msg("bridge message endorsed")
	return nil
}

func (e *Engine) onVote(ctx context.Context, origin quorum.PeerID, vote *messages.BridgeVote) error {
	msg := vote.Message
	aggregator, ok := e.aggregators[msg.Network]
	if !ok {
		return engine.NewInvalidInputErrorf("vote for message of unknown network %d", msg.Network)
	}
	if vote.Final() {
		return e.onFinalVote(origin, aggregator, vote)
	}

	invalid := 0
	for _, p := range vote.Partials() {
		outcome, err := aggregator.ProposeOrMerge(p)
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
		return engine.NewInvalidInputErrorf("vote for nonce %d carries %d invalid signatures", msg.Nonce, invalid)
	}

	return e.cosign(ctx, &msg)
}

// cosign endorses a message proposed by a peer once this node observes it at its origin.
func (e *Engine) cosign(ctx context.Context, msg *quorum.BridgeMessage) error {
	if msg.Nonce != e.view.Load().LastFinalized(msg.Stream())+1 {
		return nil
	}
	source, ok := e.source(msg.Network)
	if !ok {
		return nil
	}

	e.mu.Lock()
	done, ok := e.endorsed[msg.Network]
	e.mu.Unlock()
	if ok && done.epoch == msg.ValidatorSetID && done.nonce >= msg.Nonce {
		return nil
	}

	observed, err := source.CheckMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("could not check bridge message %d at its origin: %w", msg.Nonce, err)
	}
	if !observed {
		e.log.Debug().Uint8("network", uint8(msg.Network)).Uint64("nonce", msg.Nonce).Msg("bridge message not observed at its origin")
		return nil
	}

	err = e.endorse(ctx, msg)
	if errors.Is(err, ErrNotAuthority) {
		return nil
	}
	return err
}

// onFinalVote accepts an aggregate finalized by a peer.
func (e *Engine) onFinalVote(origin quorum.PeerID, aggregator *signature.Aggregator, vote *messages.BridgeVote) error {
	msg := vote.Message
	if msg.Nonce <= aggregator.Finalized() {
		return nil
	}

	payload := msg.Encode()
	artifact := &quorum.Artifact{
		Stream:             msg.Stream(),
		Sequence:           msg.Nonce,
		Epoch:              msg.ValidatorSetID,
		Payload:            payload,
		PayloadHash:        quorum.HashPayload(payload),
		Signatures:         vote.Signatures,
		AggregateSignature: vote.Aggregate,
	}
	err := signature.VerifyArtifact(e.verifier, e.view.Load().Authorities, artifact)
	if err != nil {
		return engine.NewInvalidInputErrorf("invalid final vote for nonce %d from %s: %w", msg.Nonce, origin, err)
	}

	e.enqueueFinalized(artifact)
	_, err = aggregator.Advance(artifact.Sequence, artifact.PayloadHash)
	if err != nil {
		return fmt.Errorf("could not advance aggregator to %d: %w", artifact.Sequence, err)
	}
	return nil
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

// processFinalized broadcasts the aggregate and delivers the message to its
// destination: foreign messages go to the ledger, native ones to the foreign chain.
func (e *Engine) processFinalized(ctx context.Context, artifact *quorum.Artifact) {
	log := e.log.With().Str("stream", artifact.Stream.String()).Uint64("nonce", artifact.Sequence).Logger()

	msg, err := quorum.DecodeBridgeMessage(artifact.Payload)
	if err != nil {
		log.Error().Err(err).Msg("finalized payload is not a bridge message")
		return
	}
	vote := messages.BridgeVoteFromArtifact(msg, artifact)

	err = e.conduit.Publish(ctx, vote)
	if err != nil && !engine.IsOutdatedInputError(err) {
		log.Warn().Err(err).Msg("could not publish final vote")
	} else if err == nil {
		e.metrics.MessageSent(metrics.EngineBridge, metrics.MessageBridgeVote)
	}

	if msg.Network == quorum.NativeNetwork {
		err = e.connector.SendTransaction(ctx, vote)
	} else {
		err = e.submitter.SubmitFinalized(ctx, artifact)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error().Err(err).Msg("could not deliver finalized bridge message")
		return
	}

	label := networkLabel(msg.Network)
	e.metrics.BridgeMessageSent(label, len(msg.Data))
	e.view.Advance(artifact.Stream, artifact.Sequence)
	e.metrics.ProcessedNonce(label, artifact.Sequence)
	log.Info().Msg("bridge message delivered")
}
