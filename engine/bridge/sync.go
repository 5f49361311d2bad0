package bridge

import (
	"fmt"

	"github.com/attestnet/attest/model/quorum"
)

// OnRotation activates a new authority set. Endorsements of the previous set are
// dropped; the pending messages are endorsed again when they are next polled.
func (e *Engine) OnRotation(set *quorum.AuthoritySet) error {
	if e.view.Load().Epoch() < set.Epoch() {
		err := e.view.Rotate(set)
		if err != nil {
			return fmt.Errorf("could not rotate ledger view: %w", err)
		}
	}
	return e.rotate(set)
}

func (e *Engine) rotate(set *quorum.AuthoritySet) error {
	for network, aggregator := range e.aggregators {
		if set.Epoch() <= aggregator.Epoch() {
			continue
		}
		pending, err := aggregator.Rotate(set)
		if err != nil {
			return fmt.Errorf("could not rotate aggregator of network %d: %w", network, err)
		}
		if len(pending) > 0 {
			e.log.Info().Uint8("network", uint8(network)).Uints64("pending", pending).Msg("bridge messages left unfinalized by rotation")
		}
	}
	return nil
}

func (e *Engine) refresh() {
	streams := make([]quorum.Stream, 0, len(e.aggregators))
	for network := range e.aggregators {
		streams = append(streams, quorum.BridgeStream(network))
	}
	err := e.view.Refresh(e.unit.Ctx(), e.reader, streams...)
	if err != nil {
		e.log.Warn().Err(err).Msg("could not refresh ledger view")
		return
	}
	e.sync()
}

// sync aligns the aggregators with the ledger view. The native stream is finalized on
// the foreign chain, which is asked for its last processed nonce.
func (e *Engine) sync() {
	if e.native != nil {
		nonce, err := e.connector.LastProcessedNonceFromNative(e.unit.Ctx())
		if err != nil {
			e.log.Warn().Err(err).Msg("could not read last processed native nonce")
		} else {
			e.view.Advance(quorum.BridgeStream(quorum.NativeNetwork), nonce)
		}
	}

	view := e.view.Load()
	for network, aggregator := range e.aggregators {
		stream := quorum.BridgeStream(network)
		last := view.LastFinalized(stream)
		if last <= aggregator.Finalized() {
			continue
		}
		_, err := aggregator.Advance(last, quorum.ZeroHash)
		if err != nil {
			e.log.Error().Err(err).Str("stream", stream.String()).Uint64("nonce", last).Msg("could not advance aggregator")
			continue
		}
		e.metrics.ProcessedNonce(networkLabel(network), last)
	}

	err := e.rotate(view.Authorities)
	if err != nil {
		e.log.Error().Err(err).Uint64("epoch", view.Epoch()).Msg("could not rotate authority set")
	}
}
