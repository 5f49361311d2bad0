package validator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/cache"
	"github.com/attestnet/attest/network/codec"
	"github.com/attestnet/attest/network/gossip"
)

// CheckpointValidator validates the order-book checkpoint topic: snapshot votes,
// worker nonce requests and the chunk exchange.
type CheckpointValidator struct {
	base
	handoff PendingProvider
}

var _ gossip.Validator = (*CheckpointValidator)(nil)

// NewCheckpointValidator creates the validator. The handoff may be nil, in which case
// only the last finalized snapshot can be requested.
func NewCheckpointValidator(
	log zerolog.Logger,
	codec network.Codec,
	view ViewProvider,
	handoff PendingProvider,
	cache *cache.MessageCache,
	opts ...Option,
) *CheckpointValidator {
	return &CheckpointValidator{
		base:    newBase(log.With().Str("component", "checkpoint_validator").Logger(), codec, view, cache, opts...),
		handoff: handoff,
	}
}

// Validate classifies an inbound message of the checkpoint topic.
func (v *CheckpointValidator) Validate(sender quorum.PeerID, data []byte) gossip.ValidationResult {
	msg, err := v.codec.Decode(data)
	if err != nil {
		v.log.Trace().Err(err).Str("sender", sender.String()).Msg("discarding undecodable message")
		return gossip.Discard
	}

	key := cache.Key{Fingerprint: codec.Fingerprint(data), Peer: sender}
	view := v.view.Load()

	switch m := msg.(type) {
	case *messages.CheckpointVote:
		if !v.voteLive(view, m) {
			v.trace(sender, msg, gossip.Discard, "vote is not live")
			return gossip.Discard
		}
		v.cache.Insert(key)
		v.trace(sender, msg, gossip.ProcessAndKeep, "accepted vote")
		return gossip.ProcessAndKeep

	case *messages.WantNonce:
		if m.From > m.To || m.Epoch != view.Epoch() {
			v.trace(sender, msg, gossip.Discard, "malformed nonce request or other epoch")
			return gossip.Discard
		}
		if m.From < view.WorkerNonce() {
			v.trace(sender, msg, gossip.Discard, "nonce request behind latest snapshot")
			return gossip.Discard
		}
		if !v.cache.CheckAndTouch(key, v.wantInterval) {
			v.trace(sender, msg, gossip.Discard, "repeated nonce request")
			return gossip.Discard
		}
		v.trace(sender, msg, gossip.ProcessAndDiscard, "accepted nonce request")
		return gossip.ProcessAndDiscard

	case *messages.Want:
		return v.request(sender, key, m.ArtifactID, msg, view)

	case *messages.RequestChunk:
		return v.request(sender, key, m.ArtifactID, msg, view)

	case *messages.Have, *messages.Chunk:
		if !v.cache.Insert(key) {
			v.trace(sender, msg, gossip.Discard, "duplicate response")
			return gossip.Discard
		}
		return gossip.ProcessAndDiscard

	default:
		v.trace(sender, msg, gossip.Discard, "unexpected message on checkpoint topic")
		return gossip.Discard
	}
}

// request accepts a request for the current artifact at most once per peer within
// the want interval.
func (v *CheckpointValidator) request(sender quorum.PeerID, key cache.Key, id uint64, msg interface{}, view *ledgerview.View) gossip.ValidationResult {
	if !v.current(view, id) {
		v.trace(sender, msg, gossip.Discard, "request for unknown artifact")
		return gossip.Discard
	}
	if !v.cache.CheckAndTouch(key, v.wantInterval) {
		v.trace(sender, msg, gossip.Discard, "repeated request")
		return gossip.Discard
	}
	v.trace(sender, msg, gossip.ProcessAndDiscard, "accepted request")
	return gossip.ProcessAndDiscard
}

// MessageExpired reports whether a stored message of the checkpoint topic is stale.
func (v *CheckpointValidator) MessageExpired(data []byte) bool {
	msg, err := v.codec.Decode(data)
	if err != nil {
		return true
	}
	return v.expired(msg)
}

// MessageAllowed reports whether a stored message may be sent to the peer now.
func (v *CheckpointValidator) MessageAllowed(peer quorum.PeerID, data []byte) bool {
	return v.allowed(peer, data, v.expired, v.interval)
}

// voteLive reports whether a vote can still contribute to finalization. A regular
// vote must extend the finalized sequence under the active epoch. A reset vote is
// signed by the next authority set and is live when it is exactly one epoch ahead.
func (v *CheckpointValidator) voteLive(view *ledgerview.View, vote *messages.CheckpointVote) bool {
	if vote.Reset {
		return vote.Epoch == view.Epoch()+1
	}
	return vote.Sequence > view.LastFinalized(quorum.SnapshotStream) && vote.Epoch == view.Epoch()
}

func (v *CheckpointValidator) expired(msg interface{}) bool {
	view := v.view.Load()
	last := view.LastFinalized(quorum.SnapshotStream)

	switch m := msg.(type) {
	case *messages.CheckpointVote:
		if m.Reset {
			return m.Sequence < last || m.Epoch != view.Epoch()+1
		}
		return m.Sequence < last || m.Epoch < view.Epoch()
	case *messages.WantNonce:
		return m.From < view.WorkerNonce() || m.Epoch != view.Epoch()
	case *messages.Want:
		return !v.current(view, m.ArtifactID)
	case *messages.RequestChunk:
		return !v.current(view, m.ArtifactID)
	case *messages.Have, *messages.Chunk:
		// responses are bounded by the cache window
		return false
	default:
		return true
	}
}

func (v *CheckpointValidator) interval(msg interface{}) time.Duration {
	switch msg.(type) {
	case *messages.Want, *messages.RequestChunk, *messages.WantNonce:
		return v.wantInterval
	default:
		return v.rebroadcastInterval
	}
}

// current reports whether the artifact id can be served: the last finalized snapshot
// or the sequence pending since the last authority set rotation.
func (v *CheckpointValidator) current(view *ledgerview.View, id uint64) bool {
	if id == view.LastFinalized(quorum.SnapshotStream) {
		return true
	}
	if v.handoff == nil {
		return false
	}
	pending, ok := v.handoff.Pending()
	return ok && pending == id
}

func typeName(msg interface{}) string {
	return fmt.Sprintf("%T", msg)
}
