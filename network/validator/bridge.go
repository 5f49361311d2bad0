package validator

import (
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

// BridgeValidator validates the bridge topic. A vote for a message from network N
// is live while its nonce is above the last finalized nonce of N and it is signed
// under the active epoch.
type BridgeValidator struct {
	base
}

var _ gossip.Validator = (*BridgeValidator)(nil)

func NewBridgeValidator(log zerolog.Logger, codec network.Codec, view ViewProvider, cache *cache.MessageCache, opts ...Option) *BridgeValidator {
	return &BridgeValidator{
		base: newBase(log.With().Str("component", "bridge_validator").Logger(), codec, view, cache, opts...),
	}
}

func (v *BridgeValidator) Validate(sender quorum.PeerID, data []byte) gossip.ValidationResult {
	msg, err := v.codec.Decode(data)
	if err != nil {
		v.log.Trace().Err(err).Str("sender", sender.String()).Msg("discarding undecodable message")
		return gossip.Discard
	}

	vote, ok := msg.(*messages.BridgeVote)
	if !ok {
		v.trace(sender, msg, gossip.Discard, "unexpected message on bridge topic")
		return gossip.Discard
	}

	if !live(v.view.Load(), vote) {
		v.trace(sender, msg, gossip.Discard, "bridge vote is not live")
		return gossip.Discard
	}

	v.cache.Insert(cache.Key{Fingerprint: codec.Fingerprint(data), Peer: sender})
	v.trace(sender, msg, gossip.ProcessAndKeep, "accepted bridge vote")
	return gossip.ProcessAndKeep
}

func (v *BridgeValidator) MessageExpired(data []byte) bool {
	msg, err := v.codec.Decode(data)
	if err != nil {
		return true
	}
	return v.expired(msg)
}

func (v *BridgeValidator) MessageAllowed(peer quorum.PeerID, data []byte) bool {
	return v.allowed(peer, data, v.expired, func(interface{}) time.Duration {
		return v.rebroadcastInterval
	})
}

func (v *BridgeValidator) expired(msg interface{}) bool {
	vote, ok := msg.(*messages.BridgeVote)
	if !ok {
		return true
	}
	return !live(v.view.Load(), vote)
}

func live(view *ledgerview.View, vote *messages.BridgeVote) bool {
	return vote.Message.Nonce > view.LastFinalized(vote.Message.Stream()) &&
		vote.Message.ValidatorSetID == view.Epoch()
}
