package validator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/cache"
	"github.com/attestnet/attest/network/codec"
	"github.com/attestnet/attest/network/gossip"
)

const (
	// RebroadcastInterval is the minimum time between two sends of the same stored
	// message to the same peer.
	RebroadcastInterval = 3 * time.Second

	// WantRebroadcastInterval is the minimum time between two sends of the same
	// request to the same peer, and the window in which a repeated request is dropped.
	WantRebroadcastInterval = 3 * time.Second
)

// ViewProvider returns the current ledger view. It must never block.
type ViewProvider interface {
	Load() *ledgerview.View
}

// PendingProvider returns the sequence left unfinalized by the previous authority
// set, if any.
type PendingProvider interface {
	Pending() (uint64, bool)
}

type Option func(*base)

// WithRebroadcastInterval overrides RebroadcastInterval.
func WithRebroadcastInterval(interval time.Duration) Option {
	return func(b *base) {
		b.rebroadcastInterval = interval
	}
}

// WithWantRebroadcastInterval overrides WantRebroadcastInterval.
func WithWantRebroadcastInterval(interval time.Duration) Option {
	return func(b *base) {
		b.wantInterval = interval
	}
}

// base holds what both topic validators share: peer bookkeeping, the message cache
// and the rebroadcast rule.
type base struct {
	log                 zerolog.Logger
	codec               network.Codec
	view                ViewProvider
	cache               *cache.MessageCache
	peers               *gossip.PeerBook
	rebroadcastInterval time.Duration
	wantInterval        time.Duration
}

func newBase(log zerolog.Logger, codec network.Codec, view ViewProvider, cache *cache.MessageCache, opts ...Option) base {
	b := base{
		log:                 log,
		codec:               codec,
		view:                view,
		cache:               cache,
		peers:               gossip.NewPeerBook(),
		rebroadcastInterval: RebroadcastInterval,
		wantInterval:        WantRebroadcastInterval,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) NewPeer(peer quorum.PeerID, role quorum.Role) {
	b.peers.Add(peer, role)
}

func (b *base) PeerDisconnected(peer quorum.PeerID) {
	b.peers.Remove(peer)
}

// Peers returns the peers known to the validator.
func (b *base) Peers() *gossip.PeerBook {
	return b.peers
}

// Prune drops cache entries that can no longer throttle a send.
func (b *base) Prune() {
	window := b.rebroadcastInterval
	if b.wantInterval > window {
		window = b.wantInterval
	}
	b.cache.Prune(2 * window)
}

// allowed applies the rebroadcast rule. Expired messages lose their cache entries.
func (b *base) allowed(peer quorum.PeerID, data []byte, expired func(msg interface{}) bool, interval func(msg interface{}) time.Duration) bool {
	msg, err := b.codec.Decode(data)
	if err != nil {
		return false
	}

	fingerprint := codec.Fingerprint(data)
	if expired(msg) {
		b.cache.RemoveFingerprint(fingerprint)
		return false
	}

	return b.cache.CheckAndTouch(cache.Key{Fingerprint: fingerprint, Peer: peer}, interval(msg))
}

func (b *base) trace(sender quorum.PeerID, msg interface{}, result gossip.ValidationResult, reason string) {
	b.log.Trace().
		Str("sender", sender.String()).
		Str("message", typeName(msg)).
		Str("result", result.String()).
		Msg(reason)
}
