package gossip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/codec"
)

// DefaultOutboundCapacity is the default number of kept messages per topic.
const DefaultOutboundCapacity = 4096

// DefaultRebroadcastTick is the default period of the rebroadcast loop.
const DefaultRebroadcastTick = time.Second

type Config struct {
	// RebroadcastTick is the period at which stored messages are re-examined. It should
	// not exceed the shortest rebroadcast interval of the registered validators.
	RebroadcastTick time.Duration

	// OutboundCapacity bounds the stored messages of each topic.
	OutboundCapacity int
}

func DefaultConfig() Config {
	return Config{
		RebroadcastTick:  DefaultRebroadcastTick,
		OutboundCapacity: DefaultOutboundCapacity,
	}
}

// Engine dispatches inbound gossip to the validator and processor registered for
// its topic and keeps accepted messages for periodic rebroadcast. Stored messages
// are dropped as soon as their validator reports them expired.
type Engine struct {
	unit      *engine.Unit
	log       zerolog.Logger
	metrics   module.GossipMetrics
	codec     network.Codec
	transport Transport
	peers     *PeerBook
	registry  *Registry
	config    Config

	mu       sync.RWMutex
	outbound map[network.Topic]*lru.Cache[quorum.Fingerprint, []byte]
}

var _ InboundHandler = (*Engine)(nil)
var _ EngineRegistry = (*Engine)(nil)

func New(
	log zerolog.Logger,
	metrics module.GossipMetrics,
	codec network.Codec,
	transport Transport,
	config Config,
) (*Engine, error) {
	if config.RebroadcastTick <= 0 {
		return nil, fmt.Errorf("rebroadcast tick must be positive, got %s", config.RebroadcastTick)
	}
	if config.OutboundCapacity <= 0 {
		return nil, fmt.Errorf("outbound capacity must be positive, got %d", config.OutboundCapacity)
	}

	e := &Engine{
		unit:      engine.NewUnit(),
		log:       log.With().Str("component", "gossip").Logger(),
		metrics:   metrics,
		codec:     codec,
		transport: transport,
		peers:     NewPeerBook(),
		registry:  NewRegistry(),
		config:    config,
		outbound:  make(map[network.Topic]*lru.Cache[quorum.Fingerprint, []byte]),
	}

	return e, nil
}

// Register binds a validator and a processor to the topic and returns the conduit
// used to send messages on it.
func (e *Engine) Register(topic network.Topic, validator Validator, processor MessageProcessor) (Conduit, error) {
	store, err := lru.New[quorum.Fingerprint, []byte](e.config.OutboundCapacity)
	if err != nil {
		return nil, fmt.Errorf("could not create outbound store: %w", err)
	}

	err = e.registry.Add(topic, validator, processor)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.outbound[topic] = store
	e.mu.Unlock()

	// peers seen before registration
	for _, peer := range e.peers.Peers() {
		role, _ := e.peers.Role(peer)
		validator.NewPeer(peer, role)
	}

	return &conduit{topic: topic, engine: e}, nil
}

// Ready starts the rebroadcast loop.
func (e *Engine) Ready() <-chan struct{} {
	e.unit.LaunchPeriodically(e.rebroadcast, e.config.RebroadcastTick, e.config.RebroadcastTick)
	return e.unit.Ready()
}

func (e *Engine) Done() <-chan struct{} {
	return e.unit.Done()
}

// Peers returns the peer book fed by the transport.
func (e *Engine) Peers() *PeerBook {
	return e.peers
}

// NewPeer records the peer and forwards it to every validator.
func (e *Engine) NewPeer(peer quorum.PeerID, role quorum.Role) {
	e.peers.Add(peer, role)
	for _, validator := range e.registry.Validators() {
		validator.NewPeer(peer, role)
	}
	e.log.Debug().Str("peer", string(peer)).Str("role", role.String()).Msg("peer connected")
}

// PeerDisconnected forgets the peer in the peer book and every validator.
func (e *Engine) PeerDisconnected(peer quorum.PeerID) {
	e.peers.Remove(peer)
	for _, validator := range e.registry.Validators() {
		validator.PeerDisconnected(peer)
	}
	e.log.Debug().Str("peer", string(peer)).Msg("peer disconnected")
}

// HandleInbound validates an inbound message and hands it to the processor of the
// topic if the validator accepts it. Kept messages are stored for rebroadcast.
func (e *Engine) HandleInbound(topic network.Topic, sender quorum.PeerID, data []byte) ValidationResult {
	reg, ok := e.registry.Get(topic)
	if !ok {
		e.log.Debug().Str("topic", topic.String()).Msg("dropping message on unregistered topic")
		return Discard
	}

	result := reg.validator.Validate(sender, data)
	e.metrics.ValidationResult(topic.String(), result.String())
	if !result.Process() {
		return result
	}

	msg, err := e.codec.Decode(data)
	if err != nil {
		// the validator accepted data the codec cannot read
		e.log.Error().Err(err).Str("topic", topic.String()).Msg("could not decode validated message")
		return Discard
	}

	if result.Keep() {
		e.store(topic, data)
	}

	err = reg.processor.Process(topic, sender, msg)
	if err != nil {
		lg := e.log.With().
			Err(err).
			Str("topic", topic.String()).
			Str("origin", string(sender)).
			Logger()
		if errors.Is(err, engine.IncompatibleInputTypeError) || engine.IsInvalidInputError(err) {
			lg.Warn().Msg("processor rejected message")
		} else {
			lg.Error().Msg("could not process message")
		}
	}

	return result
}

// publish stores and broadcasts a locally created message. The send is recorded
// against every known peer so that the rebroadcast loop waits a full interval.
func (e *Engine) publish(ctx context.Context, topic network.Topic, msg interface{}) error {
	reg, ok := e.registry.Get(topic)
	if !ok {
		return fmt.Errorf("topic (%s) is not registered", topic)
	}

	data, err := e.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("could not encode message: %w", err)
	}

	if reg.validator.MessageExpired(data) {
		return engine.NewOutdatedInputErrorf("message on topic %s is already expired", topic)
	}

	e.store(topic, data)
	for _, peer := range e.peers.Peers() {
		reg.validator.MessageAllowed(peer, data)
	}

	err = e.transport.Broadcast(ctx, topic, data)
	if err != nil {
		return fmt.Errorf("could not broadcast message on topic %s: %w", topic, err)
	}

	return nil
}

// unicast sends a directed message. Directed messages are never stored.
func (e *Engine) unicast(ctx context.Context, topic network.Topic, peer quorum.PeerID, msg interface{}) error {
	if _, ok := e.registry.Get(topic); !ok {
		return fmt.Errorf("topic (%s) is not registered", topic)
	}

	data, err := e.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("could not encode message: %w", err)
	}

	err = e.transport.SendTo(ctx, peer, topic, data)
	if err != nil {
		return fmt.Errorf("could not send message to %s on topic %s: %w", peer, topic, err)
	}

	return nil
}

func (e *Engine) announce(ctx context.Context, topic network.Topic, msg interface{}) error {
	if _, ok := e.registry.Get(topic); !ok {
		return fmt.Errorf("topic (%s) is not registered", topic)
	}

	data, err := e.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("could not encode message: %w", err)
	}

	err = e.transport.Broadcast(ctx, topic, data)
	if err != nil {
		return fmt.Errorf("could not announce message on topic %s: %w", topic, err)
	}

	return nil
}

func (e *Engine) store(topic network.Topic, data []byte) {
	e.mu.RLock()
	store, ok := e.outbound[topic]
	e.mu.RUnlock()
	if !ok {
		return
	}

	store.Add(codec.Fingerprint(data), data)
	e.metrics.OutboundMessages(topic.String(), uint(store.Len()))
}

// Stored returns the number of messages kept for rebroadcast on the topic.
func (e *Engine) Stored(topic network.Topic) int {
	e.mu.RLock()
	store, ok := e.outbound[topic]
	e.mu.RUnlock()
	if !ok {
		return 0
	}
	return store.Len()
}

// rebroadcast drops expired messages and broadcasts again those that are allowed
// for at least one known peer.
func (e *Engine) rebroadcast() {
	peers := e.peers.Peers()

	for _, topic := range e.registry.Topics() {
		reg, _ := e.registry.Get(topic)
		if pruner, ok := reg.validator.(Pruner); ok {
			pruner.Prune()
		}

		e.mu.RLock()
		store := e.outbound[topic]
		e.mu.RUnlock()

		for _, fingerprint := range store.Keys() {
			data, ok := store.Peek(fingerprint)
			if !ok {
				continue
			}

			if reg.validator.MessageExpired(data) {
				store.Remove(fingerprint)
				e.metrics.MessageExpired(topic.String())
				e.log.Trace().
					Str("topic", topic.String()).
					Str("fingerprint", fingerprint.String()).
					Msg("dropped expired message")
				continue
			}

			allowed := false
			for _, peer := range peers {
				// every peer is checked so each records the send
				if reg.validator.MessageAllowed(peer, data) {
					allowed = true
				}
			}
			if !allowed {
				continue
			}

			err := e.transport.Broadcast(e.unit.Ctx(), topic, data)
			if err != nil {
				e.log.Warn().Err(err).Str("topic", topic.String()).Msg("could not rebroadcast message")
				continue
			}
			e.metrics.MessageRebroadcast(topic.String())
		}

		e.metrics.OutboundMessages(topic.String(), uint(store.Len()))
	}
}
