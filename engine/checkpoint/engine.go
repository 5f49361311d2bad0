package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/engine/common/fifoqueue"
	"github.com/attestnet/attest/ledger"
	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
	"github.com/attestnet/attest/module/chunks"
	"github.com/attestnet/attest/module/handoff"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/module/signature"
	"github.com/attestnet/attest/network"
	"github.com/attestnet/attest/network/gossip"
)

// ErrNotAuthority is returned when the local key is not part of the active authority set.
var ErrNotAuthority = errors.New("local key is not part of the active authority set")

// LocalSigner is the validator key of this node.
type LocalSigner interface {
	signature.Signer
	PublicKey() []byte
}

// WantNonceHandler answers lagging peers asking for worker nonces.
type WantNonceHandler interface {
	HandleWantNonce(ctx context.Context, origin quorum.PeerID, req *messages.WantNonce) error
}

type Option func(*Engine)

// WithWantNonceHandler sets the handler of worker nonce requests. Without one, such
// requests are dropped.
func WithWantNonceHandler(handler WantNonceHandler) Option {
	return func(e *Engine) {
		e.nonces = handler
	}
}

// Engine agrees on order-book snapshots. It endorses snapshots proposed by the local
// worker, aggregates the endorsements of its peers, submits finalized snapshots to the
// ledger and serves and retrieves snapshot payloads through the chunk exchange. When
// the authority set rotates it hands the unfinalized snapshot over to the new set.
type Engine struct {
	unit       *engine.Unit
	log        zerolog.Logger
	metrics    module.EngineMetrics
	conduit    gossip.Conduit
	reader     ledger.Reader
	submitter  ledger.Submitter
	view       *ledgerview.LedgerView
	aggregator *signature.Aggregator
	handoff    *handoff.Handoff
	store      *chunks.Store
	signer     LocalSigner
	verifier   signature.Verifier
	nonces     WantNonceHandler
	config     Config

	handler           *engine.MessageHandler
	votes             *engine.FifoMessageStore
	exchange          *engine.FifoMessageStore
	finalized         *fifoqueue.FifoQueue[*quorum.Artifact]
	finalizedNotifier engine.Notifier
	pool              *workerpool.WorkerPool

	rotationMu sync.Mutex
	mu         sync.Mutex
	assemblers map[uint64]*chunks.Assembler
}

var _ gossip.MessageProcessor = (*Engine)(nil)

// New creates the engine and registers it on the checkpoint topic.
func New(
	log zerolog.Logger,
	metrics module.EngineMetrics,
	net gossip.EngineRegistry,
	validator gossip.Validator,
	reader ledger.Reader,
	submitter ledger.Submitter,
	view *ledgerview.LedgerView,
	aggregator *signature.Aggregator,
	handoff *handoff.Handoff,
	store *chunks.Store,
	signer LocalSigner,
	verifier signature.Verifier,
	config Config,
	opts ...Option,
) (*Engine, error) {
	if config.Workers <= 0 {
		return nil, fmt.Errorf("number of workers must be positive, got %d", config.Workers)
	}
	if config.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", config.RefreshInterval)
	}

	votes, err := engine.NewFifoMessageStore(config.VoteQueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("could not create vote queue: %w", err)
	}
	exchange, err := engine.NewFifoMessageStore(config.ExchangeQueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("could not create exchange queue: %w", err)
	}
	// finalized artifacts are never dropped
	finalized, err := fifoqueue.NewFifoQueue[*quorum.Artifact]()
	if err != nil {
		return nil, fmt.Errorf("could not create finalization queue: %w", err)
	}

	e := &Engine{
		unit:              engine.NewUnit(),
		log:               log.With().Str("engine", "checkpoint").Logger(),
		metrics:           metrics,
		reader:            reader,
		submitter:         submitter,
		view:              view,
		aggregator:        aggregator,
		handoff:           handoff,
		store:             store,
		signer:            signer,
		verifier:          verifier,
		config:            config,
		votes:             votes,
		exchange:          exchange,
		finalized:         finalized,
		finalizedNotifier: engine.NewNotifier(),
		pool:              workerpool.New(config.Workers),
		assemblers:        make(map[uint64]*chunks.Assembler),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handler = engine.NewMessageHandler(
		e.log,
		engine.NewNotifier(),
		engine.Pattern{
			Match: func(msg *engine.Message) bool {
				_, ok := msg.Payload.(*messages.CheckpointVote)
				return ok
			},
			Store: votes,
		},
		engine.Pattern{
			Match: func(msg *engine.Message) bool {
				switch msg.Payload.(type) {
				case *messages.Want, *messages.Have, *messages.RequestChunk, *messages.Chunk, *messages.WantNonce:
					return true
				default:
					return false
				}
			},
			Store: exchange,
		},
	)

	aggregator.AddOnFinalized(e.onFinalized)

	e.conduit, err = net.Register(network.CheckpointTopic, validator, e)
	if err != nil {
		return nil, fmt.Errorf("could not register checkpoint engine: %w", err)
	}

	return e, nil
}

// Ready starts processing inbound messages and finalized artifacts, and the periodic
// refresh of the ledger view.
func (e *Engine) Ready() <-chan struct{} {
	e.unit.Launch(e.processMessagesLoop)
	e.unit.Launch(e.finalizationLoop)
	e.unit.LaunchPeriodically(e.refresh, e.config.RefreshInterval, e.config.RefreshInterval)
	return e.unit.Ready()
}

// Done stops the engine once in-flight messages were handled.
func (e *Engine) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-e.unit.Done()
		e.pool.StopWait()
		close(done)
	}()
	return done
}

// Process queues a message accepted by the checkpoint validator.
func (e *Engine) Process(_ network.Topic, origin quorum.PeerID, message interface{}) error {
	e.metrics.MessageReceived(metrics.EngineCheckpoint, messageLabel(message))
	err := e.handler.Process(origin, message)
	if err != nil {
		if errors.Is(err, engine.IncompatibleInputTypeError) {
			return err
		}
		return fmt.Errorf("unexpected error while queueing message: %w", err)
	}
	return nil
}

func (e *Engine) processMessagesLoop() {
	notifier := e.handler.GetNotifier()
	for {
		select {
		case <-e.unit.Quit():
			return
		case <-notifier:
			e.processAvailableMessages()
		}
	}
}

// processAvailableMessages drains both queues, alternating between them so the chunk
// exchange progresses under a flood of votes.
func (e *Engine) processAvailableMessages() {
	for {
		select {
		case <-e.unit.Quit():
			return
		default:
		}

		vote, hasVote := e.votes.Get()
		if hasVote {
			e.dispatch(vote)
		}
		msg, hasMsg := e.exchange.Get()
		if hasMsg {
			e.dispatch(msg)
		}
		if !hasVote && !hasMsg {
			return
		}
	}
}

// dispatch hands the message to the worker pool, blocking while the pool is saturated
// so that back pressure stays on the bounded inbound queues.
func (e *Engine) dispatch(msg *engine.Message) {
	task := func() { e.handle(msg) }
	if e.pool.WaitingQueueSize() >= e.config.Workers {
		e.pool.SubmitWait(task)
		return
	}
	e.pool.Submit(task)
}

func (e *Engine) handle(msg *engine.Message) {
	ctx := e.unit.Ctx()
	label := messageLabel(msg.Payload)

	var err error
	switch m := msg.Payload.(type) {
	case *messages.CheckpointVote:
		err = e.onVote(ctx, msg.Origin, m)
	case *messages.Want:
		err = e.onWant(ctx, msg.Origin, m)
	case *messages.RequestChunk:
		err = e.onRequestChunk(ctx, msg.Origin, m)
	case *messages.Have:
		err = e.onHave(ctx, msg.Origin, m)
	case *messages.Chunk:
		err = e.onChunk(ctx, msg.Origin, m)
	case *messages.WantNonce:
		err = e.onWantNonce(ctx, msg.Origin, m)
	default:
		err = fmt.Errorf("unexpected message of type %T: %w", msg.Payload, engine.IncompatibleInputTypeError)
	}
	e.metrics.MessageHandled(metrics.EngineCheckpoint, label)

	if err == nil {
		return
	}
	lg := e.log.With().Err(err).Str("origin", msg.Origin.String()).Str("message", label).Logger()
	switch {
	case engine.IsOutdatedInputError(err):
		lg.Debug().Msg("dropped outdated message")
	case engine.IsInvalidInputError(err), errors.Is(err, engine.IncompatibleInputTypeError):
		lg.Warn().Msg("dropped invalid message")
	case errors.Is(err, context.Canceled):
	default:
		lg.Error().Msg("could not handle message")
	}
}

func (e *Engine) onWantNonce(ctx context.Context, origin quorum.PeerID, req *messages.WantNonce) error {
	if e.nonces == nil {
		e.log.Debug().
			Str("origin", origin.String()).
			Uint64("from", req.From).
			Uint64("to", req.To).
			Msg("no worker nonce handler, dropping request")
		return nil
	}
	return e.nonces.HandleWantNonce(ctx, origin, req)
}

func messageLabel(msg interface{}) string {
	switch msg.(type) {
	case *messages.CheckpointVote:
		return metrics.MessageCheckpointVote
	case *messages.Want:
		return metrics.MessageWant
	case *messages.Have:
		return metrics.MessageHave
	case *messages.RequestChunk:
		return metrics.MessageRequestChunk
	case *messages.Chunk:
		return metrics.MessageChunk
	case *messages.WantNonce:
		return metrics.MessageWantNonce
	default:
		return "unknown"
	}
}
