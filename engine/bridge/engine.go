package bridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/engine/common/fifoqueue"
	"github.com/attestnet/attest/ledger"
	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
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

// Metrics is what the bridge engine reports.
type Metrics interface {
	module.EngineMetrics
	module.BridgeMetrics
	module.AggregatorMetrics
}

type Option func(*Engine)

// WithNativeSource sets the source of native messages to relay to the foreign chain.
// Without one, the engine only relays foreign messages to the ledger.
func WithNativeSource(source MessageSource) Option {
	return func(e *Engine) {
		e.native = source
	}
}

// Engine relays bridge messages. Messages read from the foreign chain are endorsed,
// aggregated and submitted to the ledger; messages of the native chain are endorsed,
// aggregated and delivered to the foreign chain through the connector. Each origin
// network is a stream of its own, finalized in nonce order.
type Engine struct {
	unit      *engine.Unit
	log       zerolog.Logger
	metrics   Metrics
	conduit   gossip.Conduit
	reader    ledger.Reader
	submitter ledger.Submitter
	view      *ledgerview.LedgerView
	connector ForeignChainConnector
	native    MessageSource
	signer    LocalSigner
	verifier  signature.Verifier
	config    Config

	aggregators map[quorum.Network]*signature.Aggregator

	handler           *engine.MessageHandler
	votes             *engine.FifoMessageStore
	finalized         *fifoqueue.FifoQueue[*quorum.Artifact]
	finalizedNotifier engine.Notifier
	pool              *workerpool.WorkerPool

	mu       sync.Mutex
	// endorsed holds the last local endorsement per origin network
	endorsed map[quorum.Network]endorsement
}

var _ gossip.MessageProcessor = (*Engine)(nil)

// New creates the engine and registers it on the bridge topic.
func New(
	log zerolog.Logger,
	metrics Metrics,
	net gossip.EngineRegistry,
	validator gossip.Validator,
	reader ledger.Reader,
	submitter ledger.Submitter,
	view *ledgerview.LedgerView,
	connector ForeignChainConnector,
	signer LocalSigner,
	verifier signature.Verifier,
	config Config,
	opts ...Option,
) (*Engine, error) {
	if config.ForeignNetwork == quorum.NativeNetwork {
		return nil, fmt.Errorf("foreign network must differ from the native network %d", quorum.NativeNetwork)
	}
	if config.Workers <= 0 {
		return nil, fmt.Errorf("number of workers must be positive, got %d", config.Workers)
	}
	if config.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", config.RefreshInterval)
	}

	votes, err := engine.NewFifoMessageStore(config.QueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("could not create vote queue: %w", err)
	}
	finalized, err := fifoqueue.NewFifoQueue[*quorum.Artifact]()
	if err != nil {
		return nil, fmt.Errorf("could not create finalization queue: %w", err)
	}

	e := &Engine{
		unit:              engine.NewUnit(),
		log:               log.With().Str("engine", "bridge").Logger(),
		metrics:           metrics,
		reader:            reader,
		submitter:         submitter,
		view:              view,
		connector:         connector,
		signer:            signer,
		verifier:          verifier,
		config:            config,
		aggregators:       make(map[quorum.Network]*signature.Aggregator),
		votes:             votes,
		finalized:         finalized,
		finalizedNotifier: engine.NewNotifier(),
		pool:              workerpool.New(config.Workers),
		endorsed:          make(map[quorum.Network]endorsement),
	}
	for _, opt := range opts {
		opt(e)
	}

	current := view.Load()
	for _, origin := range []quorum.Network{config.ForeignNetwork, quorum.NativeNetwork} {
		stream := quorum.BridgeStream(origin)
		aggregator := signature.NewAggregator(e.log, metrics, verifier, stream, current.Authorities, current.LastFinalized(stream))
		aggregator.AddOnFinalized(e.enqueueFinalized)
		e.aggregators[origin] = aggregator
	}

	e.handler = engine.NewMessageHandler(
		e.log,
		engine.NewNotifier(),
		engine.Pattern{
			Match: func(msg *engine.Message) bool {
				_, ok := msg.Payload.(*messages.BridgeVote)
				return ok
			},
			Store: votes,
		},
	)

	e.conduit, err = net.Register(network.BridgeTopic, validator, e)
	if err != nil {
		return nil, fmt.Errorf("could not register bridge engine: %w", err)
	}

	return e, nil
}

// Ready starts polling the message sources, processing inbound votes and finalized
// messages, and the periodic refresh of the ledger view.
func (e *Engine) Ready() <-chan struct{} {
	poll := e.config.PollInterval
	if poll <= 0 {
		poll = e.connector.BlockDuration()
	}

	e.unit.Launch(e.processMessagesLoop)
	e.unit.Launch(e.finalizationLoop)
	e.unit.LaunchPeriodically(e.poll, poll, 0)
	e.unit.LaunchPeriodically(e.refresh, e.config.RefreshInterval, e.config.RefreshInterval)
	return e.unit.Ready()
}

func (e *Engine) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-e.unit.Done()
		e.pool.StopWait()
		close(done)
	}()
	return done
}

// Process queues a vote accepted by the bridge validator.
func (e *Engine) Process(_ network.Topic, origin quorum.PeerID, message interface{}) error {
	e.metrics.MessageReceived(metrics.EngineBridge, metrics.MessageBridgeVote)
	err := e.handler.Process(origin, message)
	if err != nil {
		if errors.Is(err, engine.IncompatibleInputTypeError) {
			return err
		}
		return fmt.Errorf("unexpected error while queueing message: %w", err)
	}
	return nil
}

// Aggregator returns the aggregator of messages originating from the network.
func (e *Engine) Aggregator(network quorum.Network) (*signature.Aggregator, bool) {
	aggregator, ok := e.aggregators[network]
	return aggregator, ok
}

func (e *Engine) processMessagesLoop() {
	notifier := e.handler.GetNotifier()
	for {
		select {
		case <-e.unit.Quit():
			return
		case <-notifier:
		}

		for {
			msg, ok := e.votes.Get()
			if !ok {
				break
			}
			task := func() { e.handle(msg) }
			if e.pool.WaitingQueueSize() >= e.config.Workers {
				e.pool.SubmitWait(task)
				continue
			}
			e.pool.Submit(task)
		}
	}
}

func (e *Engine) handle(msg *engine.Message) {
	vote, ok := msg.Payload.(*messages.BridgeVote)
	if !ok {
		e.log.Warn().Str("origin", msg.Origin.String()).Msgf("unexpected message of type %T", msg.Payload)
		return
	}

	err := e.onVote(e.unit.Ctx(), msg.Origin, vote)
	e.metrics.MessageHandled(metrics.EngineBridge, metrics.MessageBridgeVote)
	if err == nil {
		return
	}

	lg := e.log.With().Err(err).Str("origin", msg.Origin.String()).Uint64("nonce", vote.Message.Nonce).Logger()
	switch {
	case engine.IsInvalidInputError(err):
		lg.Warn().Msg("dropped invalid bridge vote")
	case engine.IsOutdatedInputError(err), errors.Is(err, context.Canceled):
		lg.Debug().Msg("dropped outdated bridge vote")
	default:
		lg.Error().Msg("could not handle bridge vote")
	}
}

func (e *Engine) source(network quorum.Network) (MessageSource, bool) {
	switch {
	case network == e.config.ForeignNetwork:
		return e.connector, true
	case network == quorum.NativeNetwork && e.native != nil:
		return e.native, true
	default:
		return nil, false
	}
}

func networkLabel(network quorum.Network) string {
	return strconv.Itoa(int(network))
}
