package cmd

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/attestnet/attest/config"
	"github.com/attestnet/attest/engine/bridge"
	"github.com/attestnet/attest/engine/checkpoint"
	"github.com/attestnet/attest/ledger/local"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
	"github.com/attestnet/attest/module/chunks"
	"github.com/attestnet/attest/module/handoff"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/module/signature"
	"github.com/attestnet/attest/module/submitter"
	"github.com/attestnet/attest/module/util"
	"github.com/attestnet/attest/network/cache"
	"github.com/attestnet/attest/network/codec/cbor"
	"github.com/attestnet/attest/network/gossip"
	"github.com/attestnet/attest/network/p2p"
	"github.com/attestnet/attest/network/validator"
)

// Node holds the components of a running validator. Components are started in order
// and stopped in reverse order.
type Node struct {
	Log        zerolog.Logger
	DB         *badger.DB
	Ledger     *local.Ledger
	View       *ledgerview.LedgerView
	Network    *p2p.Network
	Gossip     *gossip.Engine
	Checkpoint *checkpoint.Engine
	Bridge     *bridge.Engine

	components []module.ReadyDoneAware
}

// NewNode assembles a validator from its configuration. The local ledger is
// bootstrapped with the configured genesis authority set on first start.
func NewNode(ctx context.Context, log zerolog.Logger, conf *config.Config, connector bridge.ForeignChainConnector) (*Node, error) {
	key, err := LoadKey(conf.KeyFile)
	if err != nil {
		return nil, err
	}

	node := &Node{Log: log}
	node.DB, err = badger.Open(badger.DefaultOptions(conf.DataDir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	err = node.build(ctx, conf, key, connector)
	if err != nil {
		if node.Network != nil {
			<-node.Network.Done()
		}
		return nil, multierror.Append(err, node.close())
	}
	return node, nil
}

func (n *Node) build(ctx context.Context, conf *config.Config, key *btcec.PrivateKey, connector bridge.ForeignChainConnector) error {
	log := n.Log
	verifier := signature.NewECDSAVerifier()
	signer := signature.NewLocalSigner(key)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	keys, err := conf.AuthorityKeys()
	if err != nil {
		return err
	}
	n.Ledger = local.New(log, collector, n.DB, verifier)
	err = n.Ledger.Bootstrap(quorum.NewAuthoritySet(conf.GenesisEpoch, keys))
	if err != nil {
		return errors.Wrap(err, "could not bootstrap ledger")
	}

	authorities, err := n.Ledger.CurrentAuthoritySet(ctx)
	if err != nil {
		return err
	}
	if _, ok := authorities.IndexOf(signer.PublicKey()); !ok {
		log.Warn().Uint64("epoch", authorities.Epoch()).Msg("local key is not an authority, running as full node")
	}
	n.View = ledgerview.New(log, authorities)
	err = n.View.Refresh(ctx, n.Ledger,
		quorum.BridgeStream(quorum.NativeNetwork),
		quorum.BridgeStream(conf.Bridge.ForeignNetwork),
	)
	if err != nil {
		return errors.Wrap(err, "could not load ledger view")
	}

	codec := cbor.NewCodec()
	opts := []validator.Option{
		validator.WithRebroadcastInterval(conf.RebroadcastInterval),
		validator.WithWantRebroadcastInterval(conf.WantRebroadcastInterval),
	}
	checkpointCache, err := cache.NewMessageCache(log, conf.CacheCapacity, cache.WithMetrics(metrics.ResourceCheckpointCache, collector))
	if err != nil {
		return err
	}
	bridgeCache, err := cache.NewMessageCache(log, conf.CacheCapacity, cache.WithMetrics(metrics.ResourceBridgeCache, collector))
	if err != nil {
		return err
	}
	hand := handoff.New(log)
	checkpointValidator := validator.NewCheckpointValidator(log, codec, n.View, hand, checkpointCache, opts...)
	bridgeValidator := validator.NewBridgeValidator(log, codec, n.View, bridgeCache, opts...)

	n.Network, err = p2p.New(log, key, p2p.NewAuthorityRoles(log, n.View), conf.P2P)
	if err != nil {
		return errors.Wrap(err, "could not create p2p network")
	}
	n.Gossip, err = gossip.New(log, collector, codec, n.Network, conf.Gossip)
	if err != nil {
		return err
	}

	view := n.View.Load()
	aggregator := signature.NewAggregator(log, collector, verifier, quorum.SnapshotStream, view.Authorities, view.LastFinalized(quorum.SnapshotStream))
	store, err := chunks.NewStore(log, conf.ChunkStoreCapacity, conf.ChunkSize)
	if err != nil {
		return err
	}
	sub := submitter.New(log, collector, n.Ledger, conf.Submitter)

	n.Checkpoint, err = checkpoint.New(log, collector, n.Gossip, checkpointValidator, n.Ledger, sub, n.View, aggregator, hand, store, signer, verifier, conf.Checkpoint)
	if err != nil {
		return errors.Wrap(err, "could not create checkpoint engine")
	}
	n.Bridge, err = bridge.New(log, collector, n.Gossip, bridgeValidator, n.Ledger, sub, n.View, connector, signer, verifier, conf.Bridge)
	if err != nil {
		return errors.Wrap(err, "could not create bridge engine")
	}

	// engines are registered, inbound traffic can flow
	err = n.Network.Start(n.Gossip)
	if err != nil {
		return errors.Wrap(err, "could not start p2p network")
	}

	if conf.MetricsAddress != "" {
		n.components = append(n.components, metrics.NewServer(log, conf.MetricsAddress, registry))
	}
	n.components = append(n.components, n.Network, n.Gossip, n.Checkpoint, n.Bridge)
	return nil
}

// Ready starts every component and closes once all of them are ready.
func (n *Node) Ready() <-chan struct{} {
	return util.AllReady(n.components...)
}

// Done stops the components in reverse order of start, then closes the database.
func (n *Node) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-util.SequentialDone(n.components...)
		err := n.close()
		if err != nil {
			n.Log.Error().Err(err).Msg("could not close database")
		}
	}()
	return done
}

func (n *Node) close() error {
	return n.DB.Close()
}
