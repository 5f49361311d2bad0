// Package config defines the configuration of an attest node. Every setting has a
// default, can be overridden by a YAML config file, by an ATTEST_ prefixed environment
// variable and by a command line flag, in increasing order of precedence.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/attestnet/attest/engine/bridge"
	"github.com/attestnet/attest/engine/checkpoint"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/chunks"
	"github.com/attestnet/attest/module/submitter"
	"github.com/attestnet/attest/network/gossip"
	"github.com/attestnet/attest/network/p2p"
	"github.com/attestnet/attest/network/validator"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "ATTEST"

const (
	configFile     = "config"
	dataDir        = "datadir"
	keyFile        = "key-file"
	logLevel       = "loglevel"
	metricsAddress = "metrics-address"
	genesisEpoch   = "genesis-epoch"
	authorities    = "authorities"
	// message caches and chunk exchange
	cacheCapacity           = "message-cache-capacity"
	rebroadcastInterval     = "rebroadcast-interval"
	wantRebroadcastInterval = "want-rebroadcast-interval"
	chunkStoreCapacity      = "chunk-store-capacity"
	chunkSize               = "chunk-size"
	// gossip engine
	rebroadcastTick  = "rebroadcast-tick"
	outboundCapacity = "outbound-capacity"
	// p2p
	listenAddress     = "listen-address"
	bootstrapPeers    = "bootstrap-peers"
	maxMessageSize    = "max-message-size"
	directTimeout     = "direct-timeout"
	reconnectInterval = "reconnect-interval"
	restricted        = "restricted"
	// checkpoint engine
	checkpointVoteQueue     = "checkpoint-vote-queue-capacity"
	checkpointExchangeQueue = "checkpoint-exchange-queue-capacity"
	checkpointWorkers       = "checkpoint-workers"
	checkpointRefresh       = "checkpoint-refresh-interval"
	// bridge engine
	foreignNetwork = "foreign-network"
	bridgeQueue    = "bridge-queue-capacity"
	bridgeWorkers  = "bridge-workers"
	bridgeRefresh  = "bridge-refresh-interval"
	bridgePoll     = "bridge-poll-interval"
	// ledger submission
	retryDelay    = "submit-retry-delay"
	maxRetryDelay = "submit-max-retry-delay"
	maxRetries    = "submit-max-retries"
)

// Config is the complete configuration of a node.
type Config struct {
	// DataDir holds the badger database of the local ledger.
	DataDir string
	// KeyFile holds the hex encoded secp256k1 validator key.
	KeyFile        string
	LogLevel       string
	MetricsAddress string
	// GenesisEpoch and Authorities define the authority set the local ledger is
	// bootstrapped with. Authorities are hex encoded compressed public keys.
	GenesisEpoch uint64
	Authorities  []string

	CacheCapacity           int
	RebroadcastInterval     time.Duration
	WantRebroadcastInterval time.Duration
	ChunkStoreCapacity      int
	ChunkSize               int

	Gossip     gossip.Config
	P2P        p2p.Config
	Checkpoint checkpoint.Config
	Bridge     bridge.Config
	Submitter  submitter.Config
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:                 "/data/attest",
		KeyFile:                 "/data/attest/validator.key",
		LogLevel:                zerolog.InfoLevel.String(),
		MetricsAddress:          ":8080",
		GenesisEpoch:            1,
		CacheCapacity:           100_000,
		RebroadcastInterval:     validator.RebroadcastInterval,
		WantRebroadcastInterval: validator.WantRebroadcastInterval,
		ChunkStoreCapacity:      16,
		ChunkSize:               chunks.DefaultChunkSize,
		Gossip:                  gossip.DefaultConfig(),
		P2P:                     p2p.DefaultConfig(),
		Checkpoint:              checkpoint.DefaultConfig(),
		Bridge:                  bridge.DefaultConfig(),
		Submitter:               submitter.DefaultConfig(),
	}
}

// InitializeFlags registers every setting on the flag set, using the given config
// as defaults.
func InitializeFlags(flags *pflag.FlagSet, config *Config) {
	flags.String(configFile, "", "path of an optional YAML config file")
	flags.String(dataDir, config.DataDir, "directory of the local ledger database")
	flags.String(keyFile, config.KeyFile, "file holding the hex encoded secp256k1 validator key")
	flags.String(logLevel, config.LogLevel, "level for logging output")
	flags.String(metricsAddress, config.MetricsAddress, "listen address of the prometheus metrics server, empty to disable")
	flags.Uint64(genesisEpoch, config.GenesisEpoch, "epoch of the genesis authority set")
	flags.StringSlice(authorities, config.Authorities, "hex encoded public keys of the genesis authority set, in index order")

	flags.Int(cacheCapacity, config.CacheCapacity, "number of (message, peer) entries held by each message cache")
	flags.Duration(rebroadcastInterval, config.RebroadcastInterval, "minimum time between two sends of the same message to the same peer")
	flags.Duration(wantRebroadcastInterval, config.WantRebroadcastInterval, "minimum time between two sends of the same request to the same peer")
	flags.Int(chunkStoreCapacity, config.ChunkStoreCapacity, "number of artifact payloads kept for serving chunks")
	flags.Int(chunkSize, config.ChunkSize, "size in bytes of a payload chunk")

	flags.Duration(rebroadcastTick, config.Gossip.RebroadcastTick, "period at which kept messages are re-examined for rebroadcast")
	flags.Int(outboundCapacity, config.Gossip.OutboundCapacity, "number of kept messages per topic")

	flags.String(listenAddress, config.P2P.ListenAddress, "multiaddress the p2p host listens on")
	flags.StringSlice(bootstrapPeers, config.P2P.Bootstrap, "p2p multiaddresses of the bootstrap peers")
	flags.Int(maxMessageSize, config.P2P.MaxMessageSize, "maximum size in bytes of a gossip or direct message")
	flags.Duration(directTimeout, config.P2P.DirectTimeout, "how long a direct message transmission can take to complete")
	flags.Duration(reconnectInterval, config.P2P.ReconnectInterval, "how often lost bootstrap peers are dialed again")
	flags.Bool(restricted, config.P2P.Restricted, "only accept connections from authorities and bootstrap peers")

	flags.Int(checkpointVoteQueue, config.Checkpoint.VoteQueueCapacity, "capacity of the inbound checkpoint vote queue")
	flags.Int(checkpointExchangeQueue, config.Checkpoint.ExchangeQueueCapacity, "capacity of the inbound chunk exchange queue")
	flags.Int(checkpointWorkers, config.Checkpoint.Workers, "number of checkpoint messages processed concurrently")
	flags.Duration(checkpointRefresh, config.Checkpoint.RefreshInterval, "how often the checkpoint engine re-reads the ledger")

	flags.Uint8(foreignNetwork, uint8(config.Bridge.ForeignNetwork), "network id of the foreign chain of the bridge")
	flags.Int(bridgeQueue, config.Bridge.QueueCapacity, "capacity of the inbound bridge vote queue")
	flags.Int(bridgeWorkers, config.Bridge.Workers, "number of bridge votes processed concurrently")
	flags.Duration(bridgeRefresh, config.Bridge.RefreshInterval, "how often the bridge engine re-reads the ledger")
	flags.Duration(bridgePoll, config.Bridge.PollInterval, "polling period of the foreign chain, zero to use its block time")

	flags.Duration(retryDelay, config.Submitter.RetryDelay, "initial delay between two ledger submission attempts")
	flags.Duration(maxRetryDelay, config.Submitter.MaxRetryDelay, "maximum delay between two ledger submission attempts")
	flags.Uint64(maxRetries, config.Submitter.MaxRetries, "maximum number of retries of a ledger submission")
}

// Load reads the configuration from the flags, the environment and the optional config
// file named by the config flag.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	err := v.BindPFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("could not bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(configFile); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	c := &Config{
		DataDir:                 v.GetString(dataDir),
		KeyFile:                 v.GetString(keyFile),
		LogLevel:                v.GetString(logLevel),
		MetricsAddress:          v.GetString(metricsAddress),
		GenesisEpoch:            v.GetUint64(genesisEpoch),
		Authorities:             v.GetStringSlice(authorities),
		CacheCapacity:           v.GetInt(cacheCapacity),
		RebroadcastInterval:     v.GetDuration(rebroadcastInterval),
		WantRebroadcastInterval: v.GetDuration(wantRebroadcastInterval),
		ChunkStoreCapacity:      v.GetInt(chunkStoreCapacity),
		ChunkSize:               v.GetInt(chunkSize),
		Gossip: gossip.Config{
			RebroadcastTick:  v.GetDuration(rebroadcastTick),
			OutboundCapacity: v.GetInt(outboundCapacity),
		},
		P2P: p2p.Config{
			ListenAddress:     v.GetString(listenAddress),
			Bootstrap:         v.GetStringSlice(bootstrapPeers),
			MaxMessageSize:    v.GetInt(maxMessageSize),
			DirectTimeout:     v.GetDuration(directTimeout),
			ReconnectInterval: v.GetDuration(reconnectInterval),
			Restricted:        v.GetBool(restricted),
		},
		Checkpoint: checkpoint.Config{
			VoteQueueCapacity:     v.GetInt(checkpointVoteQueue),
			ExchangeQueueCapacity: v.GetInt(checkpointExchangeQueue),
			Workers:               v.GetInt(checkpointWorkers),
			RefreshInterval:       v.GetDuration(checkpointRefresh),
		},
		Bridge: bridge.Config{
			ForeignNetwork:  quorum.Network(v.GetUint(foreignNetwork)),
			QueueCapacity:   v.GetInt(bridgeQueue),
			Workers:         v.GetInt(bridgeWorkers),
			RefreshInterval: v.GetDuration(bridgeRefresh),
			PollInterval:    v.GetDuration(bridgePoll),
		},
		Submitter: submitter.Config{
			RetryDelay:    v.GetDuration(retryDelay),
			MaxRetryDelay: v.GetDuration(maxRetryDelay),
			MaxRetries:    v.GetUint64(maxRetries),
		},
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	_, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}
	if c.DataDir == "" {
		result = multierror.Append(result, fmt.Errorf("data directory must be set"))
	}
	if c.KeyFile == "" {
		result = multierror.Append(result, fmt.Errorf("key file must be set"))
	}
	if c.GenesisEpoch == 0 {
		result = multierror.Append(result, fmt.Errorf("genesis epoch must be positive"))
	}
	if len(c.Authorities) == 0 {
		result = multierror.Append(result, fmt.Errorf("genesis authority set must not be empty"))
	}
	_, err = c.AuthorityKeys()
	if err != nil {
		result = multierror.Append(result, err)
	}
	if c.CacheCapacity < 1 {
		result = multierror.Append(result, fmt.Errorf("message cache capacity must be positive, got %d", c.CacheCapacity))
	}
	if c.RebroadcastInterval <= 0 || c.WantRebroadcastInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("rebroadcast intervals must be positive"))
	}
	if c.Gossip.RebroadcastTick > c.RebroadcastInterval || c.Gossip.RebroadcastTick > c.WantRebroadcastInterval {
		result = multierror.Append(result, fmt.Errorf("rebroadcast tick (%s) must not exceed the rebroadcast intervals", c.Gossip.RebroadcastTick))
	}
	if c.ChunkStoreCapacity < 1 {
		result = multierror.Append(result, fmt.Errorf("chunk store capacity must be positive, got %d", c.ChunkStoreCapacity))
	}
	if c.ChunkSize < 1 || c.ChunkSize >= c.P2P.MaxMessageSize {
		result = multierror.Append(result, fmt.Errorf("chunk size (%d) must be positive and below the maximum message size (%d)", c.ChunkSize, c.P2P.MaxMessageSize))
	}
	if c.Bridge.ForeignNetwork == quorum.NativeNetwork {
		result = multierror.Append(result, fmt.Errorf("foreign network must differ from the native network %d", quorum.NativeNetwork))
	}
	if c.Checkpoint.Workers < 1 || c.Bridge.Workers < 1 {
		result = multierror.Append(result, fmt.Errorf("engine workers must be positive"))
	}
	if c.Submitter.RetryDelay <= 0 || c.Submitter.MaxRetryDelay < c.Submitter.RetryDelay {
		result = multierror.Append(result, fmt.Errorf("submit retry delays must be positive and ordered"))
	}

	return result.ErrorOrNil()
}

// AuthorityKeys decodes the genesis authority keys.
func (c *Config) AuthorityKeys() ([][]byte, error) {
	keys := make([][]byte, 0, len(c.Authorities))
	for i, s := range c.Authorities {
		key, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid authority key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
