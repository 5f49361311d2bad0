package cmd

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/config"
	"github.com/attestnet/attest/engine/bridge"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/utils/unittest"
)

func TestKeyRoundTrip(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		path := filepath.Join(dir, "keys", "validator.key")
		key := unittest.PrivateKeyFixture(t)

		require.NoError(t, WriteKey(path, key))
		loaded, err := LoadKey(path)
		require.NoError(t, err)
		assert.Equal(t, key.Serialize(), loaded.Serialize())

		// an existing key is never overwritten
		require.Error(t, WriteKey(path, unittest.PrivateKeyFixture(t)))

		require.NoError(t, os.WriteFile(path+".short", []byte("abcd"), 0o600))
		_, err = LoadKey(path + ".short")
		require.Error(t, err)
	})
}

// TestNode_StartStop assembles a single validator, starts it and shuts it down.
func TestNode_StartStop(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		set, keys := unittest.AuthoritySetFixture(t, 1, 1)

		conf := config.DefaultConfig()
		conf.DataDir = filepath.Join(dir, "db")
		conf.KeyFile = filepath.Join(dir, "validator.key")
		conf.MetricsAddress = ""
		conf.P2P.ListenAddress = "/ip4/127.0.0.1/tcp/0"
		for _, pub := range set.Keys() {
			conf.Authorities = append(conf.Authorities, hex.EncodeToString(pub))
		}
		require.NoError(t, conf.Validate())
		require.NoError(t, WriteKey(conf.KeyFile, keys[0]))

		node, err := NewNode(context.Background(), unittest.Logger(), conf, bridge.NoOpConnector{})
		require.NoError(t, err)

		unittest.RequireCloseBefore(t, node.Ready(), 5*time.Second, "node should start")
		assert.Equal(t, uint64(1), node.View.Load().Epoch())
		_, ok := node.Bridge.Aggregator(conf.Bridge.ForeignNetwork)
		assert.True(t, ok)
		unittest.RequireCloseBefore(t, node.Done(), 10*time.Second, "node should stop")

		// a restart finds the ledger bootstrapped
		node, err = NewNode(context.Background(), unittest.Logger(), conf, bridge.NoOpConnector{})
		require.NoError(t, err)
		set2, err := node.Ledger.CurrentAuthoritySet(context.Background())
		require.NoError(t, err)
		assert.Equal(t, set.Keys(), set2.Keys())
		assert.Equal(t, uint64(0), node.View.Load().LastFinalized(quorum.SnapshotStream))
		unittest.RequireCloseBefore(t, node.Done(), 10*time.Second, "node should stop")
	})
}
