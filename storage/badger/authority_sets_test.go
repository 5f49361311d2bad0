package badger_test

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/storage"
	badgerstorage "github.com/attestnet/attest/storage/badger"
	"github.com/attestnet/attest/utils/unittest"
)

func TestAuthoritySets_Activate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		sets := badgerstorage.NewAuthoritySets(metrics.NewNoopCollector(), db)

		_, err := sets.Current()
		require.ErrorIs(t, err, storage.ErrNotFound)

		genesis, _ := unittest.AuthoritySetFixture(t, 1, 4)
		require.NoError(t, sets.Activate(genesis))

		current, err := sets.Current()
		require.NoError(t, err)
		assert.Equal(t, genesis.Keys(), current.Keys())

		next, _ := unittest.AuthoritySetFixture(t, 2, 5)
		require.NoError(t, sets.Activate(next))

		current, err = sets.Current()
		require.NoError(t, err)
		assert.Equal(t, uint64(2), current.Epoch())

		// previous sets stay readable
		previous, err := sets.ByEpoch(1)
		require.NoError(t, err)
		assert.Equal(t, genesis.Keys(), previous.Keys())

		_, err = sets.ByEpoch(3)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestAuthoritySets_EpochMustIncrease(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		sets := badgerstorage.NewAuthoritySets(metrics.NewNoopCollector(), db)

		set, _ := unittest.AuthoritySetFixture(t, 5, 3)
		require.NoError(t, sets.Activate(set))

		stale, _ := unittest.AuthoritySetFixture(t, 4, 3)
		require.ErrorIs(t, sets.Activate(stale), badgerstorage.ErrEpochNotIncreasing)

		same, _ := unittest.AuthoritySetFixture(t, 5, 3)
		require.ErrorIs(t, sets.Activate(same), badgerstorage.ErrEpochNotIncreasing)
	})
}

// TestAuthoritySets_ReadThrough checks that a fresh store reads sets written by another.
func TestAuthoritySets_ReadThrough(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		set, _ := unittest.AuthoritySetFixture(t, 1, 3)
		require.NoError(t, badgerstorage.NewAuthoritySets(metrics.NewNoopCollector(), db).Activate(set))

		reader := badgerstorage.NewAuthoritySets(metrics.NewNoopCollector(), db)
		current, err := reader.Current()
		require.NoError(t, err)
		assert.Equal(t, set.Keys(), current.Keys())
	})
}
