package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/storage"
	"github.com/attestnet/attest/storage/badger/operation"
)

// ErrEpochNotIncreasing is returned when a set is activated whose epoch does not
// follow the current one.
var ErrEpochNotIncreasing = errors.New("authority set epoch must increase")

// AuthoritySets stores every authority set the ledger activated, by epoch. Sets are
// immutable once stored, so reads are served from a cache.
type AuthoritySets struct {
	db    *badger.DB
	cache *Cache[uint64, *quorum.AuthoritySet]
}

func NewAuthoritySets(collector module.CacheMetrics, db *badger.DB) *AuthoritySets {
	retrieve := func(epoch uint64) func(*badger.Txn) (*quorum.AuthoritySet, error) {
		return func(tx *badger.Txn) (*quorum.AuthoritySet, error) {
			var set *quorum.AuthoritySet
			err := operation.RetrieveAuthoritySet(epoch, &set)(tx)
			return set, err
		}
	}

	return &AuthoritySets{
		db: db,
		cache: newCache[uint64, *quorum.AuthoritySet](collector, metrics.ResourceAuthoritySet,
			withLimit[uint64, *quorum.AuthoritySet](16),
			withRetrieve(retrieve),
		),
	}
}

// ByEpoch returns the set of the epoch.
// Expected error returns during normal operations:
//   - storage.ErrNotFound if no set was activated for the epoch
func (a *AuthoritySets) ByEpoch(epoch uint64) (*quorum.AuthoritySet, error) {
	tx := a.db.NewTransaction(false)
	defer tx.Discard()
	return a.cache.Get(epoch)(tx)
}

// Current returns the last activated set.
// Expected error returns during normal operations:
//   - storage.ErrNotFound if no set was activated yet
func (a *AuthoritySets) Current() (*quorum.AuthoritySet, error) {
	tx := a.db.NewTransaction(false)
	defer tx.Discard()

	var epoch uint64
	err := operation.RetrieveCurrentEpoch(&epoch)(tx)
	if err != nil {
		return nil, err
	}
	return a.cache.Get(epoch)(tx)
}

// Activate stores the set and makes it the current one.
// Expected error returns during normal operations:
//   - ErrEpochNotIncreasing if the epoch is not above the current one
func (a *AuthoritySets) Activate(set *quorum.AuthoritySet) error {
	err := a.db.Update(func(tx *badger.Txn) error {
		var current uint64
		err := operation.RetrieveCurrentEpoch(&current)(tx)
		if err == nil && set.Epoch() <= current {
			return fmt.Errorf("%w: cannot activate epoch %d after %d", ErrEpochNotIncreasing, set.Epoch(), current)
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not retrieve current epoch: %w", err)
		}

		err = operation.InsertAuthoritySet(set)(tx)
		if err != nil {
			return fmt.Errorf("could not insert authority set: %w", err)
		}
		return operation.UpsertCurrentEpoch(set.Epoch())(tx)
	})
	if err != nil {
		return err
	}

	a.cache.Insert(set.Epoch(), set)
	return nil
}
