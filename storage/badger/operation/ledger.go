package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/attestnet/attest/model/quorum"
)

// storedAuthoritySet is the storage form of an authority set, whose fields are unexported.
type storedAuthoritySet struct {
	Epoch uint64
	Keys  [][]byte
}

// InsertDBVersion stores the version of the database schema.
func InsertDBVersion(version uint32) func(*badger.Txn) error {
	return insert(makePrefix(codeDBVersion), version)
}

func RetrieveDBVersion(version *uint32) func(*badger.Txn) error {
	return retrieve(makePrefix(codeDBVersion), version)
}

// UpsertFinalizedSequence stores the last finalized sequence of the stream.
func UpsertFinalizedSequence(stream quorum.Stream, seq uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeFinalizedSequence, stream), seq)
}

// RetrieveFinalizedSequence retrieves the last finalized sequence of the stream.
// Returns storage.ErrNotFound if nothing was finalized in the stream.
func RetrieveFinalizedSequence(stream quorum.Stream, seq *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeFinalizedSequence, stream), seq)
}

// InsertAuthoritySet stores an authority set by epoch.
// Returns storage.ErrAlreadyExists if a set was already stored for the epoch.
func InsertAuthoritySet(set *quorum.AuthoritySet) func(*badger.Txn) error {
	return insert(makePrefix(codeAuthoritySet, set.Epoch()), storedAuthoritySet{Epoch: set.Epoch(), Keys: set.Keys()})
}

// RetrieveAuthoritySet retrieves the authority set of the epoch.
// Returns storage.ErrNotFound if no set is stored for the epoch.
func RetrieveAuthoritySet(epoch uint64, set **quorum.AuthoritySet) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var stored storedAuthoritySet
		err := retrieve(makePrefix(codeAuthoritySet, epoch), &stored)(tx)
		if err != nil {
			return err
		}
		*set = quorum.NewAuthoritySet(stored.Epoch, stored.Keys)
		return nil
	}
}

func UpsertCurrentEpoch(epoch uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeCurrentEpoch), epoch)
}

// RetrieveCurrentEpoch returns storage.ErrNotFound before the first authority set.
func RetrieveCurrentEpoch(epoch *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeCurrentEpoch), epoch)
}

func UpsertLatestSnapshot(snapshot *quorum.Snapshot) func(*badger.Txn) error {
	return upsert(makePrefix(codeLatestSnapshot), snapshot)
}

// RetrieveLatestSnapshot returns storage.ErrNotFound before the first snapshot.
func RetrieveLatestSnapshot(snapshot *quorum.Snapshot) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLatestSnapshot), snapshot)
}
