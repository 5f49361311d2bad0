package operation

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/attestnet/attest/module/irrecoverable"
	"github.com/attestnet/attest/storage"
)

// insert will encode the given entity and insert the resulting binary data in the
// badger DB under the provided key. It will error if the key already exists.
// Expected error returns during normal operations:
//   - storage.ErrAlreadyExists if the key already exists in the database.
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		// check if the key already exists in the db
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}

		if !errors.Is(err, badger.ErrKeyNotFound) {
			return irrecoverable.NewExceptionf("could not retrieve key: %w", err)
		}

		val, err := encodeEntity(entity)
		if err != nil {
			return err
		}

		// persist the entity data into the DB
		err = tx.Set(key, val)
		if err != nil {
			return irrecoverable.NewExceptionf("could not store data: %w", err)
		}
		return nil
	}
}

// upsert will encode the given entity and store it under the given key, replacing
// any previous value.
// No errors are expected during normal operation.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		val, err := encodeEntity(entity)
		if err != nil {
			return err
		}

		err = tx.Set(key, val)
		if err != nil {
			return irrecoverable.NewExceptionf("could not upsert data: %w", err)
		}
		return nil
	}
}

// retrieve will retrieve the binary data under the given key from the badger DB
// and decode it into the given entity. The provided entity needs to be a
// pointer to an initialized entity of the correct type.
// Expected error returns during normal operations:
//   - storage.ErrNotFound if the key does not exist in the database
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		// retrieve the item from the key-value store
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return irrecoverable.NewExceptionf("could not load data: %w", err)
		}

		err = item.Value(func(val []byte) error {
			return decodeValue(val, entity)
		})
		if err != nil {
			return fmt.Errorf("could not decode entity: %w", err)
		}
		return nil
	}
}

// exists returns true if a key exists in the database.
// No errors are expected during normal operation.
func exists(key []byte, keyExists *bool) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err != nil {
			// the key does not exist in the database
			if errors.Is(err, badger.ErrKeyNotFound) {
				*keyExists = false
				return nil
			}
			// exception while checking for the key
			return irrecoverable.NewExceptionf("could not load data: %w", err)
		}

		// the key does exist in the database
		*keyExists = true
		return nil
	}
}

// traverse iterates over all keys sharing the prefix, in ascending key order, and
// calls handle with each decoded value. The create function returns the decode
// target for the next value.
func traverse(prefix []byte, create func() interface{}, handle func(key []byte) error) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		if len(prefix) == 0 {
			return fmt.Errorf("prefix must not be empty")
		}

		opts := badger.DefaultIteratorOptions
		// NOTE: this is an optimization only, it does not enforce that all
		// results in the iteration have this prefix.
		opts.Prefix = prefix

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)

			entity := create()
			err := item.Value(func(val []byte) error {
				return decodeValue(val, entity)
			})
			if err != nil {
				return fmt.Errorf("could not decode value of key %x: %w", key, err)
			}

			err = handle(key)
			if err != nil {
				return fmt.Errorf("could not handle entity: %w", err)
			}
		}

		return nil
	}
}
