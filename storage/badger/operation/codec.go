package operation

import (
	"errors"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/attestnet/attest/module/irrecoverable"
)

var errUncompressedValue = errors.New("could not uncompress data")

// encodeEntity encodes the given entity using msgpack and compresses it with snappy.
// possible error to return is irrecoverable.exception
func encodeEntity(entity interface{}) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, irrecoverable.NewExceptionf("could not encode entity: %w", err)
	}

	return snappy.Encode(nil, val), nil
}

// decodeValue uncompresses the given value and decodes it into the given entity.
// possible error to return is irrecoverable.exception
func decodeValue(val []byte, entity interface{}) error {
	uncompressed, err := snappy.Decode(nil, val)
	if err != nil {
		return irrecoverable.NewExceptionf("%s: %w", err, errUncompressedValue)
	}

	err = msgpack.Unmarshal(uncompressed, entity)
	if err != nil {
		return irrecoverable.NewExceptionf("could not decode entity: %w", err)
	}
	return nil
}
