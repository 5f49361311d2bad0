package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/attestnet/attest/model/quorum"
)

const (

	// codes for special database markers
	codeDBVersion = 1

	// codes for ledger state
	codeFinalizedSequence = 10 // stream -> last finalized sequence
	codeAuthoritySet      = 11 // epoch -> authority set
	codeCurrentEpoch      = 12 // current epoch
	codeLatestSnapshot    = 13 // latest finalized snapshot

	// codes for artifacts
	codeArtifact = 20 // stream, sequence -> finalized artifact
	codePayload  = 21 // artifact id -> payload, for chunk serving
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, keyPartToBinary(key)...)
	}
	return prefix
}

func keyPartToBinary(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case quorum.Stream:
		return []byte{byte(i.Kind), byte(i.Network)}
	case quorum.Hash:
		return i[:]
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
