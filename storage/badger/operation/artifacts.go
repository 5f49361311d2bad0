package operation

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v2"

	"github.com/attestnet/attest/model/quorum"
)

// InsertArtifact stores a finalized artifact by stream and sequence.
// Returns storage.ErrAlreadyExists if an artifact is stored at that position.
func InsertArtifact(artifact *quorum.Artifact) func(*badger.Txn) error {
	return insert(makePrefix(codeArtifact, artifact.Stream, artifact.Sequence), artifact)
}

// RetrieveArtifact retrieves the finalized artifact at the sequence of the stream.
// Returns storage.ErrNotFound if none is stored.
func RetrieveArtifact(stream quorum.Stream, seq uint64, artifact *quorum.Artifact) func(*badger.Txn) error {
	return retrieve(makePrefix(codeArtifact, stream, seq), artifact)
}

// ArtifactExists checks whether an artifact is stored at the sequence of the stream.
func ArtifactExists(stream quorum.Stream, seq uint64, found *bool) func(*badger.Txn) error {
	return exists(makePrefix(codeArtifact, stream, seq), found)
}

// TraverseArtifacts calls handle with every finalized artifact of the stream in
// ascending sequence order.
func TraverseArtifacts(stream quorum.Stream, handle func(seq uint64, artifact *quorum.Artifact) error) func(*badger.Txn) error {
	prefix := makePrefix(codeArtifact, stream)
	var artifact *quorum.Artifact
	create := func() interface{} {
		artifact = &quorum.Artifact{}
		return artifact
	}
	return traverse(prefix, create, func(key []byte) error {
		seq := binary.BigEndian.Uint64(key[len(prefix):])
		return handle(seq, artifact)
	})
}

// UpsertPayload stores the payload that can be served for the artifact id.
func UpsertPayload(id uint64, payload []byte) func(*badger.Txn) error {
	return upsert(makePrefix(codePayload, id), payload)
}

// RetrievePayload returns storage.ErrNotFound if no payload is stored for the id.
func RetrievePayload(id uint64, payload *[]byte) func(*badger.Txn) error {
	return retrieve(makePrefix(codePayload, id), payload)
}
