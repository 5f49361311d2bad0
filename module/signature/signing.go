package signature

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/attestnet/attest/model/encoding"
	"github.com/attestnet/attest/model/quorum"
)

// Signer produces partial signatures with the local validator key.
type Signer interface {
	Sign(msg []byte) ([]byte, error)
}

// Verifier checks a single partial signature against a public key. Malformed or
// mismatching signatures yield false without error.
type Verifier interface {
	Verify(sig []byte, msg []byte, pubkey []byte) (bool, error)
}

// Message returns the digest validators sign for a payload at a given sequence of a
// stream: Keccak-256 over the domain tag of the stream kind, the stream, the sequence,
// the epoch and the payload hash. Binding the sequence and the epoch prevents replaying
// an endorsement at another position or under another authority set.
func Message(stream quorum.Stream, seq uint64, epoch uint64, payloadHash quorum.Hash) []byte {
	tag := encoding.SnapshotVoteTag
	if stream.Kind == quorum.KindBridge {
		tag = encoding.BridgeVoteTag
	}

	buf := make([]byte, 0, len(tag)+2+8+8+len(payloadHash))
	buf = append(buf, tag...)
	buf = append(buf, byte(stream.Kind), byte(stream.Network))
	buf = binary.BigEndian.AppendUint64(buf, seq)
	buf = binary.BigEndian.AppendUint64(buf, epoch)
	buf = append(buf, payloadHash[:]...)

	digest := quorum.HashPayload(buf)
	return digest[:]
}

// PartialMessage returns the signed digest of the partial.
func PartialMessage(p *quorum.Partial) []byte {
	return Message(p.Stream, p.Sequence, p.Epoch, p.PayloadHash())
}

// LocalSigner signs with a secp256k1 private key.
type LocalSigner struct {
	key *btcec.PrivateKey
}

var _ Signer = (*LocalSigner)(nil)

func NewLocalSigner(key *btcec.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key}
}

// Sign returns the DER encoded ECDSA signature of the 32-byte digest.
func (s *LocalSigner) Sign(msg []byte) ([]byte, error) {
	if len(msg) != len(quorum.Hash{}) {
		return nil, fmt.Errorf("expected %d byte digest, got %d: %w", len(quorum.Hash{}), len(msg), ErrInvalidInputs)
	}
	return ecdsa.Sign(s.key, msg).Serialize(), nil
}

// PublicKey returns the compressed public key, as listed in authority sets.
func (s *LocalSigner) PublicKey() []byte {
	return s.key.PubKey().SerializeCompressed()
}

// ECDSAVerifier verifies DER encoded secp256k1 signatures.
type ECDSAVerifier struct{}

var _ Verifier = (*ECDSAVerifier)(nil)

func NewECDSAVerifier() *ECDSAVerifier {
	return &ECDSAVerifier{}
}

// Verify returns an error only if the public key cannot be parsed.
func (v *ECDSAVerifier) Verify(sig []byte, msg []byte, pubkey []byte) (bool, error) {
	pub, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return false, fmt.Errorf("could not parse public key: %w", err)
	}

	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false, nil
	}

	return parsed.Verify(msg, pub), nil
}

// SignPartial endorses the payload at the given position with the local signer.
func SignPartial(signer Signer, index uint32, stream quorum.Stream, seq uint64, epoch uint64, payload []byte) (*quorum.Partial, error) {
	p := &quorum.Partial{
		Stream:      stream,
		Sequence:    seq,
		Epoch:       epoch,
		Payload:     payload,
		SignerIndex: index,
	}

	sig, err := signer.Sign(PartialMessage(p))
	if err != nil {
		return nil, fmt.Errorf("could not sign partial for %s: %w", p, err)
	}
	p.Signature = sig

	return p, nil
}
