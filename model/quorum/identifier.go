package quorum

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// FingerprintLen is the length in bytes of a gossip message fingerprint.
const FingerprintLen = 16

// Fingerprint is the 128-bit content hash of an encoded gossip message. Together with
// the sending peer it forms the de-duplication key of the message cache.
type Fingerprint [FingerprintLen]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Hash is the 256-bit Keccak digest of an artifact payload.
type Hash [32]byte

// ZeroHash is the hash with all bytes zero.
var ZeroHash = Hash{}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashPayload computes the Keccak-256 digest of the given payload.
func HashPayload(payload []byte) Hash {
	var h Hash
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write(payload)
	copy(h[:], hasher.Sum(nil))
	return h
}

// PeerID identifies a peer of the gossip network. It is opaque to the core; the libp2p
// network layer uses the string form of libp2p peer IDs.
type PeerID string

func (p PeerID) String() string {
	return string(p)
}

// Kind is the type of artifact being agreed upon.
type Kind uint8

const (
	// KindSnapshot is an order-book state checkpoint.
	KindSnapshot Kind = iota + 1
	// KindBridge is a cross-chain bridge message.
	KindBridge
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindBridge:
		return "bridge"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Network identifies the chain a bridge message originated from.
type Network uint8

// NativeNetwork is the network identifier of the chain the validators run on.
const NativeNetwork Network = 0

// Stream is the unit of linearizable finalization: sequence numbers are strictly
// increasing and gap-free per (artifact kind, network).
type Stream struct {
	Kind    Kind
	Network Network
}

// SnapshotStream is the single stream of order-book checkpoints.
var SnapshotStream = Stream{Kind: KindSnapshot, Network: NativeNetwork}

// BridgeStream returns the stream of bridge messages originating from the given network.
func BridgeStream(network Network) Stream {
	return Stream{Kind: KindBridge, Network: network}
}

func (s Stream) String() string {
	return fmt.Sprintf("%s/%d", s.Kind, s.Network)
}
