package unittest

import (
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
)

// GetPRG returns a deterministic math/rand PRG that can be used for deterministic randomness in tests only.
// The PRG seed is logged in case the test iteration needs to be reproduced.
func GetPRG(t *testing.T) *rand.Rand {
	random := time.Now().UnixNano()
	t.Logf("rng seed is %d", random)
	rng := rand.New(rand.NewSource(random))
	return rng
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	read, err := crand.Read(b)
	if err != nil {
		panic("cannot read random bytes")
	}
	if read != n {
		panic(fmt.Errorf("random bytes read length mismatch: read %d, expected %d", read, n))
	}
	return b
}

// PeerIDFixture returns a random peer identity.
func PeerIDFixture() quorum.PeerID {
	return quorum.PeerID(fmt.Sprintf("peer-%x", RandomBytes(8)))
}

// PeerIDFixtures returns n distinct random peer identities.
func PeerIDFixtures(n int) []quorum.PeerID {
	peers := make([]quorum.PeerID, 0, n)
	for i := 0; i < n; i++ {
		peers = append(peers, PeerIDFixture())
	}
	return peers
}

func HashFixture() quorum.Hash {
	var h quorum.Hash
	copy(h[:], RandomBytes(len(h)))
	return h
}

func SnapshotFixture(opts ...func(*quorum.Snapshot)) *quorum.Snapshot {
	s := &quorum.Snapshot{
		SnapshotID:         rand.Uint64()%1000 + 1,
		StateChangeID:      rand.Uint64()%1000 + 1,
		LastProcessedBlock: rand.Uint32(),
		WorkerNonce:        rand.Uint64()%1000 + 1,
		StateRoot:          HashFixture(),
		StateVersion:       1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithStateChangeID(id uint64) func(*quorum.Snapshot) {
	return func(s *quorum.Snapshot) {
		s.StateChangeID = id
	}
}

func WithWorkerNonce(nonce uint64) func(*quorum.Snapshot) {
	return func(s *quorum.Snapshot) {
		s.WorkerNonce = nonce
	}
}

func BridgeMessageFixture(opts ...func(*quorum.BridgeMessage)) *quorum.BridgeMessage {
	m := &quorum.BridgeMessage{
		BlockNo:         rand.Uint64()%1000 + 1,
		Nonce:           rand.Uint64()%1000 + 1,
		Data:            RandomBytes(32),
		Network:         quorum.Network(1),
		ValidatorSetID:  0,
		ValidatorSetLen: 3,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func WithNonce(nonce uint64) func(*quorum.BridgeMessage) {
	return func(m *quorum.BridgeMessage) {
		m.Nonce = nonce
	}
}

func WithNetwork(network quorum.Network) func(*quorum.BridgeMessage) {
	return func(m *quorum.BridgeMessage) {
		m.Network = network
	}
}

func WithValidatorSetID(epoch uint64) func(*quorum.BridgeMessage) {
	return func(m *quorum.BridgeMessage) {
		m.ValidatorSetID = epoch
	}
}

func CheckpointVoteFixture(opts ...func(*messages.CheckpointVote)) *messages.CheckpointVote {
	v := &messages.CheckpointVote{
		Sequence: rand.Uint64()%1000 + 1,
		Epoch:    0,
		Payload:  SnapshotFixture().Encode(),
		Signatures: map[uint32][]byte{
			uint32(rand.Intn(10)): RandomBytes(72),
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func WithVoteSequence(seq uint64) func(*messages.CheckpointVote) {
	return func(v *messages.CheckpointVote) {
		v.Sequence = seq
	}
}

func WithVoteEpoch(epoch uint64) func(*messages.CheckpointVote) {
	return func(v *messages.CheckpointVote) {
		v.Epoch = epoch
	}
}

func WithReset() func(*messages.CheckpointVote) {
	return func(v *messages.CheckpointVote) {
		v.Reset = true
	}
}

func WithAggregate() func(*messages.CheckpointVote) {
	return func(v *messages.CheckpointVote) {
		v.Aggregate = RandomBytes(144)
	}
}

func BridgeVoteFixture(opts ...func(*quorum.BridgeMessage)) *messages.BridgeVote {
	return messages.NewBridgeVote(BridgeMessageFixture(opts...), uint32(rand.Intn(10)), RandomBytes(72))
}

func WantNonceFixture() *messages.WantNonce {
	from := rand.Uint64()%1000 + 1
	return &messages.WantNonce{
		From:  from,
		To:    from + 10,
		Epoch: 0,
	}
}

func WantFixture(id uint64) *messages.Want {
	return &messages.Want{ArtifactID: id}
}

func HaveFixture(id uint64) *messages.Have {
	return &messages.Have{ArtifactID: id, Total: 3, Bitmap: []uint64{0b111}}
}

func RequestChunkFixture(id uint64) *messages.RequestChunk {
	return &messages.RequestChunk{ArtifactID: id, Bitmap: []uint64{0b101}}
}

func ChunkFixture(id uint64) *messages.Chunk {
	return &messages.Chunk{ArtifactID: id, Index: uint16(rand.Intn(3)), Data: RandomBytes(128)}
}

// GossipMessageFixtures returns one populated instance of every gossip message variant.
func GossipMessageFixtures() []interface{} {
	return []interface{}{
		CheckpointVoteFixture(),
		CheckpointVoteFixture(WithReset(), WithAggregate()),
		WantNonceFixture(),
		WantFixture(rand.Uint64()),
		HaveFixture(rand.Uint64()),
		RequestChunkFixture(rand.Uint64()),
		ChunkFixture(rand.Uint64()),
		BridgeVoteFixture(),
	}
}

// RequireNoDuplicates requires that the given peers are distinct.
func RequireNoDuplicates(t testing.TB, peers []quorum.PeerID) {
	seen := make(map[quorum.PeerID]struct{}, len(peers))
	for _, p := range peers {
		_, ok := seen[p]
		require.False(t, ok, "duplicate peer %s", p)
		seen[p] = struct{}{}
	}
}
