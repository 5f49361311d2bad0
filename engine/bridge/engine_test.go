package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/attestnet/attest/engine"
	bridgemock "github.com/attestnet/attest/engine/bridge/mock"
	mockledger "github.com/attestnet/attest/ledger/mock"
	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/module/signature"
	"github.com/attestnet/attest/network"
	gossipmock "github.com/attestnet/attest/network/gossip/mock"
	"github.com/attestnet/attest/utils/unittest"
)

const foreign = quorum.Network(1)

type EngineSuite struct {
	suite.Suite

	set       *quorum.AuthoritySet
	keys      []*btcec.PrivateKey
	view      *ledgerview.LedgerView
	conduit   *gossipmock.Conduit
	reader    *mockledger.Ledger
	submitter *mockledger.Ledger
	connector *bridgemock.ForeignChainConnector
	engine    *Engine
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// SetupTest creates four authorities, hence a threshold of three, with foreign nonce 10
// and native nonce 4 processed. The local node signs with the first key.
func (s *EngineSuite) SetupTest() {
	s.set, s.keys = unittest.AuthoritySetFixture(s.T(), 1, 4)
	s.view = ledgerview.New(unittest.Logger(), s.set)
	s.view.Advance(quorum.BridgeStream(foreign), 10)
	s.view.Advance(quorum.BridgeStream(quorum.NativeNetwork), 4)

	s.conduit = gossipmock.NewConduit(s.T())
	s.reader = mockledger.NewLedger(s.T())
	s.submitter = mockledger.NewLedger(s.T())
	s.connector = bridgemock.NewForeignChainConnector(s.T())
	s.engine = s.newEngine(s.keys[0])
}

func (s *EngineSuite) newEngine(key *btcec.PrivateKey, opts ...Option) *Engine {
	registry := gossipmock.NewEngineRegistry(s.T())
	validator := gossipmock.NewValidator(s.T())
	registry.On("Register", network.BridgeTopic, validator, mock.Anything).Return(s.conduit, nil).Once()

	config := DefaultConfig()
	config.RefreshInterval = time.Hour
	config.PollInterval = time.Hour

	e, err := New(
		unittest.Logger(),
		metrics.NewNoopCollector(),
		registry,
		validator,
		s.reader,
		s.submitter,
		s.view,
		s.connector,
		signature.NewLocalSigner(key),
		signature.NewECDSAVerifier(),
		config,
		opts...,
	)
	require.NoError(s.T(), err)
	return e
}

// message returns the message at the nonce as every authority of epoch 1 stamps it.
func message(network quorum.Network, nonce uint64) *quorum.BridgeMessage {
	return &quorum.BridgeMessage{
		BlockNo:         100 + nonce,
		Nonce:           nonce,
		Data:            []byte{0xb, 0x1, 0xd, byte(nonce)},
		Network:         network,
		ValidatorSetID:  1,
		ValidatorSetLen: 4,
	}
}

func vote(t testing.TB, key *btcec.PrivateKey, index int, msg *quorum.BridgeMessage) *messages.BridgeVote {
	p, err := signature.SignPartial(signature.NewLocalSigner(key), uint32(index), msg.Stream(), msg.Nonce, msg.ValidatorSetID, msg.Encode())
	require.NoError(t, err)
	return messages.NewBridgeVote(msg, uint32(index), p.Signature)
}

func partialVote(network quorum.Network, nonce uint64, epoch uint64) interface{} {
	return mock.MatchedBy(func(v *messages.BridgeVote) bool {
		return v.Message.Network == network && v.Message.Nonce == nonce && v.Message.ValidatorSetID == epoch && !v.Final()
	})
}

func finalVote(network quorum.Network, nonce uint64) interface{} {
	return mock.MatchedBy(func(v *messages.BridgeVote) bool {
		return v.Message.Network == network && v.Message.Nonce == nonce && v.Final()
	})
}

func (s *EngineSuite) aggregator(network quorum.Network) *signature.Aggregator {
	aggregator, ok := s.engine.Aggregator(network)
	require.True(s.T(), ok)
	return aggregator
}

func (s *EngineSuite) TestNew_NativeForeignNetwork() {
	config := DefaultConfig()
	config.ForeignNetwork = quorum.NativeNetwork
	_, err := New(unittest.Logger(), metrics.NewNoopCollector(), gossipmock.NewEngineRegistry(s.T()), gossipmock.NewValidator(s.T()),
		s.reader, s.submitter, s.view, s.connector, signature.NewLocalSigner(s.keys[0]), signature.NewECDSAVerifier(), config)
	require.Error(s.T(), err)
}

// the next foreign message is stamped with the active set, endorsed once and broadcast
func (s *EngineSuite) TestPoll() {
	s.connector.On("ReadEvents", mock.Anything, uint64(10)).Return(func(context.Context, uint64) (*quorum.BridgeMessage, error) {
		msg := message(foreign, 11)
		msg.ValidatorSetID = 0
		msg.ValidatorSetLen = 0
		return msg, nil
	}).Twice()
	s.conduit.On("Publish", mock.Anything, partialVote(foreign, 11, 1)).Return(nil).Once()

	s.engine.poll()
	s.engine.poll()

	artifact, ok := s.aggregator(foreign).Artifact(11, quorum.HashPayload(message(foreign, 11).Encode()))
	require.True(s.T(), ok)
	assert.Equal(s.T(), []uint32{0}, artifact.SignerIndexes())
}

func (s *EngineSuite) TestPoll_NothingNew() {
	s.connector.On("ReadEvents", mock.Anything, uint64(10)).Return(nil, nil).Once()
	s.engine.poll()
	assert.False(s.T(), s.aggregator(foreign).Unfinalized(11))
}

func (s *EngineSuite) TestPoll_SkippedNonce() {
	s.connector.On("ReadEvents", mock.Anything, uint64(10)).Return(message(foreign, 12), nil).Once()
	s.engine.poll()
	assert.False(s.T(), s.aggregator(foreign).Unfinalized(12))
}

// native messages are held back until the foreign chain knows the authority set
func (s *EngineSuite) TestPoll_NativeHeldBack() {
	native := bridgemock.NewForeignChainConnector(s.T())
	s.engine = s.newEngine(s.keys[0], WithNativeSource(native))

	s.connector.On("ReadEvents", mock.Anything, uint64(10)).Return(nil, nil)
	s.connector.On("CheckAuthorityInitialization", mock.Anything).Return(false, nil).Once()
	s.engine.poll()

	s.connector.On("CheckAuthorityInitialization", mock.Anything).Return(true, nil).Once()
	native.On("ReadEvents", mock.Anything, uint64(4)).Return(message(quorum.NativeNetwork, 5), nil).Once()
	s.conduit.On("Publish", mock.Anything, partialVote(quorum.NativeNetwork, 5, 1)).Return(nil).Once()
	s.engine.poll()

	assert.True(s.T(), s.aggregator(quorum.NativeNetwork).Unfinalized(5))
}

// a message proposed by a peer is co-signed once it is observed at its origin
func (s *EngineSuite) TestCosign() {
	msg := message(foreign, 11)
	s.connector.On("CheckMessage", mock.Anything, mock.MatchedBy(func(m *quorum.BridgeMessage) bool {
		return m.Nonce == 11
	})).Return(true, nil).Once()
	s.conduit.On("Publish", mock.Anything, partialVote(foreign, 11, 1)).Return(nil).Once()

	require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), vote(s.T(), s.keys[1], 1, msg)))

	artifact, ok := s.aggregator(foreign).Artifact(11, quorum.HashPayload(msg.Encode()))
	require.True(s.T(), ok)
	assert.Equal(s.T(), []uint32{0, 1}, artifact.SignerIndexes())
}

func (s *EngineSuite) TestCosign_NotObserved() {
	msg := message(foreign, 11)
	s.connector.On("CheckMessage", mock.Anything, mock.Anything).Return(false, nil).Once()

	require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), vote(s.T(), s.keys[1], 1, msg)))

	artifacts := s.aggregator(foreign).Artifacts(11)
	require.Len(s.T(), artifacts, 1)
	assert.Equal(s.T(), []uint32{1}, artifacts[0].SignerIndexes())
}

// votes for later nonces are merged without asking the origin
func (s *EngineSuite) TestCosign_NotNext() {
	require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), vote(s.T(), s.keys[1], 1, message(foreign, 12))))
	assert.True(s.T(), s.aggregator(foreign).Unfinalized(12))
}

func (s *EngineSuite) TestInvalidVote() {
	v := vote(s.T(), s.keys[1], 1, message(foreign, 11))
	v.Signatures[1] = unittest.RandomBytes(70)

	err := s.engine.onVote(context.Background(), unittest.PeerIDFixture(), v)
	require.True(s.T(), engine.IsInvalidInputError(err))

	v = vote(s.T(), s.keys[1], 1, message(quorum.Network(7), 11))
	err = s.engine.onVote(context.Background(), unittest.PeerIDFixture(), v)
	require.True(s.T(), engine.IsInvalidInputError(err))
}

// a foreign message at threshold is broadcast, submitted to the ledger and marked processed
func (s *EngineSuite) TestFinalization_Foreign() {
	msg := message(foreign, 11)
	s.connector.On("ReadEvents", mock.Anything, uint64(10)).Return(message(foreign, 11), nil).Once()
	s.conduit.On("Publish", mock.Anything, partialVote(foreign, 11, 1)).Return(nil).Once()
	s.engine.poll()

	for i := 1; i < 3; i++ {
		require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), vote(s.T(), s.keys[i], i, msg)))
	}
	assert.Equal(s.T(), uint64(11), s.aggregator(foreign).Finalized())

	artifact, ok := s.engine.finalized.Pop()
	require.True(s.T(), ok)

	s.conduit.On("Publish", mock.Anything, finalVote(foreign, 11)).Return(nil).Once()
	s.submitter.On("SubmitFinalized", mock.Anything, artifact).Return(nil).Once()
	s.engine.processFinalized(context.Background(), artifact)

	assert.Equal(s.T(), uint64(11), s.view.Load().LastFinalized(quorum.BridgeStream(foreign)))
}

// a native message at threshold is delivered to the foreign chain
func (s *EngineSuite) TestFinalization_Native() {
	msg := message(quorum.NativeNetwork, 5)
	for i := 1; i < 4; i++ {
		require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), vote(s.T(), s.keys[i], i, msg)))
	}

	artifact, ok := s.engine.finalized.Pop()
	require.True(s.T(), ok)

	s.conduit.On("Publish", mock.Anything, finalVote(quorum.NativeNetwork, 5)).Return(nil).Once()
	s.connector.On("SendTransaction", mock.Anything, finalVote(quorum.NativeNetwork, 5)).Return(nil).Once()
	s.engine.processFinalized(context.Background(), artifact)

	assert.Equal(s.T(), uint64(5), s.view.Load().LastFinalized(quorum.BridgeStream(quorum.NativeNetwork)))
}

// a failed delivery leaves the nonce unprocessed
func (s *EngineSuite) TestFinalization_DeliveryFailed() {
	msg := message(quorum.NativeNetwork, 5)
	for i := 1; i < 4; i++ {
		require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), vote(s.T(), s.keys[i], i, msg)))
	}
	artifact, _ := s.engine.finalized.Pop()

	s.conduit.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	s.connector.On("SendTransaction", mock.Anything, mock.Anything).Return(errors.New("rpc unavailable")).Once()
	s.engine.processFinalized(context.Background(), artifact)

	assert.Equal(s.T(), uint64(4), s.view.Load().LastFinalized(quorum.BridgeStream(quorum.NativeNetwork)))
}

func (s *EngineSuite) TestFinalVote() {
	msg := message(foreign, 11)
	final := vote(s.T(), s.keys[1], 1, msg)
	for i := 2; i < 4; i++ {
		final.Signatures[uint32(i)] = vote(s.T(), s.keys[i], i, msg).Signatures[uint32(i)]
	}
	aggregate, err := signature.NewCombiner().Aggregate(final.Signatures)
	require.NoError(s.T(), err)
	final.Aggregate = aggregate

	require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), final))
	assert.Equal(s.T(), uint64(11), s.aggregator(foreign).Finalized())
	assert.Equal(s.T(), 1, s.engine.finalized.Len())

	// replays are ignored
	require.NoError(s.T(), s.engine.onVote(context.Background(), unittest.PeerIDFixture(), final))
	assert.Equal(s.T(), 1, s.engine.finalized.Len())

	tampered := *final
	tampered.Message.Nonce = 12
	err = s.engine.onVote(context.Background(), unittest.PeerIDFixture(), &tampered)
	require.True(s.T(), engine.IsInvalidInputError(err))
}

// the native stream follows the nonce the foreign chain processed last
func (s *EngineSuite) TestSync_Native() {
	s.engine = s.newEngine(s.keys[0], WithNativeSource(bridgemock.NewForeignChainConnector(s.T())))
	s.connector.On("LastProcessedNonceFromNative", mock.Anything).Return(uint64(7), nil).Once()

	s.engine.sync()
	assert.Equal(s.T(), uint64(7), s.view.Load().LastFinalized(quorum.BridgeStream(quorum.NativeNetwork)))
	assert.Equal(s.T(), uint64(7), s.aggregator(quorum.NativeNetwork).Finalized())
}

// after a rotation the pending message is endorsed again under the new set
func (s *EngineSuite) TestRotation() {
	s.connector.On("ReadEvents", mock.Anything, uint64(10)).Return(func(context.Context, uint64) (*quorum.BridgeMessage, error) {
		return message(foreign, 11), nil
	}).Twice()
	s.conduit.On("Publish", mock.Anything, partialVote(foreign, 11, 1)).Return(nil).Once()
	s.engine.poll()

	next := quorum.NewAuthoritySet(2, s.set.Keys())
	require.NoError(s.T(), s.engine.OnRotation(next))
	assert.Equal(s.T(), uint64(2), s.aggregator(foreign).Epoch())
	assert.Equal(s.T(), uint64(2), s.aggregator(quorum.NativeNetwork).Epoch())
	assert.False(s.T(), s.aggregator(foreign).Unfinalized(11))

	s.conduit.On("Publish", mock.Anything, partialVote(foreign, 11, 2)).Return(nil).Once()
	s.engine.poll()
	assert.True(s.T(), s.aggregator(foreign).Unfinalized(11))
}

// a local partial the aggregator refuses does not count as an endorsement: once the
// aggregator caught up with the view the nonce is endorsed
func (s *EngineSuite) TestEndorse_RetryAfterFailedMerge() {
	ctx := context.Background()
	next := quorum.NewAuthoritySet(2, s.set.Keys())
	require.NoError(s.T(), s.view.Rotate(next))

	msg := message(foreign, 11)
	msg.ValidatorSetID = 2
	err := s.engine.endorse(ctx, msg)
	require.ErrorIs(s.T(), err, signature.ErrEpochMismatch)
	assert.False(s.T(), s.aggregator(foreign).Unfinalized(11))

	_, err = s.aggregator(foreign).Rotate(next)
	require.NoError(s.T(), err)

	s.conduit.On("Publish", mock.Anything, partialVote(foreign, 11, 2)).Return(nil).Once()
	require.NoError(s.T(), s.engine.endorse(ctx, msg))
	assert.True(s.T(), s.aggregator(foreign).Unfinalized(11))

	// endorsed once per epoch
	require.NoError(s.T(), s.engine.endorse(ctx, msg))
}

func (s *EngineSuite) TestProcess_IncompatibleType() {
	err := s.engine.Process(network.BridgeTopic, unittest.PeerIDFixture(), unittest.CheckpointVoteFixture())
	require.True(s.T(), errors.Is(err, engine.IncompatibleInputTypeError))
}
