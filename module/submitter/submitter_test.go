package submitter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/ledger"
	mockledger "github.com/attestnet/attest/ledger/mock"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/metrics"
	"github.com/attestnet/attest/utils/unittest"
)

func fastConfig() Config {
	return Config{
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
		MaxRetries:    3,
	}
}

func artifactFixture(seq uint64) *quorum.Artifact {
	payload := unittest.SnapshotFixture(unittest.WithStateChangeID(seq)).Encode()
	return &quorum.Artifact{
		Stream:      quorum.SnapshotStream,
		Sequence:    seq,
		Epoch:       1,
		Payload:     payload,
		PayloadHash: quorum.HashPayload(payload),
	}
}

func TestSubmit_RetriesTransientErrors(t *testing.T) {
	l := mockledger.NewLedger(t)
	artifact := artifactFixture(5)

	l.On("SubmitFinalized", mock.Anything, artifact).Return(fmt.Errorf("connection reset")).Once()
	l.On("SubmitFinalized", mock.Anything, artifact).Return(nil).Once()

	s := New(unittest.Logger(), metrics.NewNoopCollector(), l, fastConfig())
	require.NoError(t, s.SubmitFinalized(context.Background(), artifact))
}

func TestSubmit_InsufficientSignaturesIsFinal(t *testing.T) {
	l := mockledger.NewLedger(t)
	artifact := artifactFixture(5)

	l.On("SubmitFinalized", mock.Anything, artifact).Return(ledger.ErrInsufficientSignatures).Once()

	s := New(unittest.Logger(), metrics.NewNoopCollector(), l, fastConfig())
	err := s.SubmitFinalized(context.Background(), artifact)
	require.True(t, errors.Is(err, ledger.ErrInsufficientSignatures))
}

func TestSubmit_OutOfOrder(t *testing.T) {
	t.Run("superseded on the ledger", func(t *testing.T) {
		l := mockledger.NewLedger(t)
		artifact := artifactFixture(5)

		l.On("SubmitFinalized", mock.Anything, artifact).Return(ledger.NewOutOfOrderErr(quorum.SnapshotStream, 7, 5)).Once()
		l.On("LastFinalizedSequence", mock.Anything, quorum.SnapshotStream).Return(uint64(6), nil).Once()

		s := New(unittest.Logger(), metrics.NewNoopCollector(), l, fastConfig())
		require.NoError(t, s.SubmitFinalized(context.Background(), artifact))
	})

	t.Run("predecessor missing", func(t *testing.T) {
		l := mockledger.NewLedger(t)
		artifact := artifactFixture(5)

		l.On("SubmitFinalized", mock.Anything, artifact).Return(ledger.NewOutOfOrderErr(quorum.SnapshotStream, 4, 5))
		l.On("LastFinalizedSequence", mock.Anything, quorum.SnapshotStream).Return(uint64(3), nil)

		s := New(unittest.Logger(), metrics.NewNoopCollector(), l, fastConfig())
		err := s.SubmitFinalized(context.Background(), artifact)
		require.True(t, ledger.IsErrOutOfOrder(err))
		// first attempt plus three retries
		l.AssertNumberOfCalls(t, "SubmitFinalized", 4)
	})
}

func TestSubmit_ContextCancelled(t *testing.T) {
	l := mockledger.NewLedger(t)
	artifact := artifactFixture(5)

	ctx, cancel := context.WithCancel(context.Background())
	l.On("SubmitFinalized", mock.Anything, artifact).Run(func(mock.Arguments) { cancel() }).Return(fmt.Errorf("unavailable"))

	config := fastConfig()
	config.RetryDelay = time.Second
	s := New(unittest.Logger(), metrics.NewNoopCollector(), l, config)
	err := s.SubmitFinalized(ctx, artifact)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
