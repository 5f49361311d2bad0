package submitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/attestnet/attest/ledger"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
)

const (
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultMaxRetryDelay = 10 * time.Second
	DefaultMaxRetries    = 20
)

type Config struct {
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	MaxRetries    uint64
}

func DefaultConfig() Config {
	return Config{
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
		MaxRetries:    DefaultMaxRetries,
	}
}

// Submitter hands finalized artifacts to the ledger. Transient failures are retried
// with exponential backoff. A submission that arrives before its predecessor is
// retried as well, since the predecessor is usually in flight from another validator.
type Submitter struct {
	log     zerolog.Logger
	metrics module.LedgerMetrics
	ledger  ledger.Ledger
	config  Config
}

var _ ledger.Submitter = (*Submitter)(nil)

func New(log zerolog.Logger, metrics module.LedgerMetrics, l ledger.Ledger, config Config) *Submitter {
	return &Submitter{
		log:     log.With().Str("component", "submitter").Logger(),
		metrics: metrics,
		ledger:  l,
		config:  config,
	}
}

// SubmitFinalized blocks until the artifact is accepted, is known to be superseded on the
// ledger, or retries are exhausted.
// Expected error returns during normal operations:
//   - ledger.ErrInsufficientSignatures if the ledger refuses the endorsements
//   - ledger.ErrOutOfOrder if retries ran out before the predecessor was accepted
func (s *Submitter) SubmitFinalized(ctx context.Context, artifact *quorum.Artifact) error {
	log := s.log.With().
		Str("stream", artifact.Stream.String()).
		Uint64("sequence", artifact.Sequence).
		Logger()

	backoff := retry.NewExponential(s.config.RetryDelay)
	backoff = retry.WithCappedDuration(s.config.MaxRetryDelay, backoff)
	backoff = retry.WithJitterPercent(15, backoff)
	backoff = retry.WithMaxRetries(s.config.MaxRetries, backoff)

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			s.metrics.SubmissionRetried(artifact.Stream.String())
		}

		err := s.ledger.SubmitFinalized(ctx, artifact)
		if err == nil {
			return nil
		}
		if errors.Is(err, ledger.ErrInsufficientSignatures) {
			return err
		}
		if ledger.IsErrOutOfOrder(err) {
			last, lerr := s.ledger.LastFinalizedSequence(ctx, artifact.Stream)
			if lerr == nil && last >= artifact.Sequence {
				log.Info().Uint64("ledger_sequence", last).Msg("artifact superseded on the ledger")
				return nil
			}
		}
		log.Debug().Err(err).Int("attempt", attempts).Msg("could not submit artifact - retrying")
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("could not submit artifact %s/%d after %d attempts: %w", artifact.Stream, artifact.Sequence, attempts, err)
	}

	s.metrics.ArtifactSubmitted(artifact.Stream.String(), artifact.Sequence)
	log.Info().Int("attempts", attempts).Msg("artifact submitted")
	return nil
}
