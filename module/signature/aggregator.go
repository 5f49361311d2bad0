package signature

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
)

// OutcomeKind classifies the effect of a partial on the aggregator.
type OutcomeKind int

const (
	// Rejected partials left no trace. The accompanying error tells why.
	Rejected OutcomeKind = iota
	// New partials opened a new working artifact.
	New
	// Merged partials joined an existing working artifact, or were already known.
	Merged
	// Finalized partials brought at least one artifact to the threshold.
	Finalized
	// Superseded partials were valid when received but their sequence was finalized
	// while they were being verified.
	Superseded
)

func (k OutcomeKind) String() string {
	switch k {
	case New:
		return "new"
	case Merged:
		return "merged"
	case Finalized:
		return "finalized"
	case Superseded:
		return "superseded"
	default:
		return "rejected"
	}
}

// Outcome is the result of ProposeOrMerge.
type Outcome struct {
	Kind OutcomeKind
	// Finalized lists the artifacts finalized by this call in sequence order. A partial
	// can finalize several artifacts when later sequences were waiting at threshold.
	Finalized []*quorum.Artifact
	// Superseded lists the competing working artifacts dropped by the finalizations.
	Superseded []*quorum.Artifact
}

// Aggregator collects partial signatures of one stream into artifacts and finalizes
// them once the threshold of the active authority set is reached. Sequences finalize
// in order without gaps: an artifact at threshold waits until its predecessor is
// final. Several payloads may compete at one sequence; the first to reach the
// threshold wins and the others are dropped in the same step.
//
// Signature verification runs outside the lock; everything that reads or changes the
// slots and the finalized watermark runs under it. Finalization callbacks run in
// finalization order.
type Aggregator struct {
	log      zerolog.Logger
	metrics  module.AggregatorMetrics
	verifier Verifier
	combiner *Combiner
	stream   quorum.Stream

	mu            sync.Mutex
	authorities   *quorum.AuthoritySet
	finalized     uint64
	finalizedHash quorum.Hash
	last          *quorum.Artifact
	slots         map[uint64]map[quorum.Hash]*quorum.Artifact
	// retired holds the artifacts dropped by the last rotation
	retired       map[uint64][]*quorum.Artifact

	notifyMu  sync.Mutex
	consumers []func(*quorum.Artifact)
}

// NewAggregator creates an aggregator for the stream with the given authority set and
// finalized watermark.
func NewAggregator(
	log zerolog.Logger,
	metrics module.AggregatorMetrics,
	verifier Verifier,
	stream quorum.Stream,
	authorities *quorum.AuthoritySet,
	finalized uint64,
) *Aggregator {
	return &Aggregator{
		log:         log.With().Str("component", "aggregator").Str("stream", stream.String()).Logger(),
		metrics:     metrics,
		verifier:    verifier,
		combiner:    NewCombiner(),
		stream:      stream,
		authorities: authorities,
		finalized:   finalized,
		slots:       make(map[uint64]map[quorum.Hash]*quorum.Artifact),
		retired:     make(map[uint64][]*quorum.Artifact),
	}
}

// AddOnFinalized registers a consumer of finalized artifacts. Consumers receive copies.
func (a *Aggregator) AddOnFinalized(consumer func(*quorum.Artifact)) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.consumers = append(a.consumers, consumer)
}

// ProposeOrMerge adds a partial signature.
// Expected error returns during normal operations, always with a Rejected outcome:
//   - ErrStale if the sequence is finalized with another payload, or already pruned
//   - ErrEpochMismatch if the partial is not signed under the active authority set
//   - ErrUnknownSigner if the signer index is outside the authority set
//   - ErrInvalidSignature if the signature does not verify
//   - ErrInvalidInputs if the partial belongs to another stream
func (a *Aggregator) ProposeOrMerge(p *quorum.Partial) (Outcome, error) {
	outcome, err := a.proposeOrMerge(p)
	a.metrics.PartialProcessed(a.stream.String(), outcome.Kind.String())
	if err != nil {
		a.log.Debug().Err(err).Str("partial", p.String()).Msg("rejected partial")
	}
	return outcome, err
}

func (a *Aggregator) proposeOrMerge(p *quorum.Partial) (Outcome, error) {
	rejected := Outcome{Kind: Rejected}

	if p.Stream != a.stream {
		return rejected, fmt.Errorf("partial for stream %s sent to %s: %w", p.Stream, a.stream, ErrInvalidInputs)
	}

	hash := p.PayloadHash()

	a.mu.Lock()
	set := a.authorities
	finalized, finalizedHash := a.finalized, a.finalizedHash
	known := a.knownLocked(p, hash)
	a.mu.Unlock()

	if p.Sequence <= finalized {
		if p.Sequence == finalized && hash == finalizedHash {
			return Outcome{Kind: Merged}, nil
		}
		return rejected, fmt.Errorf("sequence %d, finalized %d: %w", p.Sequence, finalized, ErrStale)
	}
	if p.Epoch != set.Epoch() {
		return rejected, fmt.Errorf("partial epoch %d, active epoch %d: %w", p.Epoch, set.Epoch(), ErrEpochMismatch)
	}
	key, ok := set.Key(uint(p.SignerIndex))
	if !ok {
		return rejected, fmt.Errorf("signer index %d, set size %d: %w", p.SignerIndex, set.Size(), ErrUnknownSigner)
	}
	if known {
		return Outcome{Kind: Merged}, nil
	}

	valid, err := a.verifier.Verify(p.Signature, PartialMessage(p), key)
	if err != nil {
		return rejected, fmt.Errorf("could not verify partial %s: %w", p, err)
	}
	if !valid {
		return rejected, fmt.Errorf("signer %d: %w", p.SignerIndex, ErrInvalidSignature)
	}

	a.mu.Lock()

	// the state may have moved while verifying
	if a.authorities.Epoch() != p.Epoch {
		a.mu.Unlock()
		return rejected, fmt.Errorf("authority set rotated to epoch %d during verification: %w", a.authorities.Epoch(), ErrEpochMismatch)
	}
	if p.Sequence <= a.finalized {
		a.mu.Unlock()
		return Outcome{Kind: Superseded}, nil
	}

	kind := Merged
	bySeq, ok := a.slots[p.Sequence]
	if !ok {
		bySeq = make(map[quorum.Hash]*quorum.Artifact)
		a.slots[p.Sequence] = bySeq
	}
	artifact, ok := bySeq[hash]
	if !ok {
		artifact = quorum.NewArtifact(p)
		bySeq[hash] = artifact
		kind = New
	} else if _, signed := artifact.Signatures[p.SignerIndex]; !signed {
		artifact.Signatures[p.SignerIndex] = append([]byte(nil), p.Signature...)
	}

	outcome, err := a.finalizeLocked()
	if err != nil {
		a.mu.Unlock()
		return rejected, err
	}
	if len(outcome.Finalized) == 0 {
		outcome.Kind = kind
	}
	a.metrics.PendingArtifacts(a.stream.String(), uint(a.pendingLocked()))

	a.notify(outcome.Finalized)
	return outcome, nil
}

// knownLocked reports whether the exact partial was already merged.
func (a *Aggregator) knownLocked(p *quorum.Partial, hash quorum.Hash) bool {
	artifact, ok := a.slots[p.Sequence][hash]
	if !ok {
		return false
	}
	sig, ok := artifact.Signatures[p.SignerIndex]
	return ok && bytes.Equal(sig, p.Signature)
}

// finalizeLocked finalizes the artifacts at the next sequences as long as one of them
// reached the threshold.
func (a *Aggregator) finalizeLocked() (Outcome, error) {
	outcome := Outcome{Kind: Finalized}
	threshold := a.authorities.Threshold()

	for {
		next := a.finalized + 1
		var winner *quorum.Artifact
		for _, artifact := range a.slots[next] {
			if artifact.Signers().Count() >= threshold {
				winner = artifact
				break
			}
		}
		if winner == nil {
			return outcome, nil
		}

		aggregate, err := a.combiner.Aggregate(winner.Signatures)
		if err != nil {
			return Outcome{}, fmt.Errorf("could not aggregate signatures of sequence %d: %w", next, err)
		}
		winner.AggregateSignature = aggregate

		for hash, artifact := range a.slots[next] {
			if hash != winner.PayloadHash {
				outcome.Superseded = append(outcome.Superseded, artifact)
			}
		}
		delete(a.slots, next)

		a.finalized = next
		a.finalizedHash = winner.PayloadHash
		a.last = winner
		outcome.Finalized = append(outcome.Finalized, winner.Copy())
		a.metrics.FinalizedSequence(a.stream.String(), next)

		a.log.Info().
			Uint64("sequence", next).
			Str("payload_hash", winner.PayloadHash.String()).
			Uints("signers", winner.Signers().Indexes()).
			Int("superseded", len(outcome.Superseded)).
			Msg("artifact finalized")
	}
}

// notify must be called with a.mu held. It releases a.mu and delivers the finalized
// artifacts while holding notifyMu, which keeps deliveries in finalization order.
func (a *Aggregator) notify(finalized []*quorum.Artifact) {
	if len(finalized) == 0 {
		a.mu.Unlock()
		return
	}

	a.notifyMu.Lock()
	a.mu.Unlock()
	defer a.notifyMu.Unlock()

	for _, artifact := range finalized {
		for _, consumer := range a.consumers {
			consumer(artifact.Copy())
		}
	}
}

// Advance moves the finalized watermark to a sequence finalized elsewhere, for example
// read from the ledger, and drops every working artifact at or below it. Artifacts
// waiting at threshold above it finalize. Lower sequences are ignored. The outcome is
// Finalized if any waiting artifact finalized, Superseded otherwise.
func (a *Aggregator) Advance(seq uint64, hash quorum.Hash) (Outcome, error) {
	a.mu.Lock()
	if seq <= a.finalized {
		a.mu.Unlock()
		return Outcome{}, nil
	}

	var dropped []*quorum.Artifact
	for s, bySeq := range a.slots {
		if s > seq {
			continue
		}
		for h, artifact := range bySeq {
			if s == seq && h == hash {
				a.last = artifact
				continue
			}
			dropped = append(dropped, artifact)
		}
		delete(a.slots, s)
	}
	a.finalized = seq
	a.finalizedHash = hash
	a.metrics.FinalizedSequence(a.stream.String(), seq)
	a.log.Debug().Uint64("sequence", seq).Int("dropped", len(dropped)).Msg("finalized watermark advanced")

	outcome, err := a.finalizeLocked()
	if err != nil {
		a.mu.Unlock()
		return Outcome{}, err
	}
	outcome.Superseded = append(dropped, outcome.Superseded...)
	if len(outcome.Finalized) == 0 {
		outcome.Kind = Superseded
	}
	a.metrics.PendingArtifacts(a.stream.String(), uint(a.pendingLocked()))

	a.notify(outcome.Finalized)
	return outcome, nil
}

// Rotate activates a new authority set. Working artifacts signed under another epoch
// are dropped; the sequences they were at are returned in ascending order so the
// caller can hand them off to the new set.
func (a *Aggregator) Rotate(authorities *quorum.AuthoritySet) ([]uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if authorities.Epoch() <= a.authorities.Epoch() {
		return nil, fmt.Errorf("cannot rotate from epoch %d to %d", a.authorities.Epoch(), authorities.Epoch())
	}

	var pending []uint64
	a.retired = make(map[uint64][]*quorum.Artifact)
	for seq, bySeq := range a.slots {
		for hash, artifact := range bySeq {
			if artifact.Epoch != authorities.Epoch() {
				delete(bySeq, hash)
				a.retired[seq] = append(a.retired[seq], artifact)
			}
		}
		if len(a.retired[seq]) > 0 {
			pending = append(pending, seq)
		}
		if len(bySeq) == 0 {
			delete(a.slots, seq)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })

	a.authorities = authorities
	a.metrics.PendingArtifacts(a.stream.String(), uint(a.pendingLocked()))
	a.log.Info().
		Uint64("epoch", authorities.Epoch()).
		Uint("threshold", authorities.Threshold()).
		Uints64("pending", pending).
		Msg("authority set rotated")

	return pending, nil
}

// Unfinalized reports whether working artifacts exist at the sequence.
func (a *Aggregator) Unfinalized(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slots[seq]) > 0
}

// Finalized returns the finalized watermark.
func (a *Aggregator) Finalized() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finalized
}

// Epoch returns the epoch of the active authority set.
func (a *Aggregator) Epoch() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authorities.Epoch()
}

// Artifact returns a copy of the working artifact at (seq, hash), or of the last
// finalized artifact if it matches.
func (a *Aggregator) Artifact(seq uint64, hash quorum.Hash) (*quorum.Artifact, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last != nil && a.last.Sequence == seq && a.last.PayloadHash == hash {
		return a.last.Copy(), true
	}
	artifact, ok := a.slots[seq][hash]
	if !ok {
		return nil, false
	}
	return artifact.Copy(), true
}

// Retired returns copies of the artifacts at the sequence dropped by the last rotation.
func (a *Aggregator) Retired(seq uint64) []*quorum.Artifact {
	a.mu.Lock()
	defer a.mu.Unlock()

	artifacts := make([]*quorum.Artifact, 0, len(a.retired[seq]))
	for _, artifact := range a.retired[seq] {
		artifacts = append(artifacts, artifact.Copy())
	}
	return artifacts
}

// Artifacts returns copies of the working artifacts at the sequence.
func (a *Aggregator) Artifacts(seq uint64) []*quorum.Artifact {
	a.mu.Lock()
	defer a.mu.Unlock()

	artifacts := make([]*quorum.Artifact, 0, len(a.slots[seq]))
	for _, artifact := range a.slots[seq] {
		artifacts = append(artifacts, artifact.Copy())
	}
	return artifacts
}

func (a *Aggregator) pendingLocked() int {
	n := 0
	for _, bySeq := range a.slots {
		n += len(bySeq)
	}
	return n
}
