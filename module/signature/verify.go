package signature

import (
	"fmt"

	"github.com/attestnet/attest/model/quorum"
)

// VerifyArtifact checks that a finalized artifact carries valid signatures of at least
// the threshold of the authority set, and that its aggregate matches them.
// Expected error returns during normal operations:
//   - ErrEpochMismatch if the artifact was not signed under the set
//   - ErrInsufficientShares if fewer than the threshold signed
//   - ErrUnknownSigner, ErrInvalidSignature for bad partials
//   - ErrInvalidFormat if the aggregate does not match the signatures
func VerifyArtifact(verifier Verifier, set *quorum.AuthoritySet, artifact *quorum.Artifact) error {
	if artifact.Epoch != set.Epoch() {
		return fmt.Errorf("artifact epoch %d, set epoch %d: %w", artifact.Epoch, set.Epoch(), ErrEpochMismatch)
	}
	signers := artifact.Signers()
	if signers.Count() < set.Threshold() {
		return fmt.Errorf("%d of %d required signatures: %w", signers.Count(), set.Threshold(), ErrInsufficientShares)
	}
	if quorum.HashPayload(artifact.Payload) != artifact.PayloadHash {
		return fmt.Errorf("payload does not match its hash: %w", ErrInvalidInputs)
	}

	msg := Message(artifact.Stream, artifact.Sequence, artifact.Epoch, artifact.PayloadHash)
	for _, index := range artifact.SignerIndexes() {
		key, ok := set.Key(uint(index))
		if !ok {
			return fmt.Errorf("signer index %d: %w", index, ErrUnknownSigner)
		}
		valid, err := verifier.Verify(artifact.Signatures[index], msg, key)
		if err != nil {
			return fmt.Errorf("could not verify signature of signer %d: %w", index, err)
		}
		if !valid {
			return fmt.Errorf("signer %d: %w", index, ErrInvalidSignature)
		}
	}

	combiner := NewCombiner()
	aggregated, err := combiner.Signers(artifact.AggregateSignature)
	if err != nil {
		return fmt.Errorf("could not decode aggregate signers: %w", err)
	}
	if !aggregated.Equal(signers) {
		return fmt.Errorf("aggregate signers %v, artifact signers %v: %w", aggregated.Indexes(), signers.Indexes(), ErrInvalidFormat)
	}
	sigs, err := combiner.Split(artifact.AggregateSignature)
	if err != nil {
		return fmt.Errorf("could not split aggregate: %w", err)
	}
	for index, sig := range sigs {
		if string(artifact.Signatures[index]) != string(sig) {
			return fmt.Errorf("aggregate signature of signer %d differs: %w", index, ErrInvalidFormat)
		}
	}

	return nil
}
