package signature

import (
	"encoding/binary"
	"fmt"

	"github.com/attestnet/attest/model/quorum"
)

// Combiner joins the partial signatures of a finalized artifact into a single
// aggregate and splits an aggregate back into its parts. The aggregate starts with the
// signer bitmap, followed by one length-prefixed signature per signer in ascending
// index order, so the result does not depend on the order in which partials arrived.
type Combiner struct{}

func NewCombiner() *Combiner {
	return &Combiner{}
}

const (
	wordLen = 8
	// maxBitmapWords bounds the signer bitmap; the word count travels as uint16.
	maxBitmapWords = 0xffff
	maxSignerIndex = maxBitmapWords*64 - 1
)

// Aggregate encodes the signer bitmap and the signatures.
func (c *Combiner) Aggregate(sigs map[uint32][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, ErrInsufficientShares
	}

	signers := quorum.NewSignerSet()
	size := 0
	for index, sig := range sigs {
		if index > maxSignerIndex {
			return nil, fmt.Errorf("signer index %d out of range: %w", index, ErrInvalidFormat)
		}
		if len(sig) == 0 || len(sig) > 0xffff {
			return nil, fmt.Errorf("signature of signer %d has length %d: %w", index, len(sig), ErrInvalidFormat)
		}
		signers.Add(uint(index))
		size += 2 + len(sig)
	}

	words := signers.Words()
	combined := make([]byte, 0, 2+len(words)*wordLen+size)
	combined = binary.BigEndian.AppendUint16(combined, uint16(len(words)))
	for _, word := range words {
		combined = binary.BigEndian.AppendUint64(combined, word)
	}
	for _, index := range signers.Indexes() {
		sig := sigs[uint32(index)]
		combined = binary.BigEndian.AppendUint16(combined, uint16(len(sig)))
		combined = append(combined, sig...)
	}
	return combined, nil
}

// Signers decodes the signer bitmap at the head of the aggregate.
func (c *Combiner) Signers(combined []byte) (quorum.SignerSet, error) {
	signers, _, err := c.signers(combined)
	return signers, err
}

func (c *Combiner) signers(combined []byte) (quorum.SignerSet, []byte, error) {
	if len(combined) < 2 {
		return quorum.SignerSet{}, nil, fmt.Errorf("truncated bitmap header: %w", ErrInvalidFormat)
	}
	n := int(binary.BigEndian.Uint16(combined))
	combined = combined[2:]
	if len(combined) < n*wordLen {
		return quorum.SignerSet{}, nil, fmt.Errorf("truncated bitmap of %d words: %w", n, ErrInvalidFormat)
	}
	words := make([]uint64, n)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(combined[i*wordLen:])
	}
	signers := quorum.SignerSetFromWords(words)
	if signers.Count() == 0 {
		return quorum.SignerSet{}, nil, ErrInsufficientShares
	}
	return signers, combined[n*wordLen:], nil
}

// Split returns the signatures contained in the aggregate, keyed by signer index.
func (c *Combiner) Split(combined []byte) (map[uint32][]byte, error) {
	if len(combined) == 0 {
		return nil, ErrInsufficientShares
	}
	signers, rest, err := c.signers(combined)
	if err != nil {
		return nil, err
	}

	sigs := make(map[uint32][]byte, signers.Count())
	for _, index := range signers.Indexes() {
		if len(rest) < 2 {
			return nil, fmt.Errorf("truncated length of signer %d: %w", index, ErrInvalidFormat)
		}
		length := int(binary.BigEndian.Uint16(rest))
		rest = rest[2:]
		if length == 0 || len(rest) < length {
			return nil, fmt.Errorf("truncated signature of signer %d: %w", index, ErrInvalidFormat)
		}
		sigs[uint32(index)] = append([]byte(nil), rest[:length]...)
		rest = rest[length:]
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%d trailing bytes: %w", len(rest), ErrInvalidFormat)
	}
	return sigs, nil
}
