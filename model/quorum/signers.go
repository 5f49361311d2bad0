package quorum

import (
	"github.com/bits-and-blooms/bitset"
)

// SignerSet is a bitmap of validator indexes within a single authority set.
// Indexes are never compared across epochs.
type SignerSet struct {
	bits *bitset.BitSet
}

// NewSignerSet returns a signer set containing the given indexes.
func NewSignerSet(indexes ...uint) SignerSet {
	s := SignerSet{bits: bitset.New(0)}
	for _, i := range indexes {
		s.bits.Set(i)
	}
	return s
}

// SignerSetFromWords decodes the wire form of a bitmap.
func SignerSetFromWords(words []uint64) SignerSet {
	return SignerSet{bits: bitset.From(append([]uint64(nil), words...))}
}

// Add records the index and reports whether it was not present before.
func (s *SignerSet) Add(index uint) bool {
	if s.bits == nil {
		s.bits = bitset.New(0)
	}
	if s.bits.Test(index) {
		return false
	}
	s.bits.Set(index)
	return true
}

// Has reports whether the index is part of the set.
func (s SignerSet) Has(index uint) bool {
	return s.bits != nil && s.bits.Test(index)
}

// Count returns the number of indexes in the set.
func (s SignerSet) Count() uint {
	if s.bits == nil {
		return 0
	}
	return s.bits.Count()
}

// Indexes returns the indexes in ascending order.
func (s SignerSet) Indexes() []uint {
	if s.bits == nil {
		return nil
	}
	out := make([]uint, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, i)
	}
	return out
}

// Words returns the wire form of the bitmap.
func (s SignerSet) Words() []uint64 {
	if s.bits == nil {
		return nil
	}
	return append([]uint64(nil), s.bits.Bytes()...)
}

// Clone returns an independent copy.
func (s SignerSet) Clone() SignerSet {
	if s.bits == nil {
		return SignerSet{}
	}
	return SignerSet{bits: s.bits.Clone()}
}

// Equal reports whether both sets contain the same indexes.
func (s SignerSet) Equal(other SignerSet) bool {
	if s.Count() != other.Count() {
		return false
	}
	for _, i := range s.Indexes() {
		if !other.Has(i) {
			return false
		}
	}
	return true
}
