package quorum

import (
	"bytes"
	"fmt"
)

// AuthoritySet is the ordered list of validator public keys valid for one epoch.
// Validators are referenced by their position in the list. An AuthoritySet is
// immutable once constructed; a rotation replaces it wholesale.
type AuthoritySet struct {
	epoch uint64
	keys  [][]byte
}

// NewAuthoritySet creates an authority set for the given epoch. The keys are copied.
func NewAuthoritySet(epoch uint64, keys [][]byte) *AuthoritySet {
	cp := make([][]byte, 0, len(keys))
	for _, k := range keys {
		cp = append(cp, append([]byte(nil), k...))
	}
	return &AuthoritySet{epoch: epoch, keys: cp}
}

// Epoch returns the validator set id of this authority set.
func (a *AuthoritySet) Epoch() uint64 {
	return a.epoch
}

// Size returns the number of validators in the set.
func (a *AuthoritySet) Size() uint {
	return uint(len(a.keys))
}

// Key returns the public key of the validator at the given index.
func (a *AuthoritySet) Key(index uint) ([]byte, bool) {
	if index >= uint(len(a.keys)) {
		return nil, false
	}
	return a.keys[index], true
}

// IndexOf returns the index of the given public key within the set.
func (a *AuthoritySet) IndexOf(key []byte) (uint, bool) {
	for i, k := range a.keys {
		if bytes.Equal(k, key) {
			return uint(i), true
		}
	}
	return 0, false
}

// Keys returns a copy of the ordered public keys.
func (a *AuthoritySet) Keys() [][]byte {
	cp := make([][]byte, 0, len(a.keys))
	for _, k := range a.keys {
		cp = append(cp, append([]byte(nil), k...))
	}
	return cp
}

// Threshold returns the number of distinct endorsements required to finalize an
// artifact under this set.
func (a *AuthoritySet) Threshold() uint {
	return Threshold(a.Size())
}

func (a *AuthoritySet) String() string {
	return fmt.Sprintf("epoch=%d size=%d", a.epoch, len(a.keys))
}

// Threshold returns ⌈2n/3⌉ computed as (2n+2)/3 in unsigned integer arithmetic.
// Every validator must compute it identically, so no floating point is involved.
func Threshold(total uint) uint {
	return (total*2 + 2) / 3
}
