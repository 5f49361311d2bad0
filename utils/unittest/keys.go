package unittest

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
)

// PrivateKeyFixture returns a random secp256k1 private key.
func PrivateKeyFixture(t testing.TB) *btcec.PrivateKey {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

// PrivateKeyFixtures returns n random secp256k1 private keys.
func PrivateKeyFixtures(t testing.TB, n int) []*btcec.PrivateKey {
	keys := make([]*btcec.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, PrivateKeyFixture(t))
	}
	return keys
}

// AuthoritySetFixture returns an authority set for the given epoch made of n fresh
// validators, together with their private keys in index order.
func AuthoritySetFixture(t testing.TB, epoch uint64, n int) (*quorum.AuthoritySet, []*btcec.PrivateKey) {
	keys := PrivateKeyFixtures(t, n)
	pubs := make([][]byte, 0, n)
	for _, key := range keys {
		pubs = append(pubs, key.PubKey().SerializeCompressed())
	}
	return quorum.NewAuthoritySet(epoch, pubs), keys
}
