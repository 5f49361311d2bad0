package p2p

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// PrivKey converts a validator key into the networking key of the libp2p host, so that
// the peer ID of an authority follows from its public key.
func PrivKey(key *btcec.PrivateKey) (crypto.PrivKey, error) {
	pk, err := crypto.UnmarshalSecp256k1PrivateKey(key.Serialize())
	if err != nil {
		return nil, fmt.Errorf("could not convert validator key: %w", err)
	}
	return pk, nil
}

// PeerIDFromPublicKey returns the peer ID of the host keyed with the validator key whose
// compressed public key is given.
func PeerIDFromPublicKey(pub []byte) (peer.ID, error) {
	pk, err := crypto.UnmarshalSecp256k1PublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("could not decode validator public key: %w", err)
	}
	pid, err := peer.IDFromPublicKey(pk)
	if err != nil {
		return "", fmt.Errorf("could not derive peer ID: %w", err)
	}
	return pid, nil
}
