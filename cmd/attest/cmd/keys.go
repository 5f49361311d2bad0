package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

// LoadKey reads a hex encoded secp256k1 validator key.
func LoadKey(path string) (*btcec.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read key file: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("could not decode key file: %w", err)
	}
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid key length %d, expected %d", len(raw), btcec.PrivKeyBytesLen)
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return key, nil
}

// WriteKey stores the key hex encoded, readable by the owner only. An existing key
// file is never overwritten.
func WriteKey(path string, key *btcec.PrivateKey) error {
	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("could not create key directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("could not create key file: %w", err)
	}
	_, err = f.WriteString(hex.EncodeToString(key.Serialize()))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write key file: %w", err)
	}
	return f.Close()
}
