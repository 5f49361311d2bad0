package codec

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/attestnet/attest/model/quorum"
)

// Fingerprint returns the BLAKE2b-128 digest of an encoded message. Since encoding is
// deterministic, the fingerprint identifies the logical message.
func Fingerprint(data []byte) quorum.Fingerprint {
	hasher, err := blake2b.New(quorum.FingerprintLen, nil)
	if err != nil {
		// only possible for an invalid size or a key longer than 64 bytes
		panic(fmt.Errorf("could not create blake2b hasher: %w", err))
	}
	_, _ = hasher.Write(data)

	var f quorum.Fingerprint
	copy(f[:], hasher.Sum(nil))
	return f
}
