package network

// Codec provides encoding and decoding of gossip messages. Encoding must be
// deterministic: fingerprints are computed over the encoded bytes.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte) (interface{}, error)
}
