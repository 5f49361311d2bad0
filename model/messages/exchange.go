package messages

// The chunk exchange is a pull-based transfer for artifacts too large to fit a single
// gossip frame. Artifacts are addressed by their sequence; chunks by their index in
// a bitmap whose wire form is a slice of 64-bit words.

// Want is broadcast by a node that needs the artifact. The bitmap is empty when
// nothing has been received yet.
type Want struct {
	ArtifactID uint64
	Bitmap     []uint64
}

// Have is the reply of a holder announcing which chunks it can serve.
type Have struct {
	ArtifactID uint64
	Total      uint16
	Bitmap     []uint64
}

// RequestChunk is sent to a chosen holder to ask for the chunks set in the bitmap.
type RequestChunk struct {
	ArtifactID uint64
	Bitmap     []uint64
}

// Chunk is a single piece of an artifact.
type Chunk struct {
	ArtifactID uint64
	Index      uint16
	Data       []byte
}
