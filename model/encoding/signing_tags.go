package encoding

// List of domain separation tags for protocol signatures.
//
// Each protocol-level signature involves hashing an artifact.
// To prevent domain malleability attacks, the hashing process includes
// a domain tag that specifies the type of the signed object.

func tag(domain string) string {
	return protocolPrefix + domain
}

// protocol version and prefix
const protocolPrefix = "ATTEST-V0.1_"

var (
	// SnapshotVoteTag is used for partial signatures over order-book checkpoints
	SnapshotVoteTag = tag("Snapshot-Vote")
	// BridgeVoteTag is used for partial signatures over bridge messages
	BridgeVoteTag = tag("Bridge-Vote")
)
