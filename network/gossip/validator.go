package gossip

import (
	"github.com/attestnet/attest/model/quorum"
)

// Validator decides, for one gossip topic, which inbound messages are live, stale or
// duplicate, and which stored messages may be sent again. Implementations must be safe
// for concurrent use and must not block on I/O: every decision is computed from local
// state only.
type Validator interface {
	// NewPeer records a newly connected peer and its role.
	NewPeer(peer quorum.PeerID, role quorum.Role)

	// PeerDisconnected forgets a peer.
	PeerDisconnected(peer quorum.PeerID)

	// Validate classifies an inbound message. Undecodable data is discarded.
	Validate(sender quorum.PeerID, data []byte) ValidationResult

	// MessageExpired reports whether a stored message should no longer be stored
	// or forwarded. Undecodable data is expired.
	MessageExpired(data []byte) bool

	// MessageAllowed reports whether a stored message may be sent to the peer now.
	// Undecodable data is never allowed.
	MessageAllowed(peer quorum.PeerID, data []byte) bool
}

// Pruner is implemented by validators whose caches need periodic cleanup. The
// engine prunes them on every rebroadcast tick.
type Pruner interface {
	Prune()
}
