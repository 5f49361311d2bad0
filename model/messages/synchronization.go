package messages

// WantNonce is part of the synchronization protocol and represents a lagging node
// asking for the worker nonces in the inclusive range [From, To] under the given epoch.
type WantNonce struct {
	From  uint64
	To    uint64
	Epoch uint64
}
