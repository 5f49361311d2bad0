package gossip

// ValidationResult is the decision of a Validator about an inbound message.
type ValidationResult uint8

const (
	// Discard drops the message without processing it.
	Discard ValidationResult = iota
	// ProcessAndDiscard hands the message to the local engine once but never propagates it.
	ProcessAndDiscard
	// ProcessAndKeep hands the message to the local engine and keeps it for propagation.
	ProcessAndKeep
)

func (r ValidationResult) String() string {
	switch r {
	case ProcessAndKeep:
		return "process_and_keep"
	case ProcessAndDiscard:
		return "process_and_discard"
	default:
		return "discard"
	}
}

// Process reports whether the message should be handed to the local engine.
func (r ValidationResult) Process() bool {
	return r == ProcessAndKeep || r == ProcessAndDiscard
}

// Keep reports whether the message should be kept for propagation.
func (r ValidationResult) Keep() bool {
	return r == ProcessAndKeep
}
