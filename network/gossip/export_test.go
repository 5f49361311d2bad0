package gossip

// Rebroadcast runs one iteration of the rebroadcast loop.
func (e *Engine) Rebroadcast() {
	e.rebroadcast()
}
