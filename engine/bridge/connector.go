package bridge

import (
	"context"
	"time"

	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
)

// MessageSource yields the bridge messages of one origin network in nonce order.
type MessageSource interface {
	// ReadEvents returns the message following the last processed nonce, or nil if the
	// origin has not emitted it yet.
	ReadEvents(ctx context.Context, lastProcessedNonce uint64) (*quorum.BridgeMessage, error)

	// CheckMessage reports whether the message exists at its origin as observed by this
	// node. Messages proposed by peers are endorsed only if they pass this check.
	CheckMessage(ctx context.Context, msg *quorum.BridgeMessage) (bool, error)
}

// ForeignChainConnector reads from and writes to the counter-party chain of the bridge.
type ForeignChainConnector interface {
	MessageSource

	// BlockDuration is the block time of the foreign chain, used as polling period.
	BlockDuration() time.Duration

	// SendTransaction delivers a finalized native message to the foreign chain.
	SendTransaction(ctx context.Context, vote *messages.BridgeVote) error

	// LastProcessedNonceFromNative returns the nonce of the last native message the
	// foreign chain accepted.
	LastProcessedNonceFromNative(ctx context.Context) (uint64, error)

	// CheckAuthorityInitialization reports whether the foreign chain knows the
	// authority set. Native messages are not relayed before it does.
	CheckAuthorityInitialization(ctx context.Context) (bool, error)
}

// NoOpConnector is a connector to no chain at all. It lets a node run without a
// counter-party chain in development.
type NoOpConnector struct{}

var _ ForeignChainConnector = (*NoOpConnector)(nil)

func (NoOpConnector) BlockDuration() time.Duration {
	return time.Minute
}

func (NoOpConnector) ReadEvents(context.Context, uint64) (*quorum.BridgeMessage, error) {
	return nil, nil
}

func (NoOpConnector) CheckMessage(context.Context, *quorum.BridgeMessage) (bool, error) {
	return false, nil
}

func (NoOpConnector) SendTransaction(context.Context, *messages.BridgeVote) error {
	return nil
}

func (NoOpConnector) LastProcessedNonceFromNative(context.Context) (uint64, error) {
	return 0, nil
}

func (NoOpConnector) CheckAuthorityInitialization(context.Context) (bool, error) {
	return false, nil
}
