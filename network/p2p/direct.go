package p2p

import (
	"context"
	"fmt"
	"io"
	"time"

	libp2pnet "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	encoding "github.com/attestnet/attest/model/encoding/cbor"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
)

// DirectProtocol carries messages addressed to a single peer, one message per stream.
const DirectProtocol protocol.ID = "/attest/direct/1"

// directFrameOverhead covers the encoding of the topic around the message.
const directFrameOverhead = 1024

type directMessage struct {
	Topic string
	Data  []byte
}

// SendTo delivers the message to the peer over a stream of the direct protocol.
func (n *Network) SendTo(ctx context.Context, to quorum.PeerID, topic network.Topic, data []byte) error {
	pid, err := peer.Decode(to.String())
	if err != nil {
		return fmt.Errorf("invalid peer id %s: %w", to, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.DirectTimeout)
	defer cancel()

	s, err := n.node.NewStream(ctx, pid)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.SetWriteDeadline(deadline)
	}

	err = encoding.EncMode.NewEncoder(s).Encode(&directMessage{Topic: topic.String(), Data: data})
	if err != nil {
		_ = s.Reset()
		return fmt.Errorf("could not write direct message to %s: %w", pid, err)
	}
	return s.Close()
}

func (n *Network) handleStream(s libp2pnet.Stream) {
	defer s.Close()
	sender := s.Conn().RemotePeer()
	_ = s.SetReadDeadline(time.Now().Add(n.config.DirectTimeout))

	var msg directMessage
	limited := io.LimitReader(s, int64(n.config.MaxMessageSize+directFrameOverhead))
	err := encoding.DecMode.NewDecoder(limited).Decode(&msg)
	if err != nil {
		n.log.Debug().Err(err).Str("peer", sender.String()).Msg("could not read direct message")
		_ = s.Reset()
		return
	}

	result := n.handler.HandleInbound(network.Topic(msg.Topic), quorum.PeerID(sender.String()), msg.Data)
	n.log.Trace().
		Str("peer", sender.String()).
		Str("topic", msg.Topic).
		Str("result", result.String()).
		Msg("direct message handled")
}
