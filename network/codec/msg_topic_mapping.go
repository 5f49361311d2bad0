package codec

import (
	"github.com/attestnet/attest/network"
)

type MsgCodeList []MessageCode

// Contains returns true if the list contains the given code.
func (l MsgCodeList) Contains(code MessageCode) bool {
	for _, c := range l {
		if c == code {
			return true
		}
	}
	return false
}

// topicToMsgCodes is a mapping of gossip topics to the codes of the messages communicated on them.
var topicToMsgCodes = map[network.Topic]MsgCodeList{
	network.CheckpointTopic: {CodeCheckpointVote, CodeWantNonce, CodeWant, CodeHave, CodeRequestChunk, CodeChunk},
	network.BridgeTopic:     {CodeBridgeVote},
}

// MsgCodesByTopic returns the list of codes of the messages expected on the topic.
func MsgCodesByTopic(topic network.Topic) (MsgCodeList, bool) {
	codes, ok := topicToMsgCodes[topic]
	return codes, ok
}
