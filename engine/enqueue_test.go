package engine_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/engine"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/utils/unittest"
)

// TestEngine tests the integration of MessageHandler and FifoQueue that buffer and deliver
// matched messages to corresponding handlers
type TestEngine struct {
	unit           *engine.Unit
	messageHandler *engine.MessageHandler
	queueA         *engine.FifoMessageStore
	queueB         *engine.FifoMessageStore

	mu       sync.RWMutex
	messages []interface{}
}

type messageA struct {
	n int
}

type messageB struct {
	n int
}

type messageC struct {
	s string
}

func NewEngine(t *testing.T, capacity int) *TestEngine {
	queueA, err := engine.NewFifoMessageStore(capacity)
	require.NoError(t, err)
	queueB, err := engine.NewFifoMessageStore(capacity)
	require.NoError(t, err)

	handler := engine.NewMessageHandler(
		unittest.Logger(),
		engine.NewNotifier(),
		engine.Pattern{
			Match: func(msg *engine.Message) bool {
				_, ok := msg.Payload.(*messageA)
				return ok
			},
			Store: queueA,
		},
		engine.Pattern{
			Match: func(msg *engine.Message) bool {
				_, ok := msg.Payload.(*messageB)
				return ok
			},
			// odd messages are dropped before being stored
			Map: func(msg *engine.Message) (*engine.Message, bool) {
				return msg, msg.Payload.(*messageB).n%2 == 0
			},
			Store: queueB,
		},
	)

	return &TestEngine{
		unit:           engine.NewUnit(),
		messageHandler: handler,
		queueA:         queueA,
		queueB:         queueB,
	}
}

func (e *TestEngine) Ready() <-chan struct{} {
	e.unit.Launch(e.loop)
	return e.unit.Ready()
}

func (e *TestEngine) Done() <-chan struct{} {
	return e.unit.Done()
}

func (e *TestEngine) Process(origin quorum.PeerID, payload interface{}) error {
	return e.messageHandler.Process(origin, payload)
}

func (e *TestEngine) loop() {
	for {
		select {
		case <-e.unit.Quit():
			return
		case <-e.messageHandler.GetNotifier():
			e.drain()
		}
	}
}

func (e *TestEngine) drain() {
	for {
		msg, ok := e.queueA.Get()
		if !ok {
			msg, ok = e.queueB.Get()
		}
		if !ok {
			return
		}
		e.mu.Lock()
		e.messages = append(e.messages, msg.Payload)
		e.mu.Unlock()
	}
}

func (e *TestEngine) processed() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.messages)
}

func TestProcessMatchedMessages(t *testing.T) {
	eng := NewEngine(t, 100)
	unittest.RequireCloseBefore(t, eng.Ready(), time.Second, "could not start engine")

	origin := unittest.PeerIDFixture()
	for i := 0; i < 10; i++ {
		require.NoError(t, eng.Process(origin, &messageA{n: i}))
		require.NoError(t, eng.Process(origin, &messageB{n: i}))
	}

	require.Eventually(t, func() bool {
		return eng.processed() == 15
	}, time.Second, 10*time.Millisecond)

	unittest.RequireCloseBefore(t, eng.Done(), time.Second, "could not stop engine")
}

// TestUnknownMessageType checks that a message matching no pattern is reported with
// IncompatibleInputTypeError.
func TestUnknownMessageType(t *testing.T) {
	eng := NewEngine(t, 100)
	err := eng.Process(unittest.PeerIDFixture(), &messageC{s: "c"})
	require.True(t, errors.Is(err, engine.IncompatibleInputTypeError))
}

// TestQueueCapacity checks that messages beyond the capacity of a store are dropped silently.
func TestQueueCapacity(t *testing.T) {
	eng := NewEngine(t, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, eng.Process(unittest.PeerIDFixture(), &messageA{n: i}))
	}
	require.Equal(t, 3, eng.queueA.Len())
}
