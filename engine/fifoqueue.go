package engine

import (
	"github.com/attestnet/attest/engine/common/fifoqueue"
)

// FifoMessageStore wraps a FiFo Queue to implement the MessageStore interface.
type FifoMessageStore struct {
	*fifoqueue.FifoQueue[*Message]
}

// NewFifoMessageStore creates a FifoMessageStore backed by a fifoqueue.FifoQueue.
// No errors are expected during normal operations.
func NewFifoMessageStore(maxCapacity int, opts ...fifoqueue.ConstructorOption[*Message]) (*FifoMessageStore, error) {
	opts = append([]fifoqueue.ConstructorOption[*Message]{fifoqueue.WithCapacity[*Message](maxCapacity)}, opts...)
	queue, err := fifoqueue.NewFifoQueue[*Message](opts...)
	if err != nil {
		return nil, err
	}
	return &FifoMessageStore{FifoQueue: queue}, nil
}

func (s *FifoMessageStore) Put(msg *Message) bool {
	return s.Push(msg)
}

func (s *FifoMessageStore) Get() (*Message, bool) {
	return s.Pop()
}
