package fifoqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestFifoQueue_Order(t *testing.T) {
	queue, err := NewFifoQueue[int]()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.True(t, queue.Push(i))
	}
	head, ok := queue.Front()
	require.True(t, ok)
	assert.Equal(t, 0, head)

	for i := 0; i < 10; i++ {
		v, ok := queue.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok = queue.Pop()
	assert.False(t, ok)
}

func TestFifoQueue_Capacity(t *testing.T) {
	length := atomic.NewInt64(0)
	queue, err := NewFifoQueue(
		WithCapacity[string](2),
		WithLengthObserver[string](func(l int) { length.Store(int64(l)) }),
	)
	require.NoError(t, err)

	assert.True(t, queue.Push("a"))
	assert.True(t, queue.Push("b"))
	assert.False(t, queue.Push("c"))
	assert.Equal(t, 2, queue.Len())
	assert.Equal(t, int64(2), length.Load())

	_, _ = queue.Pop()
	assert.Equal(t, int64(1), length.Load())
}

func TestFifoQueue_InvalidOptions(t *testing.T) {
	_, err := NewFifoQueue(WithCapacity[int](0))
	require.Error(t, err)
	_, err = NewFifoQueue(WithLengthObserver[int](nil))
	require.Error(t, err)
}

func TestFifoQueue_Concurrent(t *testing.T) {
	queue, err := NewFifoQueue[int]()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				queue.Push(i*100 + j)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 800, queue.Len())
}
