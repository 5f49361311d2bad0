package util

import (
	"context"
	"sync"

	"github.com/attestnet/attest/module"
)

// AllReady calls Ready on all input components and returns a channel that is
// closed when all input components are ready.
func AllReady(components ...module.ReadyDoneAware) <-chan struct{} {
	readyChans := make([]<-chan struct{}, len(components))

	for i, c := range components {
		readyChans[i] = c.Ready()
	}

	return AllClosed(readyChans...)
}

// SequentialDone calls Done on the input components one after the other, in reverse
// order, waiting for each to be done before moving to the next. The returned channel
// is closed once the first component is done.
func SequentialDone(components ...module.ReadyDoneAware) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(components) - 1; i >= 0; i-- {
			<-components[i].Done()
		}
	}()
	return done
}

// AllClosed returns a channel that is closed when all input channels are closed.
func AllClosed(channels ...<-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup

	for _, ch := range channels {
		wg.Add(1)
		go func(ch <-chan struct{}) {
			<-ch
			wg.Done()
		}(ch)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

// WaitClosed waits for either a signal/close on the channel or for the context to be
// cancelled. Returns nil if the channel was closed first, otherwise the context error.
func WaitClosed(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ctx.Done():
		select {
		case <-ch:
			return nil
		default:
		}
		return ctx.Err()
	case <-ch:
		return nil
	}
}
