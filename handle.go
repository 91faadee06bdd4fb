package parley

import (
	"context"
	"sync"
)

// Handle tracks a single execution request. It is fulfilled exactly once
// with (result, error) and exposes both an awaitable and a callback-style
// completion surface backed by the same authoritative path.
type Handle struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	result    any
	err       error
	callbacks []func(any, error)
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// complete fulfills the handle. Subsequent calls are ignored.
func (h *Handle) complete(result any, err error) {
	h.mu.Lock()
	if h.completed {
		h.mu.Unlock()
		return
	}
	h.completed = true
	h.result = result
	h.err = err
	callbacks := h.callbacks
	h.callbacks = nil
	close(h.done)
	h.mu.Unlock()

	for _, cb := range callbacks {
		cb(result, err)
	}
}

// Done returns a channel closed when the request completes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until completion or context cancellation.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Completed reports whether the handle has been fulfilled.
func (h *Handle) Completed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.completed
}

// Result returns the completion values. It is only meaningful after Done
// is closed.
func (h *Handle) Result() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// OnComplete registers a callback invoked with the completion values. If
// the handle is already fulfilled the callback runs immediately on the
// calling goroutine.
func (h *Handle) OnComplete(fn func(result any, err error)) *Handle {
	h.mu.Lock()
	if h.completed {
		result, err := h.result, h.err
		h.mu.Unlock()
		fn(result, err)
		return h
	}
	h.callbacks = append(h.callbacks, fn)
	h.mu.Unlock()
	return h
}
