package tracking

import (
	"context"
	"errors"
	"sync"
)

// ErrNoFrames is returned by Start on a replay with nothing to play.
var ErrNoFrames = errors.New("no frames to replay")

// Source produces hand tracking messages.
//
// Start begins a new stream and returns its channel. The source closes the channel when
// the stream ends, whether by Stop, context cancellation or upstream failure. Stop ends the
// current stream; calling it with no stream running is a no-op.
type Source interface {
	Start(ctx context.Context) (<-chan Message, error)
	Stop()
}

// runner tracks the goroutine behind one stream so Stop can end it and wait.
type runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	onStop func()
}

// begin stops any previous stream and returns the context and done channel for a new one.
func (r *runner) begin(ctx context.Context, onStop func()) (context.Context, chan struct{}) {
	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	streamCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.onStop = onStop
	return streamCtx, r.done
}

// stop cancels the current stream and waits for its goroutine to exit.
func (r *runner) stop() {
	r.mu.Lock()
	cancel, done, onStop := r.cancel, r.done, r.onStop
	r.cancel, r.done, r.onStop = nil, nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if onStop != nil {
		onStop()
	}
	<-done
}

// send delivers msg unless ctx ends first.
func send(ctx context.Context, ch chan<- Message, msg Message) bool {
	select {
	case ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
