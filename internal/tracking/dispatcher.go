package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/metrics"
)

// Handler receives every frame while it is registered.
type Handler interface {
	Handle(frame hand.HandsFrame)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(frame hand.HandsFrame)

// Handle calls f.
func (f HandlerFunc) Handle(frame hand.HandsFrame) {
	f(frame)
}

// Subscription identifies a registered handler.
type Subscription uuid.UUID

// String returns the subscription id.
func (s Subscription) String() string {
	return uuid.UUID(s).String()
}

// Stop reasons, used in logs and metrics.
const (
	stopUnsubscribed        = "unsubscribed"
	stopClosed              = "closed"
	stopStreamEnded         = "stream_ended"
	stopAuthorizationDenied = "authorization_denied"
	stopTrackingError       = "tracking_error"
)

// Dispatcher fans one tracking stream out to every registered handler.
//
// The stream runs exactly while at least one handler is registered. Registration,
// unregistration and frame delivery are serialized by one mutex, so a handler never
// runs concurrently with itself or after its Unregister returns. Handlers run on the
// pump goroutine and must not call Register or Unregister synchronously.
type Dispatcher struct {
	source  Source
	logger  zerolog.Logger
	metrics *metrics.Collector
	now     func() time.Time

	mu         sync.Mutex
	handlers   map[Subscription]Handler
	order      []Subscription
	frame      hand.HandsFrame
	active     bool
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger.With().Str("component", "dispatcher").Logger()
	}
}

// WithMetrics records stream and frame metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Dispatcher) {
		d.metrics = c
	}
}

// WithClock replaces time.Now for messages that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a dispatcher over source. The stream is not started until the
// first Register.
func NewDispatcher(source Source, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:   source,
		logger:   zerolog.Nop(),
		now:      time.Now,
		handlers: make(map[Subscription]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add registers a gesture, discarding its per-frame results. Use gesture.OnChanged or
// gesture.OnEnded to observe it.
func Add[V comparable](d *Dispatcher, g gesture.Gesture[V]) Subscription {
	if g == nil {
		return Subscription{}
	}
	return d.Register(HandlerFunc(func(frame hand.HandsFrame) {
		g.Update(frame)
	}))
}

// Register adds h and starts the stream if it is not running. A nil handler is ignored
// and yields the zero Subscription.
func (d *Dispatcher) Register(h Handler) Subscription {
	if h == nil {
		return Subscription{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	sub := Subscription(uuid.New())
	d.handlers[sub] = h
	d.order = append(d.order, sub)
	d.metrics.SetSubscribers(len(d.handlers))
	d.logger.Debug().Str("subscription", sub.String()).Int("subscribers", len(d.handlers)).Msg("Handler registered")

	if !d.active {
		d.start()
	}
	return sub
}

// Unregister removes a handler. When the last handler goes, the stream stops and the
// cached hands are cleared. Unknown subscriptions are ignored.
func (d *Dispatcher) Unregister(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.handlers[sub]; !ok {
		return
	}
	delete(d.handlers, sub)
	for i, s := range d.order {
		if s == sub {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.metrics.SetSubscribers(len(d.handlers))
	d.logger.Debug().Str("subscription", sub.String()).Int("subscribers", len(d.handlers)).Msg("Handler unregistered")

	if len(d.handlers) == 0 {
		d.stop(stopUnsubscribed)
	}
}

// Close unregisters every handler and stops the stream.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = make(map[Subscription]Handler)
	d.order = nil
	d.metrics.SetSubscribers(0)
	d.stop(stopClosed)
}

// Subscribers returns the number of registered handlers.
func (d *Dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

// Active reports whether the stream is running.
func (d *Dispatcher) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Hands returns the most recent cached frame.
func (d *Dispatcher) Hands() hand.HandsFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// start opens a new stream generation. Must be called with d.mu held.
func (d *Dispatcher) start() {
	d.generation++
	gen := d.generation

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := d.source.Start(ctx)
	if err != nil {
		cancel()
		d.metrics.RecordStreamStartError()
		d.logger.Error().Err(err).Msg("Failed to start tracking stream")
		return
	}

	d.active = true
	d.cancel = cancel
	d.metrics.RecordStreamStart()
	d.logger.Info().Uint64("generation", gen).Msg("Tracking stream started")

	go d.pump(ctx, gen, ch)
}

// stop ends the current stream and forgets the cached hands. Must be called with d.mu held.
func (d *Dispatcher) stop(reason string) {
	d.frame = hand.HandsFrame{}
	if !d.active {
		return
	}
	d.active = false
	d.generation++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.source.Stop()
	d.metrics.RecordStreamStop(reason)
	d.logger.Info().Str("reason", reason).Msg("Tracking stream stopped")
}

func (d *Dispatcher) pump(ctx context.Context, gen uint64, ch <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				d.terminate(gen, stopStreamEnded, "")
				return
			}
			if !d.handle(gen, msg) {
				return
			}
		}
	}
}

// handle applies one message. It returns false once the generation is stale or the stream has ended.
func (d *Dispatcher) handle(gen uint64, msg Message) bool {
	switch msg.Kind {
	case MessageAuthorizationDenied:
		d.terminate(gen, stopAuthorizationDenied, msg.Reason)
		return false
	case MessageTrackingError:
		d.terminate(gen, stopTrackingError, msg.Reason)
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		d.metrics.RecordDroppedFrame("stale")
		return false
	}
	if msg.Kind != MessageAnchors {
		d.metrics.RecordDroppedFrame("unknown_kind")
		d.logger.Warn().Str("kind", string(msg.Kind)).Msg("Ignoring unknown tracking message")
		return true
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = d.now()
	}
	if ts.Before(d.frame.Timestamp) {
		d.metrics.RecordDroppedFrame("out_of_order")
		d.logger.Debug().Time("timestamp", ts).Time("last", d.frame.Timestamp).Msg("Dropping out-of-order frame")
		return true
	}

	for _, u := range msg.Updates {
		if u.Hand == nil {
			continue
		}
		if u.Removed {
			d.frame.Clear(u.Hand.Chirality)
		} else {
			d.frame.Set(u.Hand)
		}
	}
	d.frame.Timestamp = ts

	started := time.Now()
	for _, sub := range d.order {
		d.handlers[sub].Handle(d.frame)
	}
	d.metrics.RecordFrame(time.Since(started))
	return true
}

// terminate handles the upstream ending on its own.
func (d *Dispatcher) terminate(gen uint64, reason, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		return
	}
	if detail != "" {
		d.logger.Warn().Str("reason", reason).Str("detail", detail).Msg("Tracking stream ended by upstream")
	}
	d.stop(reason)
}
