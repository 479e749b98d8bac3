package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/metrics"
)

// Publisher delivers events to one destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc struct {
	ID string
	Fn func(ctx context.Context, e Event) error
}

// Name returns the publisher's name.
func (p PublisherFunc) Name() string { return p.ID }

// Publish calls the wrapped function.
func (p PublisherFunc) Publish(ctx context.Context, e Event) error { return p.Fn(ctx, e) }

// Fanout publishes every event to all attached publishers. A failing publisher is
// logged and counted; it never blocks delivery to the others.
type Fanout struct {
	logger  zerolog.Logger
	metrics *metrics.Collector

	mu         sync.RWMutex
	publishers []Publisher
}

// NewFanout creates an empty fanout.
func NewFanout(logger zerolog.Logger, m *metrics.Collector) *Fanout {
	return &Fanout{
		logger:  logger.With().Str("component", "events").Logger(),
		metrics: m,
	}
}

// Attach adds publishers in delivery order.
func (f *Fanout) Attach(p ...Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishers = append(f.publishers, p...)
}

// Publishers returns the names of attached publishers.
func (f *Fanout) Publishers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, len(f.publishers))
	for i, p := range f.publishers {
		names[i] = p.Name()
	}
	return names
}

// Name implements Publisher so fanouts can nest.
func (f *Fanout) Name() string { return "fanout" }

// Publish delivers e to every publisher and returns the first error, if any.
func (f *Fanout) Publish(ctx context.Context, e Event) error {
	f.mu.RLock()
	publishers := append([]Publisher(nil), f.publishers...)
	f.mu.RUnlock()

	f.metrics.RecordEvent(e.Gesture, string(e.Kind))

	var first error
	for _, p := range publishers {
		if err := p.Publish(ctx, e); err != nil {
			f.metrics.RecordPublishError(p.Name())
			f.logger.Warn().Err(err).
				Str("publisher", p.Name()).
				Str("gesture", e.Gesture).
				Str("kind", string(e.Kind)).
				Msg("failed to publish event")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
