package app

import (
	"context"
	"time"

	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/hand"
)

// EventQueueSize bounds events waiting to be published. Classifiers run under
// the dispatcher lock, so publishing happens on the pipeline goroutine instead.
const EventQueueSize = 256

// publishTimeout bounds one fanout delivery.
const publishTimeout = 5 * time.Second

// runPipeline publishes queued events until stopCh closes, then flushes what is
// left in the queue.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}, queue <-chan events.Event) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			for {
				select {
				case e := <-queue:
					a.publish(e)
				default:
					return
				}
			}
		case e := <-queue:
			a.publish(e)
		}
	}
}

func (a *App) publish(e events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	// Fanout logs and counts failures itself.
	_ = a.fanout.Publish(ctx, e)
}

// emitter turns classifier values into queued events. It never blocks: when the
// queue is full the event is dropped and logged.
type emitter struct {
	app   *App
	queue chan<- events.Event
}

func (em emitter) emit(name string, kind events.Kind, c hand.Chirality, ts time.Time, value any) {
	e, err := events.New(name, kind, string(c), ts, value)
	if err != nil {
		em.app.logger.Error().Err(err).Str("gesture", name).Msg("failed to build event")
		return
	}
	select {
	case em.queue <- e:
	default:
		em.app.metrics.RecordPublishError("queue")
		em.app.logger.Warn().Str("gesture", name).Str("kind", string(kind)).Msg("event queue full, dropping event")
	}
}
