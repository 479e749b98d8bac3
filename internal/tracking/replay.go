package tracking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultReplayInterval paces replayed messages at 60 per second.
const DefaultReplayInterval = time.Second / 60

// ReplaySource plays back recorded messages on a ticker. Timestamps are rebased onto the
// time Start was called and keep increasing across loops, so time-based gestures behave as
// they did live. Without Loop the stream ends after the last message.
type ReplaySource struct {
	Messages []Message
	Interval time.Duration
	Loop     bool

	logger zerolog.Logger
	now    func() time.Time
	runner runner
}

// NewReplaySource creates a replay of messages.
func NewReplaySource(messages []Message, logger zerolog.Logger) *ReplaySource {
	return &ReplaySource{
		Messages: messages,
		Interval: DefaultReplayInterval,
		logger:   logger.With().Str("component", "replay_source").Logger(),
		now:      time.Now,
	}
}

// Start begins playback.
func (s *ReplaySource) Start(ctx context.Context) (<-chan Message, error) {
	if len(s.Messages) == 0 {
		return nil, ErrNoFrames
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultReplayInterval
	}

	streamCtx, done := s.runner.begin(ctx, nil)
	offsets := replayOffsets(s.Messages, interval)
	span := offsets[len(offsets)-1] + interval
	base := s.now()

	ch := make(chan Message, 1)
	go func() {
		defer close(done)
		defer close(ch)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for loop := 0; ; loop++ {
			for i, msg := range s.Messages {
				select {
				case <-streamCtx.Done():
					return
				case <-ticker.C:
				}
				msg.Timestamp = base.Add(time.Duration(loop)*span + offsets[i])
				if !send(streamCtx, ch, msg) {
					return
				}
			}
			if !s.Loop {
				s.logger.Debug().Int("messages", len(s.Messages)).Msg("Replay finished")
				return
			}
		}
	}()

	s.logger.Info().Int("messages", len(s.Messages)).Bool("loop", s.Loop).Msg("Replay started")
	return ch, nil
}

// Stop ends playback.
func (s *ReplaySource) Stop() {
	s.runner.stop()
}

// replayOffsets returns each message's time since the first one. Messages without a usable
// timestamp are placed interval after their predecessor.
func replayOffsets(messages []Message, interval time.Duration) []time.Duration {
	offsets := make([]time.Duration, len(messages))
	first := messages[0].Timestamp
	for i := 1; i < len(messages); i++ {
		ts := messages[i].Timestamp
		offset := ts.Sub(first)
		if first.IsZero() || ts.IsZero() || offset <= offsets[i-1] {
			offset = offsets[i-1] + interval
		}
		offsets[i] = offset
	}
	return offsets
}
