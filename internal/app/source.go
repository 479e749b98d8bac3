package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
)

// NewSource builds the tracking source selected in cfg. Replays read their
// recording from s.
func NewSource(cfg config.TrackingConfig, s *store.Store, logger zerolog.Logger) (tracking.Source, error) {
	switch cfg.Source {
	case config.SourceWebSocket:
		return tracking.NewWebSocketSource(cfg.WebSocket.URL, logger), nil
	case config.SourceProcess:
		return tracking.NewProcessSource(cfg.Process.Command, cfg.Process.Args, logger), nil
	case config.SourceReplay:
		if s == nil {
			return nil, fmt.Errorf("replay needs a database")
		}
		messages, err := LoadRecording(s, cfg.Replay.Recording)
		if err != nil {
			return nil, err
		}
		replay := tracking.NewReplaySource(messages, logger)
		if cfg.Replay.Interval > 0 {
			replay.Interval = cfg.Replay.Interval
		}
		replay.Loop = cfg.Replay.Loop
		return replay, nil
	}
	return nil, fmt.Errorf("unknown tracking source %q", cfg.Source)
}

// LoadRecording decodes a stored recording, looked up by ID and then by name.
func LoadRecording(s *store.Store, ref string) ([]tracking.Message, error) {
	id := ref
	frames, err := s.Recordings().Frames(id)
	if errors.Is(err, store.ErrNotFound) {
		id, err = recordingIDByName(s, ref)
		if err == nil {
			frames, err = s.Recordings().Frames(id)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recording %q: %w", ref, err)
	}

	messages := make([]tracking.Message, 0, len(frames))
	for i, raw := range frames {
		msg, err := tracking.DecodeMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("recording %q frame %d: %w", ref, i, err)
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("recording %q: %w", ref, tracking.ErrNoFrames)
	}
	return messages, nil
}

func recordingIDByName(s *store.Store, name string) (string, error) {
	recordings, err := s.Recordings().List()
	if err != nil {
		return "", err
	}
	for _, r := range recordings {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return "", store.ErrNotFound
}

// recordBatch is how many messages are written per transaction.
const recordBatch = 60

// Record stores messages from source until ctx is done, the stream ends or
// limit messages have been captured (limit <= 0 means no limit). Terminal
// messages end the recording and are not stored.
func Record(ctx context.Context, source tracking.Source, s *store.Store, name string, limit int, logger zerolog.Logger) (*store.Recording, error) {
	rec := &store.Recording{ID: uuid.NewString(), Name: name}
	if err := s.Recordings().Create(rec); err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := source.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start tracking: %w", err)
	}
	defer source.Stop()

	var (
		batch []json.RawMessage
		first time.Time
		last  time.Time
		total int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Recordings().AppendFrames(rec.ID, batch, last.Sub(first)); err != nil {
			return fmt.Errorf("failed to store frames: %w", err)
		}
		batch = batch[:0]
		return nil
	}

loop:
	for limit <= 0 || total < limit {
		select {
		case <-ctx.Done():
			break loop
		case msg, ok := <-ch:
			if !ok {
				break loop
			}
			if msg.Terminal() {
				logger.Warn().Str("kind", string(msg.Kind)).Str("reason", msg.Reason).Msg("tracking ended during recording")
				break loop
			}
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return nil, fmt.Errorf("failed to encode message: %w", err)
			}
			if first.IsZero() {
				first = msg.Timestamp
			}
			last = msg.Timestamp
			batch = append(batch, data)
			total++
			if len(batch) >= recordBatch {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	stored, err := s.Recordings().Get(rec.ID)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("recording", stored.ID).Int("frames", stored.Frames).Dur("duration", stored.Duration()).Msg("Recording saved")
	return stored, nil
}
