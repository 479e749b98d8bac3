package tracking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketSource reads JSON tracking messages from a remote tracker over a websocket.
// A read failure that was not caused by Stop is reported as a MessageTrackingError.
type WebSocketSource struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer

	logger zerolog.Logger
	runner runner
}

// NewWebSocketSource creates a source for the tracker at url.
func NewWebSocketSource(url string, logger zerolog.Logger) *WebSocketSource {
	return &WebSocketSource{
		URL: url,
		Dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "websocket_source").Logger(),
	}
}

// Start dials the tracker.
func (s *WebSocketSource) Start(ctx context.Context) (<-chan Message, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		return nil, fmt.Errorf("dial tracker %s: %w", s.URL, err)
	}

	streamCtx, done := s.runner.begin(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})

	ch := make(chan Message, 64)
	go s.read(streamCtx, conn, ch, done)

	s.logger.Info().Str("url", s.URL).Msg("Connected to tracker")
	return ch, nil
}

// Stop closes the connection.
func (s *WebSocketSource) Stop() {
	s.runner.stop()
}

func (s *WebSocketSource) read(ctx context.Context, conn *websocket.Conn, ch chan<- Message, done chan struct{}) {
	defer close(done)
	defer close(ch)
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, context.Canceled) {
				s.logger.Warn().Err(err).Msg("Tracker connection lost")
				send(ctx, ch, Message{Kind: MessageTrackingError, Timestamp: time.Now(), Reason: err.Error()})
			}
			return
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Skipping malformed tracking message")
			continue
		}
		if !send(ctx, ch, msg) {
			return
		}
	}
}
