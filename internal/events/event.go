// Package events carries recognised gesture events from the classifiers to the
// outside world: websocket clients, redis subscribers, the terminal and plugins.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind says which combinator produced an event.
type Kind string

const (
	// KindChanged is emitted when a gesture's value changes.
	KindChanged Kind = "changed"
	// KindEnded is emitted with the last value when a gesture stops being recognised.
	KindEnded Kind = "ended"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	return k == KindChanged || k == KindEnded
}

// Event is a single gesture notification.
type Event struct {
	ID        string          `json:"id"`
	Gesture   string          `json:"gesture"`
	Kind      Kind            `json:"kind"`
	Chirality string          `json:"chirality,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// New builds an event with a fresh ID, marshalling payload as JSON.
func New(gesture string, kind Kind, chirality string, ts time.Time, payload any) (Event, error) {
	e := Event{
		ID:        uuid.NewString(),
		Gesture:   gesture,
		Kind:      kind,
		Chirality: chirality,
		Timestamp: ts,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", gesture, err)
		}
		e.Payload = data
	}
	return e, e.Validate()
}

// Validate checks the required fields of an event.
func (e Event) Validate() error {
	if e.Gesture == "" {
		return fmt.Errorf("gesture is required")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("invalid event kind %q", e.Kind)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Decode parses an event from JSON and validates it.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
