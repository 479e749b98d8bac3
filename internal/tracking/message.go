// Package tracking connects an upstream hand tracker to registered gestures.
package tracking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/hand"
)

// MessageKind says what a tracking message carries.
type MessageKind string

const (
	// MessageAnchors carries hand anchor updates.
	MessageAnchors MessageKind = "anchors"
	// MessageAuthorizationDenied ends the stream: the user refused hand tracking.
	MessageAuthorizationDenied MessageKind = "authorizationDenied"
	// MessageTrackingError ends the stream: the tracker failed.
	MessageTrackingError MessageKind = "trackingError"
)

// AnchorUpdate is one hand's new state. A removed update only needs the chirality.
type AnchorUpdate struct {
	Hand    *hand.Hand `json:"hand"`
	Removed bool       `json:"removed,omitempty"`
}

// Message is one item of a tracking stream.
type Message struct {
	Kind      MessageKind    `json:"kind"`
	Updates   []AnchorUpdate `json:"updates,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Reason    string         `json:"reason,omitempty"`
}

// Terminal reports whether the message ends the stream.
func (m Message) Terminal() bool {
	return m.Kind == MessageAuthorizationDenied || m.Kind == MessageTrackingError
}

// AnchorsMessage builds an anchors message with one update per hand.
func AnchorsMessage(ts time.Time, hands ...*hand.Hand) Message {
	msg := Message{Kind: MessageAnchors, Timestamp: ts}
	for _, h := range hands {
		msg.Updates = append(msg.Updates, AnchorUpdate{Hand: h})
	}
	return msg
}

// RemovedMessage builds an anchors message removing the given hand.
func RemovedMessage(ts time.Time, c hand.Chirality) Message {
	return Message{
		Kind:      MessageAnchors,
		Timestamp: ts,
		Updates:   []AnchorUpdate{{Hand: &hand.Hand{Chirality: c}, Removed: true}},
	}
}

// FrameMessage converts a whole HandsFrame into an anchors message. Untracked hands are sent as removed.
func FrameMessage(f hand.HandsFrame) Message {
	msg := Message{Kind: MessageAnchors, Timestamp: f.Timestamp}
	for _, c := range hand.Chiralities {
		if h := f.Hand(c); h != nil {
			msg.Updates = append(msg.Updates, AnchorUpdate{Hand: h})
		} else {
			msg.Updates = append(msg.Updates, AnchorUpdate{Hand: &hand.Hand{Chirality: c}, Removed: true})
		}
	}
	return msg
}

// DecodeMessage parses and validates one JSON message.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Validate checks the message kind and that every update names a hand.
func (m Message) Validate() error {
	switch m.Kind {
	case MessageAnchors:
		for i, u := range m.Updates {
			if u.Hand == nil {
				return fmt.Errorf("update %d: missing hand", i)
			}
			if !u.Hand.Chirality.Valid() {
				return fmt.Errorf("update %d: invalid chirality %q", i, u.Hand.Chirality)
			}
		}
	case MessageAuthorizationDenied, MessageTrackingError:
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}
