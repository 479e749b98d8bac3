package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/events"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestEventPrinter(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	p := NewEventPrinter(&buf)

	err := p.Publish(context.Background(), events.Event{
		Gesture:   "snap",
		Kind:      events.KindChanged,
		Chirality: "right",
		Timestamp: time.Date(2026, 1, 1, 12, 30, 15, 250_000_000, time.UTC),
		Payload:   json.RawMessage(`{"pose":"postSnap"}`),
	})
	require.NoError(t, err)
	require.Equal(t, "12:30:15.250 changed snap [right] {\"pose\":\"postSnap\"}\n", buf.String())

	buf.Reset()
	err = p.Publish(context.Background(), events.Event{
		Gesture:   "clap",
		Kind:      events.KindEnded,
		Timestamp: time.Date(2026, 1, 1, 12, 30, 16, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "12:30:16.000 ended   clap\n", buf.String())
	require.Equal(t, "printer", p.Name())
}
