package events

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/metrics"
)

var ts = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestNew(t *testing.T) {
	e, err := New("snap", KindChanged, "right", ts, map[string]string{"pose": "postSnap"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "snap", e.Gesture)
	assert.Equal(t, KindChanged, e.Kind)
	assert.JSONEq(t, `{"pose":"postSnap"}`, string(e.Payload))
}

func TestNew_NilPayload(t *testing.T) {
	e, err := New("clap", KindEnded, "", ts, nil)
	require.NoError(t, err)
	assert.Nil(t, e.Payload)
}

func TestNew_UnmarshallablePayload(t *testing.T) {
	_, err := New("clap", KindChanged, "", ts, make(chan int))
	assert.Error(t, err)
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"valid", Event{Gesture: "snap", Kind: KindChanged, Timestamp: ts}, false},
		{"missing gesture", Event{Kind: KindChanged, Timestamp: ts}, true},
		{"unknown kind", Event{Gesture: "snap", Kind: "began", Timestamp: ts}, true},
		{"zero timestamp", Event{Gesture: "snap", Kind: KindEnded}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	e, err := Decode([]byte(`{"id":"1","gesture":"punch","kind":"ended","timestamp":"2026-01-02T03:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "punch", e.Gesture)
	assert.True(t, e.Timestamp.Equal(ts))

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"gesture":"punch","kind":"ended"}`))
	assert.Error(t, err)
}

type recorder struct {
	name   string
	err    error
	events []Event
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestFanout_DeliversToAll(t *testing.T) {
	m := metrics.NewCollector(zerolog.Nop(), "test")
	f := NewFanout(zerolog.Nop(), m)

	failing := &recorder{name: "broken", err: errors.New("boom")}
	ok := &recorder{name: "ok"}
	f.Attach(failing, ok)

	assert.Equal(t, []string{"broken", "ok"}, f.Publishers())

	e, err := New("snap", KindChanged, "left", ts, nil)
	require.NoError(t, err)

	err = f.Publish(context.Background(), e)
	assert.EqualError(t, err, "boom")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1, "a failing publisher must not block the others")

	body := scrape(t, m)
	assert.Contains(t, body, `test_gesture_events_total{gesture="snap",kind="changed"} 1`)
	assert.Contains(t, body, `test_gesture_publish_errors_total{publisher="broken"} 1`)
}

func TestFanout_NilMetrics(t *testing.T) {
	f := NewFanout(zerolog.Nop(), nil)
	var got []string
	f.Attach(PublisherFunc{ID: "fn", Fn: func(_ context.Context, e Event) error {
		got = append(got, e.Gesture)
		return nil
	}})

	require.NoError(t, f.Publish(context.Background(), Event{Gesture: "clap", Kind: KindChanged, Timestamp: ts}))
	assert.Equal(t, []string{"clap"}, got)
}

func scrape(t *testing.T, m *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
