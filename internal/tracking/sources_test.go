package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}, false
}

func TestReplaySource_RebasesTimestamps(t *testing.T) {
	src := NewReplaySource([]Message{
		AnchorsMessage(ms(0), right()),
		AnchorsMessage(ms(20), right()),
	}, zerolog.Nop())
	src.Interval = time.Millisecond
	src.Loop = true
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return base }

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	var stamps []time.Time
	for i := 0; i < 4; i++ {
		msg, ok := receive(t, ch)
		require.True(t, ok)
		stamps = append(stamps, msg.Timestamp)
	}

	assert.Equal(t, []time.Time{
		base,
		base.Add(20 * time.Millisecond),
		base.Add(21 * time.Millisecond),
		base.Add(41 * time.Millisecond),
	}, stamps)
}

func TestReplaySource_EndsWithoutLoop(t *testing.T) {
	src := NewReplaySource([]Message{AnchorsMessage(ms(0), right())}, zerolog.Nop())
	src.Interval = time.Millisecond

	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	_, ok := receive(t, ch)
	require.True(t, ok)
	_, ok = receive(t, ch)
	assert.False(t, ok, "channel closes after the last message")
	src.Stop()
}

func TestReplaySource_Empty(t *testing.T) {
	_, err := NewReplaySource(nil, zerolog.Nop()).Start(context.Background())
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestReplaySource_StopClosesChannel(t *testing.T) {
	src := NewReplaySource([]Message{AnchorsMessage(ms(0), right())}, zerolog.Nop())
	src.Interval = time.Hour

	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	src.Stop()
	_, ok := receive(t, ch)
	assert.False(t, ok)

	src.Stop()
}

func TestReplaySource_DrivesDispatcher(t *testing.T) {
	src := NewReplaySource([]Message{
		AnchorsMessage(ms(0), right()),
		RemovedMessage(ms(16), "right"),
	}, zerolog.Nop())
	src.Interval = time.Millisecond
	d := NewDispatcher(src)
	rec := newRecorder()
	d.Register(rec)
	defer d.Close()

	assert.NotNil(t, rec.next(t).Right)
	assert.Nil(t, rec.next(t).Right)
	require.Eventually(t, func() bool { return !d.Active() }, 2*time.Second, 5*time.Millisecond)
}

var upgrader = websocket.Upgrader{}

func TestWebSocketSource(t *testing.T) {
	payload, err := json.Marshal(AnchorsMessage(ms(1), right()))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, payload)
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	src := NewWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http"), zerolog.Nop())
	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	msg, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, MessageAnchors, msg.Kind)
	require.Len(t, msg.Updates, 1)
	assert.Equal(t, "right", string(msg.Updates[0].Hand.Chirality))

	src.Stop()
	_, ok = receive(t, ch)
	assert.False(t, ok)
}

func TestWebSocketSource_DialError(t *testing.T) {
	src := NewWebSocketSource("ws://127.0.0.1:1/none", zerolog.Nop())

	_, err := src.Start(context.Background())
	assert.Error(t, err)
	src.Stop()
}

func TestWebSocketSource_ConnectionLost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	src := NewWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http"), zerolog.Nop())
	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	msg, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, MessageTrackingError, msg.Kind)
}

func TestProcessSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.jsonl")

	line, err := json.Marshal(AnchorsMessage(ms(5), left()))
	require.NoError(t, err)
	content := "garbage\n\n" + string(line) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src := NewProcessSource("cat", []string{path}, zerolog.Nop())
	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	msg, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, MessageAnchors, msg.Kind)

	msg, ok = receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, MessageTrackingError, msg.Kind, "process exit ends the stream")
}

func TestProcessSource_StopWithBackgroundChild(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	src := NewProcessSource("sh", []string{"-c", "sleep 10 & wait"}, zerolog.Nop())
	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	start := time.Now()
	src.Stop()
	assert.Less(t, time.Since(start), 3*time.Second, "stop must not wait for the background child")

	_, ok := receive(t, ch)
	assert.False(t, ok, "stream closed after stop")
}

func TestProcessSource_MissingCommand(t *testing.T) {
	src := NewProcessSource(filepath.Join(t.TempDir(), "no-such-tracker"), nil, zerolog.Nop())

	_, err := src.Start(context.Background())
	assert.Error(t, err)
}
