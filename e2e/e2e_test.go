package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
)

// storeSnapRecording saves a right-hand snap: pre-snap, post-snap 100ms later,
// then an open hand.
func storeSnapRecording(t *testing.T, s *store.Store, name string) {
	t.Helper()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	poses := []func(hand.Chirality, mgl64.Mat4) *hand.Hand{hand.PreSnapHand, hand.PostSnapHand, hand.OpenHand}

	var frames []json.RawMessage
	for i, pose := range poses {
		msg := tracking.AnchorsMessage(base.Add(time.Duration(i)*100*time.Millisecond), pose(hand.Right, mgl64.Ident4()))
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		frames = append(frames, data)
	}

	require.NoError(t, s.Recordings().Create(&store.Recording{ID: "rec-1", Name: name}))
	require.NoError(t, s.Recordings().AppendFrames("rec-1", frames, 200*time.Millisecond))
}

func TestE2E_ReplayPublishesEverywhere(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer s.Close()
	storeSnapRecording(t, s, "snaps")

	mr := miniredis.RunT(t)

	settings := config.Default()
	settings.Tracking.Source = config.SourceReplay
	settings.Tracking.Replay.Recording = "snaps"
	settings.Redis.Enabled = true
	settings.Redis.Addr = mr.Addr()
	settings.Redis.Channel = "e2e:events"
	settings.Gestures.Hands = []string{"right"}
	settings.Gestures.Clap.Enabled = false
	settings.Gestures.Punch.Enabled = false
	settings.Gestures.FingerGun.Enabled = false
	settings.Gestures.HoldingSphere.Enabled = false
	settings.Gestures.Templates.Enabled = false
	settings.Plugins.Dir = ""

	a, err := app.New(app.Config{Settings: settings, Store: s, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer a.Close()

	hub := server.NewHub(zerolog.Nop())
	a.AddPublisher(hub)
	ts := httptest.NewServer(server.New(server.Config{
		Store:   s,
		Logger:  zerolog.Nop(),
		Metrics: a.Metrics(),
		Hub:     hub,
		Health:  a,
	}))
	defer ts.Close()

	// Redis subscriber, as "mudra watch" runs it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher := events.NewRedisPublisher(&redis.Options{Addr: mr.Addr()}, "e2e:events", zerolog.Nop())
	defer watcher.Close()
	fromRedis := make(chan events.Event, 16)
	go watcher.Subscribe(ctx, func(e events.Event) {
		select {
		case fromRedis <- e:
		default:
		}
	})
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("e2e:*")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// WebSocket client
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Start())

	want := []events.Kind{events.KindChanged, events.KindChanged, events.KindEnded}

	t.Run("Redis", func(t *testing.T) {
		for i, kind := range want {
			select {
			case e := <-fromRedis:
				assert.Equal(t, "snap", e.Gesture, "event %d", i)
				assert.Equal(t, kind, e.Kind, "event %d", i)
			case <-time.After(3 * time.Second):
				t.Fatalf("timed out waiting for event %d", i)
			}
		}
	})

	t.Run("WebSocket", func(t *testing.T) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for i, kind := range want {
			var e events.Event
			require.NoError(t, conn.ReadJSON(&e))
			assert.Equal(t, kind, e.Kind, "event %d", i)
		}
	})

	t.Run("ReplayEnds", func(t *testing.T) {
		require.Eventually(t, func() bool {
			return !a.Dispatcher().Active()
		}, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `mudra_gesture_events_total{gesture="snap",kind="ended"} 1`)
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestE2E_TrainAndRecognise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer s.Close()

	settings := config.Default()
	settings.Gestures.Hands = []string{"left"}
	settings.Gestures.Clap.Enabled = false
	settings.Gestures.Snap.Enabled = false
	settings.Gestures.Punch.Enabled = false
	settings.Gestures.FingerGun.Enabled = false
	settings.Gestures.HoldingSphere.Enabled = false
	settings.Plugins.Dir = ""

	source := tracking.NewMockSource()
	a, err := app.New(app.Config{Settings: settings, Store: s, Source: source, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer a.Close()

	got := make(chan events.Event, 16)
	a.AddPublisher(events.PublisherFunc{ID: "test", Fn: func(_ context.Context, e events.Event) error {
		got <- e
		return nil
	}})

	ts := httptest.NewServer(server.New(server.Config{
		Store:    s,
		Logger:   zerolog.Nop(),
		Reloader: a,
		Hands:    a.Dispatcher(),
	}))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/templates", "application/json",
		strings.NewReader(`{"name": "fist", "type": "pose", "chirality": "left", "tolerance": 0.3}`))
	require.NoError(t, err)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	require.NoError(t, a.Start())

	// Show a fist and capture it as the template's sample.
	require.True(t, source.Send(tracking.AnchorsMessage(time.Now(), hand.FistHand(hand.Left, mgl64.Ident4()))))
	require.Eventually(t, func() bool { return a.Dispatcher().Hands().Left != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Post(ts.URL+"/api/templates/"+created.ID+"/samples", "application/json",
		strings.NewReader(`{"capture": true}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The same fist somewhere else is recognised by name.
	require.True(t, source.Send(tracking.AnchorsMessage(time.Now(), hand.FistHand(hand.Left, mgl64.Translate3D(0.2, 1.1, -0.3)))))

	select {
	case e := <-got:
		assert.Equal(t, "fist", e.Gesture)
		assert.Equal(t, events.KindChanged, e.Kind)
		assert.Equal(t, "left", e.Chirality)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for template event")
	}
}
