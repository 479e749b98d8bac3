package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mudra.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceWebSocket, cfg.Tracking.Source)
	assert.Equal(t, gesture.DefaultSnapDuration, cfg.Gestures.Snap.MaxDuration)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Gestures.Clap.Enabled)
	assert.False(t, cfg.Gestures.HandPoses.Enabled)
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9000"
tracking:
  source: replay
  replay:
    recording: rec-1
    interval: 10ms
    loop: true
redis:
  enabled: true
  addr: "redis:6379"
gestures:
  hands: [right]
  snap:
    max_duration: 300ms
    ambiguous: hold
  punch:
    frame_rate: 90
    require_high_fidelity: true
  holding_sphere:
    min_radius: 0.02
    max_radius: 0.2
  finger_gun:
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "mudra.db", cfg.Database.Path, "unset fields keep their defaults")
	assert.Equal(t, SourceReplay, cfg.Tracking.Source)
	assert.Equal(t, "rec-1", cfg.Tracking.Replay.Recording)
	assert.Equal(t, 10*time.Millisecond, cfg.Tracking.Replay.Interval)
	assert.True(t, cfg.Tracking.Replay.Loop)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "mudra:events", cfg.Redis.Channel)

	hands, err := cfg.Gestures.Chiralities()
	require.NoError(t, err)
	assert.Equal(t, []hand.Chirality{hand.Right}, hands)

	snap := cfg.Gestures.SnapSettings()
	assert.Equal(t, 300*time.Millisecond, snap.MaximumDuration)
	assert.Equal(t, gesture.AmbiguousHold, snap.Ambiguous)

	assert.Equal(t, 90.0, cfg.Gestures.Punch.FrameRate)
	assert.True(t, cfg.Gestures.Punch.RequireHighFidelity)
	assert.True(t, cfg.Gestures.Snap.Enabled, "enabled defaults survive a partial section")
	assert.False(t, cfg.Gestures.FingerGun.Enabled)

	minimum, maximum := cfg.Gestures.SphereBounds()
	assert.Equal(t, 0.02, minimum)
	assert.Equal(t, 0.2, maximum)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/mudra.yml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, "server.listen"},
		{"empty database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown source", func(c *Config) { c.Tracking.Source = "camera" }, "unknown source"},
		{"websocket without url", func(c *Config) { c.Tracking.WebSocket.URL = "" }, "websocket.url"},
		{"process without command", func(c *Config) { c.Tracking.Source = SourceProcess }, "process.command"},
		{"replay without recording", func(c *Config) { c.Tracking.Source = SourceReplay }, "replay.recording"},
		{"redis without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"no hands", func(c *Config) { c.Gestures.Hands = nil }, "hands"},
		{"unknown hand", func(c *Config) { c.Gestures.Hands = []string{"middle"} }, "chirality"},
		{"bad snap policy", func(c *Config) { c.Gestures.Snap.Ambiguous = "guess" }, "ambiguous"},
		{"negative frame rate", func(c *Config) { c.Gestures.Punch.FrameRate = -1 }, "frame_rate"},
		{"inverted sphere bounds", func(c *Config) {
			c.Gestures.HoldingSphere.MinRadius = 0.3
			c.Gestures.HoldingSphere.MaxRadius = 0.1
		}, "exceeds max_radius"},
		{"inverted path lengths", func(c *Config) {
			c.Gestures.Templates.PathLength = 5
			c.Gestures.Templates.MinPathLength = 10
		}, "exceeds path_length"},
		{"negative plugin timeout", func(c *Config) { c.Plugins.Timeout = -time.Second }, "plugins.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_LogFormats(t *testing.T) {
	for _, format := range []string{"", "console", "json", "split"} {
		cfg := Default()
		cfg.Log.Format = format
		assert.NoError(t, cfg.Validate(), "format %q", format)
	}
}

func TestGestures_Chiralities_Dedupes(t *testing.T) {
	g := GesturesConfig{Hands: []string{"left", "Left", "right"}}
	hands, err := g.Chiralities()
	require.NoError(t, err)
	assert.Equal(t, []hand.Chirality{hand.Left, hand.Right}, hands)
}

func TestGestures_SphereBounds_Unbounded(t *testing.T) {
	g := Default().Gestures
	minimum, maximum := g.SphereBounds()
	assert.Equal(t, 0.0, minimum)
	assert.True(t, math.IsInf(maximum, 1))
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Tracking.Source = SourceProcess
	cfg.Tracking.Process = ProcessConfig{Command: "hand-tracker", Args: []string{"--json"}}

	path := filepath.Join(t.TempDir(), "out.yml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
