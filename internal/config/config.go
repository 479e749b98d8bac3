// Package config loads the mudra YAML configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/tracking"
)

// Tracking source kinds.
const (
	SourceWebSocket = "websocket"
	SourceProcess   = "process"
	SourceReplay    = "replay"
)

// Config is the top-level mudra.yml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracking TrackingConfig `yaml:"tracking"`
	Redis    RedisConfig    `yaml:"redis"`
	Gestures GesturesConfig `yaml:"gestures"`
	Plugins  PluginsConfig  `yaml:"plugins"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json" or "split"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// TrackingConfig selects where hand anchors come from.
type TrackingConfig struct {
	Source    string          `yaml:"source"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Process   ProcessConfig   `yaml:"process"`
	Replay    ReplayConfig    `yaml:"replay"`
}

// WebSocketConfig points at a remote tracker streaming JSON messages.
type WebSocketConfig struct {
	URL string `yaml:"url"`
}

// ProcessConfig runs a local tracker that prints JSON lines.
type ProcessConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

// ReplayConfig plays back a stored recording.
type ReplayConfig struct {
	Recording string        `yaml:"recording"`
	Interval  time.Duration `yaml:"interval,omitempty"` // playback pace only
	Loop      bool          `yaml:"loop"`
}

// RedisConfig configures the optional redis event publisher.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// GesturesConfig enables and tunes the classifiers.
type GesturesConfig struct {
	// Hands lists the chiralities single-hand gestures are registered for.
	Hands         []string            `yaml:"hands"`
	Clap          ToggleConfig        `yaml:"clap"`
	Snap          SnapConfig          `yaml:"snap"`
	Punch         PunchConfig         `yaml:"punch"`
	FingerGun     ToggleConfig        `yaml:"finger_gun"`
	HoldingSphere HoldingSphereConfig `yaml:"holding_sphere"`
	HandPoses     ToggleConfig        `yaml:"hand_poses"`
	Templates     TemplatesConfig     `yaml:"templates"`
}

// ToggleConfig is a gesture with no tunables.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SnapConfig tunes snap recognition.
type SnapConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxDuration time.Duration `yaml:"max_duration"`
	Ambiguous   string        `yaml:"ambiguous"`
}

// PunchConfig tunes punch velocity.
type PunchConfig struct {
	Enabled             bool    `yaml:"enabled"`
	FrameRate           float64 `yaml:"frame_rate"`
	RequireHighFidelity bool    `yaml:"require_high_fidelity"`
}

// HoldingSphereConfig bounds accepted sphere radii in metres. A zero maximum is unbounded.
type HoldingSphereConfig struct {
	Enabled   bool    `yaml:"enabled"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
}

// TemplatesConfig enables user-defined pose and path gestures.
type TemplatesConfig struct {
	Enabled       bool `yaml:"enabled"`
	PathLength    int  `yaml:"path_length"`
	MinPathLength int  `yaml:"min_path_length"`
}

// PluginsConfig configures plugin discovery and execution.
type PluginsConfig struct {
	Dir           string        `yaml:"dir"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Listen: "127.0.0.1:8420"},
		Database: DatabaseConfig{Path: "mudra.db"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Metrics:  MetricsConfig{Namespace: metrics.DefaultNamespace},
		Tracking: TrackingConfig{
			Source:    SourceWebSocket,
			WebSocket: WebSocketConfig{URL: "ws://127.0.0.1:8765/hands"},
			Replay:    ReplayConfig{Interval: tracking.DefaultReplayInterval},
		},
		Redis: RedisConfig{
			Addr:    "127.0.0.1:6379",
			Channel: events.DefaultChannel,
		},
		Gestures: GesturesConfig{
			Hands: []string{string(hand.Left), string(hand.Right)},
			Clap:  ToggleConfig{Enabled: true},
			Snap: SnapConfig{
				Enabled:     true,
				MaxDuration: gesture.DefaultSnapDuration,
				Ambiguous:   string(gesture.AmbiguousIgnore),
			},
			Punch:         PunchConfig{Enabled: true, FrameRate: gesture.DefaultFrameRate},
			FingerGun:     ToggleConfig{Enabled: true},
			HoldingSphere: HoldingSphereConfig{Enabled: true},
			HandPoses:     ToggleConfig{Enabled: false},
			Templates: TemplatesConfig{
				Enabled:       true,
				PathLength:    gesture.DefaultPathLength,
				MinPathLength: gesture.DefaultMinPathLength,
			},
		},
		Plugins: PluginsConfig{
			Dir:           "plugins",
			Timeout:       plugin.DefaultTimeout,
			MaxConcurrent: plugin.DefaultMaxConcurrent,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "console", "json", "split":
	default:
		return fmt.Errorf("log.format must be console, json or split, got %q", c.Log.Format)
	}

	if err := c.Tracking.Validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if err := c.Gestures.Validate(); err != nil {
		return fmt.Errorf("gestures: %w", err)
	}
	if c.Plugins.Timeout < 0 {
		return fmt.Errorf("plugins.timeout must not be negative")
	}
	if c.Plugins.MaxConcurrent < 0 {
		return fmt.Errorf("plugins.max_concurrent must not be negative")
	}
	return nil
}

// Validate checks that the selected source has what it needs.
func (t *TrackingConfig) Validate() error {
	switch t.Source {
	case SourceWebSocket:
		if t.WebSocket.URL == "" {
			return fmt.Errorf("websocket.url is required")
		}
	case SourceProcess:
		if t.Process.Command == "" {
			return fmt.Errorf("process.command is required")
		}
	case SourceReplay:
		if t.Replay.Recording == "" {
			return fmt.Errorf("replay.recording is required")
		}
		if t.Replay.Interval < 0 {
			return fmt.Errorf("replay.interval must not be negative")
		}
	default:
		return fmt.Errorf("unknown source %q (want websocket, process or replay)", t.Source)
	}
	return nil
}

// Validate checks gesture tunables.
func (g *GesturesConfig) Validate() error {
	if _, err := g.Chiralities(); err != nil {
		return err
	}
	if _, err := gesture.ParseAmbiguousPolicy(g.Snap.Ambiguous); err != nil {
		return fmt.Errorf("snap: %w", err)
	}
	if g.Snap.MaxDuration < 0 {
		return fmt.Errorf("snap.max_duration must not be negative")
	}
	if g.Punch.FrameRate < 0 {
		return fmt.Errorf("punch.frame_rate must not be negative")
	}
	hs := g.HoldingSphere
	if hs.MinRadius < 0 || hs.MaxRadius < 0 {
		return fmt.Errorf("holding_sphere radii must not be negative")
	}
	if hs.MaxRadius > 0 && hs.MinRadius > hs.MaxRadius {
		return fmt.Errorf("holding_sphere.min_radius %.3f exceeds max_radius %.3f", hs.MinRadius, hs.MaxRadius)
	}
	if g.Templates.PathLength < 0 || g.Templates.MinPathLength < 0 {
		return fmt.Errorf("template path lengths must not be negative")
	}
	if g.Templates.PathLength > 0 && g.Templates.MinPathLength > g.Templates.PathLength {
		return fmt.Errorf("templates.min_path_length %d exceeds path_length %d", g.Templates.MinPathLength, g.Templates.PathLength)
	}
	return nil
}

// Chiralities parses Hands, dropping duplicates.
func (g *GesturesConfig) Chiralities() ([]hand.Chirality, error) {
	if len(g.Hands) == 0 {
		return nil, fmt.Errorf("hands must list at least one of left, right")
	}
	var out []hand.Chirality
	seen := make(map[hand.Chirality]bool)
	for _, s := range g.Hands {
		c, err := hand.ParseChirality(s)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// SnapSettings converts the snap section for the classifier.
func (g *GesturesConfig) SnapSettings() gesture.SnapConfig {
	policy, err := gesture.ParseAmbiguousPolicy(g.Snap.Ambiguous)
	if err != nil {
		policy = gesture.AmbiguousIgnore
	}
	return gesture.SnapConfig{MaximumDuration: g.Snap.MaxDuration, Ambiguous: policy}
}

// SphereBounds returns the accepted radius range, with a zero maximum read as unbounded.
func (g *GesturesConfig) SphereBounds() (minimum, maximum float64) {
	maximum = g.HoldingSphere.MaxRadius
	if maximum == 0 {
		maximum = math.Inf(1)
	}
	return g.HoldingSphere.MinRadius, maximum
}
