// Package app wires tracking, gesture classifiers and event publishers into the
// mudra runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracking"
)

// Config holds the application's collaborators.
type Config struct {
	Settings *config.Config
	Store    *store.Store
	Logger   zerolog.Logger
	Metrics  *metrics.Collector

	// Source overrides the tracking source built from Settings.
	Source tracking.Source
}

// App registers the configured gestures on a shared dispatcher and publishes
// their change and end events.
type App struct {
	settings *config.Config
	store    *store.Store
	logger   zerolog.Logger
	metrics  *metrics.Collector

	dispatcher  *tracking.Dispatcher
	fanout      *events.Fanout
	poseMatcher *gesture.Matcher
	pathMatcher *gesture.Matcher
	trainer     *gesture.Trainer
	pluginMgr   *plugin.Manager
	runner      *plugin.Runner
	redis       *events.RedisPublisher

	mu     sync.Mutex
	subs   []tracking.Subscription
	queue  chan events.Event
	stopCh chan struct{}
	done   chan struct{}
}

// New builds an App. The tracking stream does not start until Start.
func New(cfg Config) (*App, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewCollector(cfg.Logger, settings.Metrics.Namespace)
	}

	source := cfg.Source
	if source == nil {
		var err error
		source, err = NewSource(settings.Tracking, cfg.Store, cfg.Logger)
		if err != nil {
			return nil, err
		}
	}

	a := &App{
		settings:    settings,
		store:       cfg.Store,
		logger:      cfg.Logger.With().Str("component", "app").Logger(),
		metrics:     m,
		fanout:      events.NewFanout(cfg.Logger, m),
		poseMatcher: gesture.NewPoseMatcher(),
		pathMatcher: gesture.NewPathMatcher(),
		trainer:     gesture.NewTrainer(),
		pluginMgr:   plugin.NewManager(settings.Plugins.Dir, cfg.Logger),
	}
	a.dispatcher = tracking.NewDispatcher(source,
		tracking.WithLogger(cfg.Logger),
		tracking.WithMetrics(m),
	)

	if cfg.Store != nil {
		a.runner = plugin.NewRunner(plugin.RunnerConfig{
			Manager:       a.pluginMgr,
			Executor:      plugin.NewExecutor(settings.Plugins.Timeout),
			Bindings:      cfg.Store.Actions(),
			Logger:        cfg.Logger,
			Metrics:       m,
			MaxConcurrent: settings.Plugins.MaxConcurrent,
		})
		a.fanout.Attach(a.runner)
	}

	if settings.Redis.Enabled {
		a.redis = events.NewRedisPublisher(&redis.Options{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
		}, settings.Redis.Channel, cfg.Logger)
		a.fanout.Attach(a.redis)
	}

	return a, nil
}

// AddPublisher attaches another destination for gesture events.
func (a *App) AddPublisher(p events.Publisher) {
	a.fanout.Attach(p)
}

// DiscoverPlugins scans the plugin directory.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// LoadTemplates replaces the pose and path templates with the trained ones in the store.
// Templates without points are skipped.
func (a *App) LoadTemplates() error {
	if a.store == nil {
		return nil
	}

	stored, err := a.store.Templates().List()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	var poses, paths []*gesture.Template
	for _, t := range stored {
		points, err := a.store.Templates().Points(t.ID)
		if err != nil {
			a.logger.Warn().Err(err).Str("template", t.Name).Msg("failed to load template points")
			continue
		}
		if len(points) == 0 {
			continue
		}
		tpl := &gesture.Template{
			ID:        t.ID,
			Name:      t.Name,
			Type:      gesture.TemplateType(t.Type),
			Chirality: hand.Chirality(t.Chirality),
			Points:    points,
			Tolerance: t.Tolerance,
		}
		switch tpl.Type {
		case gesture.TemplatePose:
			poses = append(poses, tpl)
		case gesture.TemplatePath:
			paths = append(paths, tpl)
		}
	}

	a.poseMatcher.SetTemplates(poses)
	a.pathMatcher.SetTemplates(paths)
	a.logger.Info().Int("poses", len(poses)).Int("paths", len(paths)).Msg("Loaded templates")
	return nil
}

// Start loads templates, registers the configured gestures and begins
// publishing events. Calling Start on a running App does nothing.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.LoadTemplates(); err != nil {
		return err
	}

	a.queue = make(chan events.Event, EventQueueSize)
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done, a.queue)

	if err := a.registerGestures(); err != nil {
		a.stopLocked()
		return err
	}

	a.logger.Info().Int("gestures", len(a.subs)).Msg("Gesture recognition started")
	return nil
}

// Stop unregisters every gesture, which stops the tracking stream, and flushes
// queued events.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *App) stopLocked() {
	if a.stopCh == nil {
		return
	}

	for _, sub := range a.subs {
		a.dispatcher.Unregister(sub)
	}
	a.subs = nil

	close(a.stopCh)
	<-a.done
	a.stopCh = nil
	a.done = nil

	a.logger.Info().Msg("Gesture recognition stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// Close stops the app and releases plugins and connections.
func (a *App) Close() error {
	a.Stop()
	a.dispatcher.Close()
	if a.runner != nil {
		a.runner.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// Ping checks external dependencies.
func (a *App) Ping(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.DB().PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Dispatcher returns the shared tracking dispatcher.
func (a *App) Dispatcher() *tracking.Dispatcher {
	return a.dispatcher
}

// Store returns the database, which may be nil.
func (a *App) Store() *store.Store {
	return a.store
}

// Metrics returns the metrics collector.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

// Settings returns the configuration the app was built with.
func (a *App) Settings() *config.Config {
	return a.settings
}

// PoseMatcher returns the pose template matcher.
func (a *App) PoseMatcher() *gesture.Matcher {
	return a.poseMatcher
}

// PathMatcher returns the path template matcher.
func (a *App) PathMatcher() *gesture.Matcher {
	return a.pathMatcher
}

// Trainer returns the template trainer.
func (a *App) Trainer() *gesture.Trainer {
	return a.trainer
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}
