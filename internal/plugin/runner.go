package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultMaxConcurrent caps plugin processes running at once.
const DefaultMaxConcurrent = 4

// Bindings looks up the actions bound to a gesture event.
type Bindings interface {
	ListFor(gesture, eventKind string) ([]*store.Action, error)
}

// Runner is an events.Publisher that runs the plugin actions bound to each
// event. Plugins run in the background; when MaxConcurrent runs are already in
// flight further runs are dropped.
type Runner struct {
	manager  *Manager
	executor *Executor
	bindings Bindings
	logger   zerolog.Logger
	metrics  *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	slots  chan struct{}
	wg     sync.WaitGroup
}

// RunnerConfig holds the Runner's collaborators.
type RunnerConfig struct {
	Manager       *Manager
	Executor      *Executor
	Bindings      Bindings
	Logger        zerolog.Logger
	Metrics       *metrics.Collector
	MaxConcurrent int
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Executor == nil {
		cfg.Executor = NewExecutor(DefaultTimeout)
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		manager:  cfg.Manager,
		executor: cfg.Executor,
		bindings: cfg.Bindings,
		logger:   cfg.Logger.With().Str("component", "plugin-runner").Logger(),
		metrics:  cfg.Metrics,
		ctx:      ctx,
		cancel:   cancel,
		slots:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Name returns the publisher's name.
func (r *Runner) Name() string { return "plugins" }

// Publish starts every enabled action bound to e. It returns once the runs are
// scheduled; lookup failures are returned, plugin failures are only logged.
func (r *Runner) Publish(_ context.Context, e events.Event) error {
	actions, err := r.bindings.ListFor(e.Gesture, string(e.Kind))
	if err != nil {
		return fmt.Errorf("failed to look up actions for %s: %w", e.Gesture, err)
	}

	for _, a := range actions {
		p, err := r.manager.Get(a.PluginName)
		if err != nil {
			r.logger.Warn().Str("plugin", a.PluginName).Str("action", a.ID).Msg("bound plugin is not installed")
			r.metrics.RecordPluginRun(a.PluginName, false, 0)
			continue
		}
		if !p.Supports(a.ActionName) {
			r.logger.Warn().Str("plugin", a.PluginName).Str("action_name", a.ActionName).Msg("plugin does not support action")
			r.metrics.RecordPluginRun(a.PluginName, false, 0)
			continue
		}

		select {
		case r.slots <- struct{}{}:
		default:
			r.logger.Warn().Str("plugin", a.PluginName).Str("gesture", e.Gesture).Msg("too many plugins running, dropping action")
			r.metrics.RecordPluginRun(a.PluginName, false, 0)
			continue
		}

		req := &Request{Action: a.ActionName, Config: a.Config, Event: e}
		r.wg.Add(1)
		go r.run(p, req)
	}
	return nil
}

func (r *Runner) run(p *Plugin, req *Request) {
	defer r.wg.Done()
	defer func() { <-r.slots }()

	start := time.Now()
	_, err := r.executor.Execute(r.ctx, p, req)
	elapsed := time.Since(start)
	r.metrics.RecordPluginRun(p.Manifest.Name, err == nil, elapsed)

	if err != nil {
		r.logger.Error().Err(err).
			Str("plugin", p.Manifest.Name).
			Str("action_name", req.Action).
			Str("gesture", req.Event.Gesture).
			Msg("plugin action failed")
		return
	}
	r.logger.Debug().
		Str("plugin", p.Manifest.Name).
		Str("action_name", req.Action).
		Dur("elapsed", elapsed).
		Msg("plugin action completed")
}

// Wait blocks until all scheduled runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels running plugins and waits for them to exit.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}
