package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/printer"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

var (
	serveListen string
	servePrint  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run gesture recognition with the HTTP API",
	Long: `Connect to the configured hand tracker, recognise gestures and publish their
events to WebSocket clients (/api/events), Redis and bound plugins.

The HTTP server also exposes template training (/api/templates), action
bindings (/api/actions), recordings, plugins, /api/health and /metrics.

Examples:
  mudra serve
  mudra serve --listen :8420 --print`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Override the configured listen address")
	serveCmd.Flags().BoolVarP(&servePrint, "print", "p", false, "Print gesture events to stdout")
	rootCmd.AddCommand(serveCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newApp builds the runtime with plugins discovered. Events are printed to out when it is not nil.
func newApp(settings *config.Config, s *store.Store, log zerolog.Logger, out io.Writer) (*app.App, error) {
	a, err := app.New(app.Config{
		Settings: settings,
		Store:    s,
		Logger:   log,
		Metrics:  metrics.NewCollector(log, settings.Metrics.Namespace),
	})
	if err != nil {
		return nil, err
	}
	if err := a.DiscoverPlugins(); err != nil {
		log.Warn().Err(err).Str("dir", settings.Plugins.Dir).Msg("failed to discover plugins")
	}
	if out != nil {
		a.AddPublisher(printer.NewEventPrinter(out))
	}
	return a, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if serveListen != "" {
		settings.Server.Listen = serveListen
	}
	log := newLogger(settings)

	s, err := openStore(settings)
	if err != nil {
		return err
	}
	defer s.Close()

	var out io.Writer
	if servePrint {
		out = cmd.OutOrStdout()
	}
	a, err := newApp(settings, s, log, out)
	if err != nil {
		return printer.Error("failed to start", err.Error(), nil)
	}
	defer a.Close()

	hub := server.NewHub(log)
	a.AddPublisher(hub)

	if err := a.Start(); err != nil {
		return printer.Error("failed to start gesture recognition", err.Error(), nil)
	}

	srv := server.New(server.Config{
		StaticDir: settings.Server.StaticDir,
		Store:     s,
		Logger:    log,
		Metrics:   a.Metrics(),
		Hub:       hub,
		Health:    a,
		Reloader:  a,
		Hands:     a.Dispatcher(),
		Plugins:   a.PluginManager(),
	})

	ctx, stop := signalContext()
	defer stop()

	printer.Step("Serving on http://%s\n", settings.Server.Listen)
	if err := srv.ListenAndServe(ctx, settings.Server.Listen); err != nil {
		return printer.Error("server failed", err.Error(), []string{"Choose another address:\n  mudra serve --listen 127.0.0.1:8421"})
	}
	return nil
}
