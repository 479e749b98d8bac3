// Package commands implements the mudra command line.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/printer"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultConfigFile is read when --config is not given and the file exists.
const DefaultConfigFile = "mudra.yaml"

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mudra",
	Short: "mudra - hand gesture recognition runtime",
	Long: `mudra consumes hand-tracking data, recognises gestures (clap, snap, punch,
finger gun, holding a sphere and user-trained templates) and publishes their
change and end events to WebSocket clients, Redis and plugins.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./"+DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

// loadSettings reads the config file, falling back to defaults when no file is
// named and the default file does not exist.
func loadSettings() (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			return applyOverrides(config.Default())
		}
		path = DefaultConfigFile
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{fmt.Sprintf("Write a fresh config:\n  mudra init --config %s --force", path)},
		)
	}
	return applyOverrides(settings)
}

func applyOverrides(settings *config.Config) (*config.Config, error) {
	if logLevel != "" {
		if !logger.ValidLevel(logLevel) {
			return nil, printer.Error(
				"invalid log level",
				fmt.Sprintf("Unknown level: %s", logLevel),
				[]string{"Valid levels: trace, debug, info, warn, error"},
			)
		}
		settings.Log.Level = logLevel
	}
	return settings, nil
}

// newLogger builds the process logger from the log settings.
func newLogger(settings *config.Config) zerolog.Logger {
	switch settings.Log.Format {
	case "json":
		return logger.NewJSON(settings.Log.Level, os.Stderr)
	case "split":
		return logger.NewSplit(settings.Log.Level)
	}
	return logger.New(settings.Log.Level, os.Stderr)
}

// openStore opens the database, creating its directory.
func openStore(settings *config.Config) (*store.Store, error) {
	path := settings.Database.Path
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	s, err := store.New(path)
	if err != nil {
		return nil, printer.Error(
			"failed to open database",
			fmt.Sprintf("Error: %v", err),
			[]string{fmt.Sprintf("Check that %s is writable", path)},
		)
	}
	return s, nil
}
