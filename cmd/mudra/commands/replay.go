package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/printer"
)

var (
	replayInterval time.Duration
	replayLoop     bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording>",
	Short: "Run gesture recognition over a stored recording",
	Long: `Play back a recording (by ID or name) through the configured gestures and
print the resulting events. Bound plugins and Redis publishing run as in serve.

Examples:
  mudra replay snaps
  mudra replay snaps --loop --interval 33ms`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().DurationVar(&replayInterval, "interval", 0, "Playback pace, one message per tick (default 1/60s); timestamps keep the recorded spacing")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Restart the recording when it ends")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	settings.Tracking.Source = config.SourceReplay
	settings.Tracking.Replay.Recording = args[0]
	settings.Tracking.Replay.Loop = replayLoop
	if replayInterval > 0 {
		settings.Tracking.Replay.Interval = replayInterval
	}
	log := newLogger(settings)

	s, err := openStore(settings)
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := newApp(settings, s, log, cmd.OutOrStdout())
	if err != nil {
		return printer.Error(
			"failed to load recording",
			err.Error(),
			[]string{"List recordings:\n  mudra recordings"},
		)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		return printer.Error("failed to start gesture recognition", err.Error(), nil)
	}

	ctx, stop := signalContext()
	defer stop()

	// The dispatcher goes inactive when a non-looping replay runs out.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !a.Dispatcher().Active() {
				a.Stop()
				return nil
			}
		}
	}
}
