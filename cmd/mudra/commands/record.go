package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/printer"
)

var (
	recordFrames   int
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record <name>",
	Short: "Record the live tracking stream for later replay",
	Long: `Store messages from the configured tracking source until interrupted, the
stream ends, or the frame or duration limit is reached.

Examples:
  mudra record snaps --duration 30s
  mudra record claps --frames 600`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().IntVar(&recordFrames, "frames", 0, "Stop after this many messages (0 = no limit)")
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "Stop after this long (0 = no limit)")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.Tracking.Source == config.SourceReplay {
		return printer.Error(
			"cannot record a replay",
			"The configured tracking source is a replay.",
			[]string{"Set tracking.source to websocket or process"},
		)
	}
	log := newLogger(settings)

	s, err := openStore(settings)
	if err != nil {
		return err
	}
	defer s.Close()

	source, err := app.NewSource(settings.Tracking, s, log)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if recordDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}

	printer.Step("Recording %q, press Ctrl+C to stop\n", args[0])
	rec, err := app.Record(ctx, source, s, args[0], recordFrames, log)
	if err != nil {
		return printer.Error("recording failed", err.Error(), nil)
	}

	printer.Success("Saved %s: %d frames over %s\n", rec.ID, rec.Frames, rec.Duration())
	fmt.Fprintf(cmd.OutOrStdout(), "Replay it with:\n  mudra replay %s\n", rec.Name)
	return nil
}
