package commands

import (
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/printer"
)

var (
	watchAddr   string
	watchOutput string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow gesture events published to Redis",
	Long: `Subscribe to the Redis channel a running "mudra serve" publishes to and print
each gesture event.

Output Formats:
  default - One human-readable line per event
  json    - Line-delimited JSON for programmatic processing

Examples:
  mudra watch
  mudra watch --addr 10.0.0.5:6379 --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "Override the configured Redis address")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOutput != "default" && watchOutput != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutput),
			[]string{"Valid formats: default, json"},
		)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if watchAddr != "" {
		settings.Redis.Addr = watchAddr
	}
	log := newLogger(settings)

	sub := events.NewRedisPublisher(&redis.Options{
		Addr:     settings.Redis.Addr,
		Password: settings.Redis.Password,
		DB:       settings.Redis.DB,
	}, settings.Redis.Channel, log)
	defer sub.Close()

	ctx, stop := signalContext()
	defer stop()

	if err := sub.Ping(ctx); err != nil {
		return printer.Error(
			"cannot reach Redis",
			fmt.Sprintf("Error: %v", err),
			[]string{
				fmt.Sprintf("Check that Redis is running at %s", settings.Redis.Addr),
				"Enable publishing in the server config:\n  redis:\n    enabled: true",
			},
		)
	}

	out := cmd.OutOrStdout()
	eventPrinter := printer.NewEventPrinter(out)
	encoder := json.NewEncoder(out)

	printer.Step("Watching %s on %s\n", sub.Channel(), settings.Redis.Addr)
	err = sub.Subscribe(ctx, func(e events.Event) {
		if watchOutput == "json" {
			encoder.Encode(e)
			return
		}
		eventPrinter.Publish(ctx, e)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("subscription failed: %w", err)
	}
	return nil
}
