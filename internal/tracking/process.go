package tracking

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// maxLineSize bounds one JSON message from a tracker process.
const maxLineSize = 1 << 20

// processWaitDelay bounds how long Wait lingers on output held open by the
// tracker's own children after the tracker has exited.
const processWaitDelay = time.Second

// ProcessSource runs an external tracker and reads one JSON message per stdout line.
// The process is started by Start and killed by Stop.
type ProcessSource struct {
	Command string
	Args    []string

	logger zerolog.Logger
	runner runner
}

// NewProcessSource creates a source that runs command with args.
func NewProcessSource(command string, args []string, logger zerolog.Logger) *ProcessSource {
	return &ProcessSource{
		Command: command,
		Args:    args,
		logger:  logger.With().Str("component", "process_source").Str("command", command).Logger(),
	}
}

// Start launches the tracker process.
func (s *ProcessSource) Start(ctx context.Context) (<-chan Message, error) {
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	// Closing the read end unblocks the scanner even when a grandchild still holds stdout.
	streamCtx, done := s.runner.begin(ctx, func() { stdout.Close() })

	cmd := exec.CommandContext(streamCtx, s.Command, s.Args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = s.logger.With().Str("stream", "stderr").Logger()
	cmd.WaitDelay = processWaitDelay

	err = cmd.Start()
	stdoutW.Close()
	if err != nil {
		close(done)
		s.runner.stop()
		return nil, fmt.Errorf("start tracker process: %w", err)
	}

	ch := make(chan Message, 64)
	go func() {
		defer close(done)
		defer close(ch)
		defer stdout.Close()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			msg, err := DecodeMessage(line)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Skipping malformed tracking message")
				continue
			}
			if !send(streamCtx, ch, msg) {
				break
			}
		}

		err := cmd.Wait()
		if streamCtx.Err() != nil {
			return
		}
		reason := "tracker process exited"
		if err != nil {
			reason = fmt.Sprintf("tracker process exited: %v", err)
		} else if scanErr := scanner.Err(); scanErr != nil {
			reason = fmt.Sprintf("read tracker output: %v", scanErr)
		}
		s.logger.Warn().Str("reason", reason).Msg("Tracker process ended")
		send(streamCtx, ch, Message{Kind: MessageTrackingError, Timestamp: time.Now(), Reason: reason})
	}()

	s.logger.Info().Msg("Tracker process started")
	return ch, nil
}

// Stop kills the tracker process.
func (s *ProcessSource) Stop() {
	s.runner.stop()
}
