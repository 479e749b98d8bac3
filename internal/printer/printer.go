// Package printer writes coloured terminal output for the mudra CLI.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/ayusman/mudra/internal/events"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Success prints a success message in green with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ %s", fmt.Sprintf(format, a...))
}

// Info prints an informational message in the default color.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	yellow.Printf("⚠️  %s", fmt.Sprintf(format, a...))
}

// Step prints a step message with emphasis.
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Error prints a formatted error to stderr and returns a simple error for Cobra.
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// EventPrinter writes one line per gesture event.
type EventPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewEventPrinter returns a printer writing to out, or stdout when out is nil.
func NewEventPrinter(out io.Writer) *EventPrinter {
	if out == nil {
		out = os.Stdout
	}
	return &EventPrinter{out: out}
}

// Name returns the publisher's name.
func (p *EventPrinter) Name() string { return "printer" }

// Publish prints e as "<time> <kind> <gesture> [chirality] payload".
func (p *EventPrinter) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	kind := green
	if e.Kind == events.KindEnded {
		kind = yellow
	}

	if _, err := faint.Fprintf(p.out, "%s ", e.Timestamp.Format("15:04:05.000")); err != nil {
		return err
	}
	if _, err := kind.Fprintf(p.out, "%-7s ", e.Kind); err != nil {
		return err
	}
	if _, err := cyan.Fprint(p.out, e.Gesture); err != nil {
		return err
	}
	if e.Chirality != "" {
		if _, err := fmt.Fprintf(p.out, " [%s]", e.Chirality); err != nil {
			return err
		}
	}
	if len(e.Payload) > 0 {
		if _, err := fmt.Fprintf(p.out, " %s", e.Payload); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.out)
	return err
}
