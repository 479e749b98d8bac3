package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List trained gesture templates",
	RunE:  runTemplates,
}

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List stored recordings",
	RunE:  runRecordings,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(recordingsCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	s, err := openStore(settings)
	if err != nil {
		return err
	}
	defer s.Close()

	templates, err := s.Templates().List()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	if len(templates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates. Create one with POST /api/templates.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tHAND\tSAMPLES\tTOLERANCE\tID")
	for _, t := range templates {
		chirality := t.Chirality
		if chirality == "" {
			chirality = "any"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\n", t.Name, t.Type, chirality, t.Samples, t.Tolerance, t.ID)
	}
	return w.Flush()
}

func runRecordings(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	s, err := openStore(settings)
	if err != nil {
		return err
	}
	defer s.Close()

	recordings, err := s.Recordings().List()
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}
	if len(recordings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recordings. Capture one with:\n  mudra record <name>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFRAMES\tDURATION\tCREATED\tID")
	for _, r := range recordings {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", r.Name, r.Frames, r.Duration(), r.CreatedAt.Format("2006-01-02 15:04"), r.ID)
	}
	return w.Flush()
}
