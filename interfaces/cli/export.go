package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-presence/application"
	domaininspector "github.com/felixgeelhaar/agent-presence/domain/inspector"
	"github.com/felixgeelhaar/agent-presence/infrastructure/inspector"
)

// exportOptions holds options for the export command.
type exportOptions struct {
	configPath  string
	format      string
	session     string
	timelineDir string
	outputPath  string
}

// newExportCmd creates the export command.
func (a *App) newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the presentation table or a recorded session",
		Long: `Export the presentation table and its transition chart, or the timeline of
a recorded session.

Supported formats: json, mermaid, dot, csv, xstate. Sessions cannot be
exported as xstate.

Examples:
  # The transition chart as a Mermaid diagram
  presence export --format mermaid

  # The table as an XState machine definition
  presence export --format xstate -o machine.json

  # A recorded session as CSV
  presence export --format csv --timeline ./timeline --session kiosk-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Export format ("+formatNames()+")")
	cmd.Flags().StringVar(&opts.session, "session", "", "Export this recorded session instead of the table")
	cmd.Flags().StringVar(&opts.timelineDir, "timeline", "", "Timeline directory holding the session")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

func (a *App) export(cmd *cobra.Command, opts *exportOptions) error {
	format, err := domaininspector.ParseFormat(opts.format)
	if err != nil {
		return fmt.Errorf("%w: %s (supported: %s)", err, opts.format, formatNames())
	}

	result, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}

	var data []byte
	if opts.session == "" {
		service := application.NewInspectionService(
			inspector.NewDefaultInspector(inspector.NewTableExporter(inspector.Static(result.Mapper)), nil),
		)
		data, err = service.ExportTable(cmd.Context(), format)
	} else {
		dir := opts.timelineDir
		if dir == "" {
			dir = result.Timeline.Dir
		}
		if dir == "" {
			return fmt.Errorf("a timeline directory is required to export a session (--timeline flag)")
		}
		tl := result.Timeline
		tl.Dir = dir
		store, openErr := openTimeline(tl)
		if openErr != nil {
			return openErr
		}
		defer func() { _ = store.Close() }()

		service := application.NewInspectionService(inspector.NewDefaultInspector(
			inspector.NewTableExporter(inspector.Static(result.Mapper)),
			inspector.NewSessionExporter(store),
		))
		data, err = service.ExportSession(cmd.Context(), opts.session, format)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if opts.outputPath == "" {
		_, _ = a.stdout.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, _ = fmt.Fprintln(a.stdout)
		}
		return nil
	}

	// Write to file with restrictive permissions (G306)
	if err := os.WriteFile(opts.outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	_, _ = fmt.Fprintf(a.stdout, "Exported %s to %s\n", format, opts.outputPath)
	return nil
}

func formatNames() string {
	names := make([]string, 0, len(domaininspector.Formats()))
	for _, f := range domaininspector.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
