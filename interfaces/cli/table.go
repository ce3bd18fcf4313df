package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
)

// tableOptions holds options for the table command.
type tableOptions struct {
	configPath  string
	jsonOutput  bool
	noColor     bool
	transitions bool
}

// newTableCmd creates the table command.
func (a *App) newTableCmd() *cobra.Command {
	opts := &tableOptions{}

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the profile of every state",
		Long: `Show the presentation table: the profile of every state in table order.

Examples:
  # Draw every state
  presence table

  # The table as JSON, with canonical transitions
  presence table --json --transitions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showTable(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")
	cmd.Flags().BoolVar(&opts.transitions, "transitions", false, "Include canonical transitions")

	return cmd
}

// tableJSON is the JSON shape of the table command.
type tableJSON struct {
	Profiles    []presence.Profile    `json:"profiles"`
	Transitions []presence.Transition `json:"transitions,omitempty"`
}

func (a *App) showTable(opts *tableOptions) error {
	result, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}
	profiles := result.Mapper.Profiles()

	if opts.jsonOutput {
		out := tableJSON{Profiles: profiles}
		if opts.transitions {
			out.Transitions = presence.CanonicalTransitions()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal table: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, string(data))
		return nil
	}

	terminal := render.NewTerminal(a.stdout, render.Options{
		BarCount: result.Render.BarCount,
		NoColor:  opts.noColor || result.Render.NoColor,
	})
	for i, p := range profiles {
		if i > 0 {
			_, _ = fmt.Fprintln(a.stdout)
		}
		_, _ = fmt.Fprintf(a.stdout, "%s\n", strings.ToUpper(p.State.String()))
		if err := terminal.Render(render.Frame{Profile: p}); err != nil {
			return err
		}
	}

	if opts.transitions {
		_, _ = fmt.Fprintf(a.stdout, "\nCanonical transitions:\n")
		for _, t := range presence.CanonicalTransitions() {
			if t.Label != "" {
				_, _ = fmt.Fprintf(a.stdout, "  %s -> %s (%s)\n", t.From, t.To, t.Label)
			} else {
				_, _ = fmt.Fprintf(a.stdout, "  %s -> %s\n", t.From, t.To)
			}
		}
	}
	return nil
}
