package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
)

// profileOptions holds options for the profile command.
type profileOptions struct {
	configPath string
	activity   float64
	jsonOutput bool
	noColor    bool
	bars       int
}

// newProfileCmd creates the profile command.
func (a *App) newProfileCmd() *cobra.Command {
	opts := &profileOptions{}

	cmd := &cobra.Command{
		Use:   "profile <state>",
		Short: "Derive the profile of one state",
		Long: `Derive and draw the presentation profile of a single state.

Unrecognised states are drawn as idle. With --activity the bar range and
animation are scaled by the given level, clamped to [0,1].

Examples:
  # Draw the listening profile
  presence profile listening

  # Speaking at 70% activity, as JSON
  presence profile speaking --activity 0.7 --json

  # Use tuned states from a configuration file
  presence profile thinking -c presence.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProfile(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().Float64Var(&opts.activity, "activity", 0, "Activity level in [0,1]")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")
	cmd.Flags().IntVar(&opts.bars, "bars", 0, "Number of bars to draw (default from configuration)")

	return cmd
}

func (a *App) runProfile(cmd *cobra.Command, name string, opts *profileOptions) error {
	result, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}

	state := presence.State(strings.ToLower(strings.TrimSpace(name)))
	if !state.IsValid() {
		logging.Warn().
			Add(logging.State(state)).
			Msg("unknown state, drawing idle")
	}

	u := presence.Update{State: state, At: time.Now()}
	if cmd.Flags().Changed("activity") {
		u = u.WithActivity(opts.activity)
	}

	renderer, err := a.renderer(result.Render.Mode, opts.jsonOutput, render.Options{
		BarCount: firstPositive(opts.bars, result.Render.BarCount),
		NoColor:  opts.noColor || result.Render.NoColor,
	})
	if err != nil {
		return err
	}

	return renderer.Render(render.Frame{
		At:       u.At,
		Activity: u.Activity,
		Profile:  result.Mapper.DeriveUpdate(u),
	})
}

// renderer picks the JSON renderer when asked for, else the configured mode.
func (a *App) renderer(mode string, jsonOutput bool, opts render.Options) (render.Renderer, error) {
	if jsonOutput {
		return render.NewJSON(a.stdout), nil
	}
	r, err := render.New(render.Mode(mode), a.stdout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return r, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
