package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-presence/application"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
)

// replayOptions holds options for the replay command.
type replayOptions struct {
	configPath  string
	timelineDir string
	session     string
	play        bool
	speed       float64
	fromSeq     uint64
	jsonOutput  bool
	noColor     bool
}

// newReplayCmd creates the replay command.
func (a *App) newReplayCmd() *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Summarize or redraw recorded sessions",
		Long: `Summarize the sessions recorded by "presence watch --timeline", or redraw
one of them frame by frame.

Without --play every session (or the one named by --session) is summarized:
number of changes, out-of-order changes and time spent in each state.

Examples:
  # Summaries of every recorded session
  presence replay --timeline ./timeline

  # Redraw a session at twice the recorded pace
  presence replay --timeline ./timeline --session kiosk-1 --play --speed 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.replay(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.timelineDir, "timeline", "", "Timeline directory (default from configuration)")
	cmd.Flags().StringVar(&opts.session, "session", "", "Session to summarize or play")
	cmd.Flags().BoolVar(&opts.play, "play", false, "Redraw the session instead of summarizing it")
	cmd.Flags().Float64Var(&opts.speed, "speed", 0, "Playback speed; 0 draws every frame immediately")
	cmd.Flags().Uint64Var(&opts.fromSeq, "from", 0, "Start playback at this sequence number")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")

	return cmd
}

func (a *App) replay(cmd *cobra.Command, opts *replayOptions) error {
	result, err := loadConfig(opts.configPath, false)
	if err != nil {
		return err
	}

	dir := opts.timelineDir
	if dir == "" {
		dir = result.Timeline.Dir
	}
	if dir == "" {
		return fmt.Errorf("a timeline directory is required (--timeline flag)")
	}
	tl := result.Timeline
	tl.Dir = dir
	store, err := openTimeline(tl)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	replay := application.NewReplay(store)
	ctx := cmd.Context()

	if opts.play {
		if opts.session == "" {
			return fmt.Errorf("--play needs a session (--session flag)")
		}
		renderer, err := a.renderer(result.Render.Mode, opts.jsonOutput, render.Options{
			BarCount: result.Render.BarCount,
			NoColor:  opts.noColor || result.Render.NoColor,
		})
		if err != nil {
			return err
		}
		return replay.Play(ctx, opts.session, renderer, application.PlayOptions{
			Mapper:  result.Mapper,
			Speed:   opts.speed,
			FromSeq: opts.fromSeq,
		})
	}

	var summaries []timeline.Summary
	if opts.session != "" {
		sum, err := replay.Summarize(ctx, opts.session)
		if err != nil {
			return err
		}
		summaries = []timeline.Summary{sum}
	} else {
		summaries, err = replay.SummarizeAll(ctx)
		if err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		return a.printSummariesJSON(summaries)
	}
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No recorded sessions.")
		return nil
	}
	for i, sum := range summaries {
		if i > 0 {
			_, _ = fmt.Fprintln(a.stdout)
		}
		a.printSummary(sum)
	}
	return nil
}

func (a *App) printSummary(sum timeline.Summary) {
	_, _ = fmt.Fprintf(a.stdout, "Session: %s\n", sum.Session)
	_, _ = fmt.Fprintf(a.stdout, "  Span: %s - %s (%s)\n",
		sum.Start.Format(time.RFC3339), sum.End.Format(time.RFC3339), sum.End.Sub(sum.Start))
	_, _ = fmt.Fprintf(a.stdout, "  Changes: %d (%d out of order)\n", sum.Changes, sum.Spurious)
	for _, s := range presence.AllStates() {
		if d, ok := sum.Dwell[s]; ok {
			_, _ = fmt.Fprintf(a.stdout, "  %-13s %s\n", s+":", d)
		}
	}
}

type summaryJSON struct {
	Session  string           `json:"session"`
	Start    time.Time        `json:"start"`
	End      time.Time        `json:"end"`
	Changes  int              `json:"changes"`
	Spurious int              `json:"spurious"`
	DwellMs  map[string]int64 `json:"dwell_ms"`
}

func (a *App) printSummariesJSON(summaries []timeline.Summary) error {
	out := make([]summaryJSON, 0, len(summaries))
	for _, sum := range summaries {
		s := summaryJSON{
			Session:  sum.Session,
			Start:    sum.Start,
			End:      sum.End,
			Changes:  sum.Changes,
			Spurious: sum.Spurious,
			DwellMs:  make(map[string]int64, len(sum.Dwell)),
		}
		for state, d := range sum.Dwell {
			s.DwellMs[string(state)] = d.Milliseconds()
		}
		out = append(out, s)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summaries: %w", err)
	}
	_, _ = fmt.Fprintln(a.stdout, string(data))
	return nil
}
