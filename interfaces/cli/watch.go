package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-presence/application"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/config"
	"github.com/felixgeelhaar/agent-presence/infrastructure/feed"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
	inframw "github.com/felixgeelhaar/agent-presence/infrastructure/middleware"
	"github.com/felixgeelhaar/agent-presence/infrastructure/observability"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

// watchOptions holds options for the watch command.
type watchOptions struct {
	configPath    string
	source        string
	session       string
	initial       string
	renderMode    string
	jsonOutput    bool
	noColor       bool
	clear         bool
	bars          int
	record        bool
	timelineDir   string
	dropStale     bool
	rejectUnknown bool
	metrics       bool
	tracing       string
	endpoint      string
	noReload      bool
}

// newWatchCmd creates the watch command.
func (a *App) newWatchCmd() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Draw the profile of every update of a feed",
		Long: `Watch a feed of presence updates and draw the derived profile of each one.

Sources:
  stdin                   JSON lines or "state [activity]" lines (default)
  file:PATH               the same, read from a file
  ws://HOST/PATH          a websocket delivering one update per message
  redis://HOST:PORT/CHAN  a Redis pub/sub channel

Network feeds reconnect with backoff. While the connection is down the
session is drawn as disconnected.

With -c the configuration file is watched and edits apply to the next frame.

Examples:
  # Type states by hand
  presence watch

  # Follow a websocket, record the timeline
  presence watch --source ws://localhost:8080/presence --timeline ./timeline

  # JSON frames with metrics totals on exit
  presence watch --source file:session.jsonl --json --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Feed source (default from configuration, else stdin)")
	cmd.Flags().StringVar(&opts.session, "session", "", "Session for updates that name none")
	cmd.Flags().StringVar(&opts.initial, "initial", "", "Initial state (disconnected or idle)")
	cmd.Flags().StringVar(&opts.renderMode, "render", "", "Render mode (terminal or json)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Shorthand for --render json")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Clear the screen before each frame")
	cmd.Flags().IntVar(&opts.bars, "bars", 0, "Number of bars to draw")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Record state changes to a timeline")
	cmd.Flags().StringVar(&opts.timelineDir, "timeline", "", "Timeline directory (implies --record)")
	cmd.Flags().BoolVar(&opts.dropStale, "drop-stale", false, "Drop updates older than the last one of their session")
	cmd.Flags().BoolVar(&opts.rejectUnknown, "reject-unknown", false, "Drop updates with unrecognised states instead of drawing idle")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Collect metrics and log their totals on exit")
	cmd.Flags().StringVar(&opts.tracing, "tracing", "", "Trace exporter (stdout or otlp)")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "OTLP collector endpoint")
	cmd.Flags().BoolVar(&opts.noReload, "no-reload", false, "Do not watch the configuration file")

	return cmd
}

func (a *App) watch(cmd *cobra.Command, opts *watchOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		result  *config.BuildResult
		mappers application.MapperSource
		watcher *config.Watcher
	)
	if opts.configPath != "" && !opts.noReload {
		w, err := config.NewWatcher(opts.configPath, config.NewLoaderWithOptions(config.WithValidation(true)))
		if err != nil {
			return err
		}
		watcher, result, mappers = w, w.Current(), w
	} else {
		r, err := loadConfig(opts.configPath, false)
		if err != nil {
			return err
		}
		result, mappers = r, application.StaticMapper(r.Mapper)
	}
	if err := applyWatchFlags(result, opts); err != nil {
		return err
	}
	a.initLogging(result.Logging.Level, result.Logging.Format)

	provider, err := observability.New(append(
		observability.FromSettings(
			result.Observability.Metrics,
			result.Observability.Tracing,
			result.Observability.Endpoint,
			a.stderr,
		),
		observability.WithServiceVersion(Version),
	)...)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer a.shutdownObservability(provider)

	var metrics telemetry.Metrics = &telemetry.NoopMetricsProvider{}
	if provider.MetricsEnabled() {
		metrics = telemetry.NewMetricsProvider(telemetry.MetricsConfig{MeterProvider: provider.MeterProvider()})
	}

	var store timeline.Store
	if result.Timeline.Enabled {
		store, err = openTimeline(result.Timeline)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	renderer, err := render.New(render.Mode(result.Render.Mode), a.stdout, render.Options{
		BarCount: result.Render.BarCount,
		NoColor:  result.Render.NoColor,
		Clear:    opts.clear,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	source, err := feed.Open(result.Source, feed.Options{
		Session:   result.Session,
		Reconnect: result.Reconnect,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}

	chain := application.DefaultMiddleware(inframw.ValidationConfig{
		RejectStale:   opts.dropStale,
		RejectUnknown: opts.rejectUnknown,
	}).Use("observability", observability.CombinedMiddleware(provider.Tracer(), metrics))

	presenter, err := application.NewPresenter(application.PresenterConfig{
		Source:       source,
		Renderer:     renderer,
		Mappers:      mappers,
		Timeline:     store,
		Metrics:      metrics,
		Middleware:   chain,
		InitialState: result.InitialState,
		Session:      result.Session,
	})
	if err != nil {
		return err
	}
	defer presenter.Close()

	if watcher != nil {
		watcher.OnReload(func(*config.BuildResult) {
			if err := presenter.Refresh(); err != nil {
				logging.Warn().
					Add(logging.ErrorField(err)).
					Msg("redraw after reload failed")
			}
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logging.Warn().
					Add(logging.Path(opts.configPath)).
					Add(logging.ErrorField(err)).
					Msg("config watcher stopped")
			}
		}()
	}

	runErr := presenter.Run(ctx)

	for _, id := range presenter.Sessions() {
		stats, _ := presenter.Stats(id)
		logging.Info().
			Add(logging.Session(id)).
			Add(logging.State(stats.Current)).
			Add(logging.Count("changes", stats.Changes)).
			Add(logging.Count("spurious", stats.Spurious)).
			Msg("session summary")
	}
	a.logTotals(provider)

	return runErr
}

// applyWatchFlags lets explicit flags override the configuration.
func applyWatchFlags(result *config.BuildResult, opts *watchOptions) error {
	if opts.source != "" {
		result.Source = opts.source
	}
	if opts.session != "" {
		result.Session = opts.session
	}
	if opts.initial != "" {
		s, err := presence.ParseState(opts.initial)
		if err != nil {
			return err
		}
		if !s.IsInitial() {
			return fmt.Errorf("%w: %s", presence.ErrInvalidInitialState, s)
		}
		result.InitialState = s
	}
	if opts.renderMode != "" {
		result.Render.Mode = opts.renderMode
	}
	if opts.jsonOutput {
		result.Render.Mode = string(render.ModeJSON)
	}
	if opts.noColor {
		result.Render.NoColor = true
	}
	if opts.bars > 0 {
		result.Render.BarCount = opts.bars
	}
	if opts.record {
		result.Timeline.Enabled = true
	}
	if opts.timelineDir != "" {
		result.Timeline.Enabled = true
		result.Timeline.Dir = opts.timelineDir
	}
	if opts.metrics {
		result.Observability.Metrics = true
	}
	if opts.tracing != "" {
		result.Observability.Tracing = opts.tracing
	}
	if opts.endpoint != "" {
		result.Observability.Endpoint = opts.endpoint
	}
	return nil
}

// logTotals logs every collected metric.
func (a *App) logTotals(provider *observability.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rm, ok, err := provider.Collect(ctx)
	if err != nil {
		logging.Warn().Add(logging.ErrorField(err)).Msg("collecting metrics failed")
		return
	}
	if !ok {
		return
	}
	for _, t := range observability.Totals(rm) {
		e := logging.Info().
			Add(logging.Str("metric", t.Name)).
			Add(logging.Str("value", fmt.Sprintf("%g%s", t.Value, t.Unit)))
		if t.Count > 0 {
			e = e.Add(logging.Count("samples", int(t.Count)))
		}
		e.Msg("metric total")
	}
}

func (a *App) shutdownObservability(provider *observability.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		logging.Warn().Add(logging.ErrorField(err)).Msg("observability shutdown failed")
	}
}
