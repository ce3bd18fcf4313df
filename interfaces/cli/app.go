// Package cli provides the presence command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	agentpresence "github.com/felixgeelhaar/agent-presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/config"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
)

// Version information set at build time.
var (
	Version   = agentpresence.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	logLevel  string
	logFormat string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "presence",
		Short: "Map voice-assistant states to presentation profiles",
		Long: `presence turns the state of a voice assistant (idle, connecting, listening,
thinking, speaking, disconnected) and an optional activity level into the
profile a front-end draws: accent, status text, bar range and animation.

Profiles are derived by a pure mapper. A feed of state updates can be watched
live, recorded to a timeline and replayed later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.initLogging("", "")
		},
	}

	app.root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	app.root.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "Log format (console or json)")

	// Add subcommands
	app.root.AddCommand(
		app.newVersionCmd(),
		app.newProfileCmd(),
		app.newTableCmd(),
		app.newWatchCmd(),
		app.newReplayCmd(),
		app.newExportCmd(),
		app.newValidateCmd(),
		app.newExportSchemaCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// initLogging points the default logger at stderr. Flags win over the
// configured level and format.
func (a *App) initLogging(level, format string) {
	cfg := logging.DefaultConfig()
	cfg.Output = a.stderr
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}
	if a.logLevel != "" {
		cfg.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Format = a.logFormat
	}
	logging.Init(cfg)
}

// loadConfig builds the components of the configuration at path, or the
// defaults when path is empty.
func loadConfig(path string, strict bool) (*config.BuildResult, error) {
	if path == "" {
		return config.NewBuilder(nil).Build()
	}

	loader := config.NewLoaderWithOptions(
		config.WithValidation(true),
		config.WithStrictEnv(strict),
	)
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	result, err := config.NewBuilder(cfg).Build()
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	return result, nil
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "presence version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
