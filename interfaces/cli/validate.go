package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-presence/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a presence configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version)
  - State names and tuning ranges
  - Feed, render and observability settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  presence validate -c presence.yaml

  # Strict validation (fail on missing env vars)
  presence validate -c presence.yaml --strict

  # Show the JSON schema for configuration
  presence validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loader := config.NewLoaderWithOptions(
		config.WithValidation(true),
		config.WithStrictEnv(opts.strict),
	)
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional validation via the builder
	result, err := config.NewBuilder(cfg).Build()
	if err != nil {
		return fmt.Errorf("configuration build failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	if cfg.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", cfg.Description)
	}

	// Summary
	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Initial state: %s\n", result.InitialState)
	fmt.Fprintf(a.stdout, "  Feed: %s\n", result.Source)
	fmt.Fprintf(a.stdout, "  Render: %s\n", result.Render.Mode)

	if len(cfg.States) > 0 {
		names := make([]string, 0, len(cfg.States))
		for name := range cfg.States {
			names = append(names, name)
		}
		slices.Sort(names)
		fmt.Fprintf(a.stdout, "  Tuned states: %d\n", len(names))
		for _, name := range names {
			fmt.Fprintf(a.stdout, "    - %s\n", name)
		}
	}

	if result.Timeline.Enabled {
		dir := result.Timeline.Dir
		if dir == "" {
			dir = "memory"
		}
		fmt.Fprintf(a.stdout, "  Timeline: %s\n", dir)
	}

	if result.Observability.Metrics {
		fmt.Fprintf(a.stdout, "  Metrics: enabled\n")
	}
	if result.Observability.Tracing != "" {
		fmt.Fprintf(a.stdout, "  Tracing: %s\n", result.Observability.Tracing)
	}

	return nil
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := config.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
