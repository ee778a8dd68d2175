package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/teamsactivity/pkg/config"
	"github.com/ccollicutt/teamsactivity/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a teamsactivity configuration file without reading any logs.

Checks:
  - YAML or TOML syntax
  - Log patterns
  - Timeout and timestamp layout
  - Event markers
  - Logging and webhook settings
  - Log directory contents (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = parser.DefaultLogDir()
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Log directory: %s\n", logDir)
	fmt.Fprintf(out, "  Log patterns:  %v\n", cfg.LogPatterns)
	fmt.Fprintf(out, "  Timeout:       %d minutes\n", cfg.Timeout)
	fmt.Fprintf(out, "  Webhooks:      %d\n", len(cfg.Webhooks))

	fmt.Fprintf(out, "\nMarkers:\n")
	fmt.Fprintf(out, "  startup:  %s\n", cfg.Markers.Startup)
	fmt.Fprintf(out, "  shutdown: %s\n", cfg.Markers.Shutdown)
	fmt.Fprintf(out, "  killed:   %s\n", cfg.Markers.Killed)
	fmt.Fprintf(out, "  locked:   %s\n", cfg.Markers.Locked)
	fmt.Fprintf(out, "  unlocked: %s\n", cfg.Markers.Unlocked)
	fmt.Fprintf(out, "  idle:     %s\n", cfg.Markers.Idle)

	// Missing logs are a warning, not a validation failure
	files, err := parser.DiscoverLogFiles(logDir, cfg.LogPatterns)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding log patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(out, "\nWarning: No files match log patterns in %s\n", logDir)
	} else {
		fmt.Fprintf(out, "\nLog files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	return nil
}
