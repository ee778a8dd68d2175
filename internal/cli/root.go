// Package cli provides the command-line interface for teamsactivity.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/teamsactivity/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return 0
}

// NewRootCommand creates the root cobra command. Run without a subcommand
// it prints the activity report.
func NewRootCommand() *cobra.Command {
	opts := &commands.ReportOptions{}

	rootCmd := &cobra.Command{
		Use:   "teamsactivity",
		Short: "Reconstruct working hours from Microsoft Teams logs",
		Long: `teamsactivity reads the Microsoft Teams desktop client's diagnostic logs
(logs.txt and old_logs_*.txt) and reconstructs when the computer was in use.

Teams startups and screen unlocks open a block of activity; shutdowns, kills
and screen locks close it. Locks caused by the idle timeout are moved back by
--timeout minutes. Blocks are summed per day, splitting at midnight.

Sections:
  -e, --events     every start and stop event
  -a, --activity   every block of activity with its length in hours
  -d, --daily      hours per day

Exit codes:
  0 - Report printed
  2 - Configuration or runtime error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunReport(cmd, opts)
		},
	}

	commands.AddReportFlags(rootCmd, opts)

	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
