package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/teamsactivity/pkg/activity"
	"github.com/ccollicutt/teamsactivity/pkg/config"
	"github.com/ccollicutt/teamsactivity/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	LogDir  string
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues.

This command checks:
- Config file syntax and structure (when one is given)
- Log directory and log file discovery
- Timestamp parsing against the actual logs
- How often each event marker appears
- Webhook configuration

Example:
  teamsactivity diagnose
  teamsactivity diagnose -l ~/teams-logs config.yaml
  teamsactivity diagnose -v config.yaml  # verbose output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := ""
			if len(args) == 1 {
				configPath = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), configPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.LogDir, "logs", "l", "", "Teams log directory (overrides config)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	var cfg *config.Config
	if configPath == "" {
		c, err := config.Load(ctx, "")
		if err != nil {
			results = append(results, DiagnosticResult{
				Check:   "Config",
				Status:  "error",
				Message: fmt.Sprintf("Default configuration is invalid: %v", err),
				Suggests: []string{
					fmt.Sprintf("Check the %s and %s environment variables", config.EnvLogDir, config.EnvTimeout),
				},
			})
			printDiagnostics(w, results, opts)
			return nil
		}
		cfg = c
		results = append(results, DiagnosticResult{
			Check:   "Config",
			Status:  "ok",
			Message: "No config file given, using defaults",
		})
	} else {
		result := checkConfigExists(configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}

		c, result := checkConfigParseable(ctx, configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
		cfg = c
	}

	if opts.LogDir != "" {
		cfg.LogDir = opts.LogDir
	}

	logDir, result := checkLogDir(cfg.LogDir)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	files, fileResults := checkLogFiles(logDir, cfg.LogPatterns)
	results = append(results, fileResults...)

	if len(files) > 0 {
		results = append(results, checkLogContents(ctx, cfg, files, opts)...)
	}

	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Run without a config file to use the Teams defaults",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Run without a config file to use the Teams defaults",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch {
		case strings.Contains(err.Error(), "toml"):
			result.Suggests = []string{
				"Check TOML syntax - strings must be quoted",
			}
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Log patterns: %v", cfg.LogPatterns),
		fmt.Sprintf("Timeout: %d minutes", cfg.Timeout),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkLogDir(dir string) (string, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Log Directory",
	}

	if dir == "" {
		dir = parser.DefaultLogDir()
	}
	if dir == "" {
		result.Status = "error"
		result.Message = "Cannot determine the platform Teams log directory"
		result.Suggests = []string{"Pass the directory with --logs"}
		return dir, result
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		result.Status = "error"
		result.Message = fmt.Sprintf("Directory does not exist: %s", dir)
		result.Suggests = []string{
			"Check that the Teams desktop client is installed",
			"Pass the directory with --logs",
		}
	case err != nil:
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access directory: %v", err)
		result.Suggests = []string{"Check directory permissions"}
	case !info.IsDir():
		result.Status = "error"
		result.Message = fmt.Sprintf("Not a directory: %s", dir)
	default:
		result.Status = "ok"
		result.Message = dir
	}

	return dir, result
}

func checkLogFiles(dir string, patterns []string) ([]string, []DiagnosticResult) {
	results := []DiagnosticResult{}
	var files []string

	for _, pattern := range patterns {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Pattern: %s", pattern),
		}

		matches, err := parser.DiscoverLogFiles(dir, []string{pattern})
		switch {
		case err != nil:
			result.Status = "error"
			result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
		case len(matches) == 0:
			result.Status = "warning"
			result.Message = "Pattern matches no files"
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
			for _, m := range matches {
				size := int64(-1)
				if info, err := os.Stat(m); err == nil {
					size = info.Size()
				}
				result.Details = append(result.Details, fmt.Sprintf("%s (%d bytes)", filepath.Base(m), size))
			}
			files = append(files, matches...)
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  "error",
			Message: "No Teams log files found",
			Suggests: []string{
				"Teams writes logs.txt once the desktop client has run",
				"Pass the directory with --logs",
			},
		})
	}

	return files, results
}

// checkLogContents reads every discovered file once, measuring how many lines
// carry a parsable timestamp and how often each event marker appears.
func checkLogContents(ctx context.Context, cfg *config.Config, files []string, opts *DiagnoseOptions) []DiagnosticResult {
	tsResult := DiagnosticResult{Check: "Timestamp Format"}
	markerResult := DiagnosticResult{Check: "Event Markers"}

	rules := activity.NewRules(cfg.Markers)
	source := parser.NewFileSource(files, cfg.TimestampLayout)
	defer source.Close()

	var total, parsed int
	var sampleFail string
	labels := make(map[string]int)

	prev, current := "", ""
	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			tsResult.Status = "error"
			tsResult.Message = fmt.Sprintf("Cannot read logs: %v", err)
			return []DiagnosticResult{tsResult}
		}

		if line.Source != current {
			current = line.Source
			prev = ""
		}

		total++
		if line.HasTimestamp {
			parsed++
		} else if sampleFail == "" && strings.TrimSpace(line.Raw) != "" {
			sampleFail = line.Raw
		}

		if m, ok := activity.Classify(rules, line.Raw, prev); ok {
			labels[m.Label]++
		}
		prev = line.Raw
	}

	switch {
	case total == 0:
		tsResult.Status = "warning"
		tsResult.Message = "Log files are empty"
	case parsed == 0:
		tsResult.Status = "error"
		tsResult.Message = fmt.Sprintf("Timestamp layout matches none of %d lines", total)
		tsResult.Suggests = []string{
			"Expected lines starting like: Fri Jan 22 2021 12:30:18 GMT-0700",
			fmt.Sprintf("Current layout: %s", cfg.TimestampLayout),
		}
	case parsed < total/2:
		tsResult.Status = "warning"
		tsResult.Message = fmt.Sprintf("Timestamp layout matches only %d/%d lines", parsed, total)
	default:
		tsResult.Status = "ok"
		tsResult.Message = fmt.Sprintf("Timestamp layout matches %d/%d lines", parsed, total)
	}
	if sampleFail != "" && (tsResult.Status != "ok" || opts.Verbose) {
		tsResult.Details = []string{
			"Sample line without a timestamp:",
			truncate(sampleFail, 80),
		}
	}

	starts := labels[activity.LabelStartup] + labels[activity.LabelUnlocked]
	stops := labels[activity.LabelShutdown] + labels[activity.LabelKilled] +
		labels[activity.LabelLockedByUser] + labels[activity.LabelLockedByTimeout]

	for _, label := range []string{
		activity.LabelStartup,
		activity.LabelShutdown,
		activity.LabelKilled,
		activity.LabelLockedByUser,
		activity.LabelLockedByTimeout,
		activity.LabelUnlocked,
	} {
		markerResult.Details = append(markerResult.Details, fmt.Sprintf("%s: %d", label, labels[label]))
	}

	switch {
	case starts == 0 && stops == 0:
		markerResult.Status = "error"
		markerResult.Message = "No start or stop events found"
		markerResult.Suggests = []string{
			"Check the markers section of the config against the log contents",
		}
	case starts == 0 || stops == 0:
		markerResult.Status = "warning"
		markerResult.Message = fmt.Sprintf("%d start and %d stop events, no activity can be paired", starts, stops)
	default:
		markerResult.Status = "ok"
		markerResult.Message = fmt.Sprintf("%d start and %d stop events", starts, stops)
	}

	return []DiagnosticResult{tsResult, markerResult}
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== teamsactivity Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running a report.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nSetup looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		// config.Load has already rejected bad URLs and triggers and
		// expanded tokens, so only the settled values are reported.
		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  "ok",
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}
		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout.Std()),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during an actual report)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
