package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/teamsactivity/internal/logger"
	"github.com/ccollicutt/teamsactivity/pkg/activity"
	"github.com/ccollicutt/teamsactivity/pkg/config"
	"github.com/ccollicutt/teamsactivity/pkg/output"
	"github.com/ccollicutt/teamsactivity/pkg/parser"
	"github.com/ccollicutt/teamsactivity/pkg/webhook"
)

// dateLayout is the format of --since and --until.
const dateLayout = "2006-01-02"

// ReportOptions holds command-line options for the activity report.
type ReportOptions struct {
	Events   bool
	Activity bool
	Daily    bool

	Timeout    int
	LogDir     string
	ConfigFile string
	Output     string
	Since      string
	Until      string
	LogLevel   string
	Verbose    bool
	Quiet      bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// AddReportFlags registers the report flags on cmd.
func AddReportFlags(cmd *cobra.Command, opts *ReportOptions) {
	cmd.Flags().BoolVarP(&opts.Events, "events", "e", false, "Print the event log")
	cmd.Flags().BoolVarP(&opts.Activity, "activity", "a", false, "Print the activity log")
	cmd.Flags().BoolVarP(&opts.Daily, "daily", "d", false, "Print the daily log")
	cmd.Flags().IntVarP(&opts.Timeout, "timeout", "t", config.DefaultTimeout, "Computer lock timeout in minutes")
	cmd.Flags().StringVarP(&opts.LogDir, "logs", "l", "", "Teams log directory (default: platform Teams directory)")
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (.yaml or .toml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Only count events on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "Only count events on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show event sources and run statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnActivity), "When to fire webhook (on_activity|always|never)")
}

// RunReport loads configuration, reads the Teams logs and prints the
// requested sections.
func RunReport(cmd *cobra.Command, opts *ReportOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := applyFlags(cmd, cfg, opts); err != nil {
		return err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	log := logrus.StandardLogger()

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	logDir, err := resolveLogDir(cfg.LogDir)
	if err != nil {
		return err
	}

	files, err := parser.DiscoverLogFiles(logDir, cfg.LogPatterns)
	if err != nil {
		return fmt.Errorf("discovering log files: %w", err)
	}
	if len(files) == 0 {
		log.WithFields(logrus.Fields{
			"dir":      logDir,
			"patterns": cfg.LogPatterns,
		}).Warn("No Teams log files found")
	}

	analyzerOpts := []activity.AnalyzerOption{activity.WithLogger(log)}

	if opts.Since != "" || opts.Until != "" {
		start, end, err := parseDateRange(opts.Since, opts.Until)
		if err != nil {
			return err
		}
		analyzerOpts = append(analyzerOpts, activity.WithTimeRange(start, end))
	}

	a, err := activity.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	source := parser.NewFileSource(files, cfg.TimestampLayout)
	defer source.Close()

	result, err := a.Analyze(ctx, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, output.Sections{
		Events:   opts.Events,
		Activity: opts.Activity,
		Daily:    opts.Daily,
	})
	report.Metadata.ConfigFile = opts.ConfigFile
	report.Metadata.LogDir = logDir

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook errors are logged but don't fail the report
	hooks := collectWebhooks(cfg, opts)
	if len(hooks) > 0 {
		webhook.NewClient().Dispatch(ctx, hooks, report, log)
	}

	return nil
}

// applyFlags lets flags the user actually set override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *ReportOptions) error {
	flags := cmd.Flags()

	if flags.Changed("timeout") {
		if opts.Timeout < 0 {
			return fmt.Errorf("invalid timeout %d: must be >= 0 minutes", opts.Timeout)
		}
		cfg.Timeout = opts.Timeout
	}
	if flags.Changed("logs") {
		cfg.LogDir = opts.LogDir
	}
	if flags.Changed("log-level") {
		if _, err := logrus.ParseLevel(opts.LogLevel); err != nil {
			return fmt.Errorf("invalid log-level %q: %w", opts.LogLevel, err)
		}
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.WebhookTrigger != "" && !config.WebhookTrigger(opts.WebhookTrigger).Valid() {
		return fmt.Errorf("invalid webhook-trigger %q (use on_activity, always, or never)", opts.WebhookTrigger)
	}

	return nil
}

// resolveLogDir falls back to the platform directory and checks that the
// result is a readable directory.
func resolveLogDir(dir string) (string, error) {
	if dir == "" {
		dir = parser.DefaultLogDir()
		if dir == "" {
			return "", errors.New("cannot determine the Teams log directory, use --logs")
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("log directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("log directory %s: not a directory", dir)
	}

	return dir, nil
}

// parseDateRange turns --since/--until into a half-open range in local time.
// Until is inclusive of the whole day.
func parseDateRange(since, until string) (time.Time, time.Time, error) {
	var start, end time.Time

	if since != "" {
		t, err := time.ParseInLocation(dateLayout, since, time.Local)
		if err != nil {
			return start, end, fmt.Errorf("invalid since %q (use YYYY-MM-DD): %w", since, err)
		}
		start = t
	}

	if until != "" {
		t, err := time.ParseInLocation(dateLayout, until, time.Local)
		if err != nil {
			return start, end, fmt.Errorf("invalid until %q (use YYYY-MM-DD): %w", until, err)
		}
		end = t.AddDate(0, 0, 1)
	} else {
		end = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	return start, end, nil
}

func createFormatter(opts *ReportOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ReportOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnActivity
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.Duration(config.DefaultWebhookTimeout),
		})
	}

	return webhooks
}
