package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ccollicutt/teamsactivity/internal/cli"
	"github.com/ccollicutt/teamsactivity/pkg/activity"
	"github.com/ccollicutt/teamsactivity/pkg/config"
	"github.com/ccollicutt/teamsactivity/pkg/output"
	"github.com/ccollicutt/teamsactivity/pkg/parser"
	"github.com/ccollicutt/teamsactivity/pkg/webhook"
)

var (
	projectRoot string
	rootOnce    sync.Once
)

// chdir changes to the project root directory for tests.
// Config files use paths relative to project root.
func chdir(t *testing.T) {
	t.Helper()
	rootOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		projectRoot = filepath.Dir(filepath.Dir(filename))
	})
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("Failed to chdir to project root: %v", err)
	}
}

// requireFile fails the test if the required test file doesn't exist.
// We never skip tests - missing test data is a test failure.
func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Required test file not found: %s", path)
	}
}

// runCLI executes the root command in-process and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// analyzeSample runs the library pipeline over testdata/teams using the
// given config file.
func analyzeSample(t *testing.T, configFile string) *activity.Result {
	t.Helper()
	chdir(t)
	requireFile(t, configFile)

	ctx := context.Background()
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	files, err := parser.DiscoverLogFiles(cfg.LogDir, cfg.LogPatterns)
	if err != nil {
		t.Fatalf("Failed to discover logs: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 log files, got %v", files)
	}
	if filepath.Base(files[0]) != "old_logs_1.txt" {
		t.Errorf("Rotated log should be read first, got %v", files)
	}

	logger, _ := test.NewNullLogger()
	a, err := activity.NewAnalyzer(cfg, activity.WithLogger(logger))
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	source := parser.NewFileSource(files, cfg.TimestampLayout)
	defer source.Close()

	result, err := a.Analyze(ctx, source)
	if err != nil {
		t.Fatalf("Analysis failed: %v", err)
	}
	return result
}

// TestE2E_SampleLogs runs the full pipeline over the sample Teams logs.
func TestE2E_SampleLogs(t *testing.T) {
	result := analyzeSample(t, filepath.Join("testdata", "configs", "teams.yaml"))

	if result.Metadata.LinesProcessed != 16 {
		t.Errorf("LinesProcessed = %d, want 16", result.Metadata.LinesProcessed)
	}
	if result.Metadata.DuplicatesReplaced != 1 {
		t.Errorf("DuplicatesReplaced = %d, want 1", result.Metadata.DuplicatesReplaced)
	}
	if len(result.Events) != 12 {
		t.Errorf("Events = %d, want 12", len(result.Events))
	}

	wantHours := []float64{2.74, 4.5, 3.25, 2.75, 4.5}
	if len(result.Intervals) != len(wantHours) {
		t.Fatalf("Intervals = %d, want %d", len(result.Intervals), len(wantHours))
	}
	for i, iv := range result.Intervals {
		if iv.Hours() != wantHours[i] {
			t.Errorf("Interval %d = %v hours, want %v", i, iv.Hours(), wantHours[i])
		}
	}

	wantDaily := map[string]float64{
		"2021-01-22": 9.24,
		"2021-01-23": 1.25,
		"2021-01-25": 7.25,
	}
	if len(result.Daily) != len(wantDaily) {
		t.Fatalf("Daily = %+v, want %d days", result.Daily, len(wantDaily))
	}
	for _, d := range result.Daily {
		if want := wantDaily[d.Date.String()]; d.Rounded() != want {
			t.Errorf("%s = %v, want %v", d.Date, d.Rounded(), want)
		}
	}
}

// TestE2E_SampleLogs_Idempotent checks that a second run gives the same result.
func TestE2E_SampleLogs_Idempotent(t *testing.T) {
	configFile := filepath.Join("testdata", "configs", "teams.yaml")
	first := analyzeSample(t, configFile)
	second := analyzeSample(t, configFile)

	if len(first.Intervals) != len(second.Intervals) {
		t.Fatalf("Interval counts differ: %d vs %d", len(first.Intervals), len(second.Intervals))
	}
	for i := range first.Intervals {
		if !first.Intervals[i].Start.Equal(second.Intervals[i].Start) || !first.Intervals[i].Stop.Equal(second.Intervals[i].Stop) {
			t.Errorf("Interval %d differs: %+v vs %+v", i, first.Intervals[i], second.Intervals[i])
		}
	}
}

// TestE2E_TOMLConfig uses the TOML config with a 10 minute timeout.
func TestE2E_TOMLConfig(t *testing.T) {
	result := analyzeSample(t, filepath.Join("testdata", "configs", "teams.toml"))

	if len(result.Intervals) == 0 {
		t.Fatal("Expected intervals")
	}
	if got := result.Intervals[0].Hours(); got != 3.08 {
		t.Errorf("First interval = %v hours, want 3.08 with a 10 minute timeout", got)
	}
}

// TestE2E_CLI_TextOutput checks the printed sections.
func TestE2E_CLI_TextOutput(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "-e", "-a", "-d", "-l", filepath.Join("testdata", "teams"))
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}

	checks := []string{
		"Event log:",
		"2021-01-22T08:55:30-07:00: Teams startup",
		"2021-01-22T11:40:01-07:00: Computer locked by timeout",
		"2021-01-22T17:30:00-07:00: Computer locked by user",
		"2021-01-23T01:15:02-07:00: Teams killed",
		"2021-01-25T09:00:00-07:00: Computer unlocked",
		"Activity log:",
		"2021-01-22T22:00:00-07:00 --> 2021-01-23T01:15:00-07:00: 3.25 hours",
		"Daily log:",
		"2021-01-22: 9.24",
		"2021-01-23: 1.25",
		"2021-01-25: 7.25",
	}
	for _, check := range checks {
		if !strings.Contains(stdout, check) {
			t.Errorf("Output missing %q", check)
		}
	}

	// The duplicate 09:00 startup was replaced by the unlock
	if strings.Contains(stdout, "2021-01-25T09:00:00-07:00: Teams startup") {
		t.Error("Replaced event should not be printed")
	}
	// Trailing unlock has no stop
	if strings.Contains(stdout, "2021-01-25T16:25:00-07:00 -->") {
		t.Error("Unmatched trailing start should not produce an interval")
	}
}

// TestE2E_CLI_ConfigFile runs the report from a config file.
func TestE2E_CLI_ConfigFile(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "-d", "-c", filepath.Join("testdata", "configs", "teams.yaml"))
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}
	if !strings.Contains(stdout, "2021-01-22: 9.24") {
		t.Errorf("Unexpected output:\n%s", stdout)
	}
}

// TestE2E_CLI_JSONOutput checks the JSON report.
func TestE2E_CLI_JSONOutput(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "-a", "-d", "-o", "json", "-l", filepath.Join("testdata", "teams"))
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if report.Summary.Intervals != 5 {
		t.Errorf("Intervals = %d, want 5", report.Summary.Intervals)
	}
	if report.Summary.TotalHours != 17.74 {
		t.Errorf("TotalHours = %v, want 17.74", report.Summary.TotalHours)
	}
	if len(report.Daily) != 3 {
		t.Errorf("Daily = %d, want 3", len(report.Daily))
	}
	if len(report.Events) != 0 {
		t.Error("Events section was not requested")
	}
	if len(report.Metadata.Sources) != 2 {
		t.Errorf("Sources = %v, want 2 files", report.Metadata.Sources)
	}
}

// TestE2E_CLI_Quiet checks the one-line summary.
func TestE2E_CLI_Quiet(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "-q", "-d", "-l", filepath.Join("testdata", "teams"))
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}
	if stdout != "teamsactivity: 12 events, 5 intervals, 3 days, 17.74 hours\n" {
		t.Errorf("Quiet output = %q", stdout)
	}
}

// TestE2E_CLI_DateRange limits the report to one day.
func TestE2E_CLI_DateRange(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "-d", "-l", filepath.Join("testdata", "teams"),
		"--since", "2021-01-24", "--until", "2021-01-26")
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}
	if strings.Contains(stdout, "2021-01-22") || strings.Contains(stdout, "2021-01-23") {
		t.Errorf("Days outside the range should be dropped:\n%s", stdout)
	}
	if !strings.Contains(stdout, "2021-01-25: 7.25") {
		t.Errorf("Expected 2021-01-25 in range:\n%s", stdout)
	}
}

// TestE2E_CLI_Errors checks failures that must be reported as errors.
func TestE2E_CLI_Errors(t *testing.T) {
	chdir(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing log dir", []string{"-l", filepath.Join("testdata", "nonexistent")}},
		{"log dir is a file", []string{"-l", filepath.Join("testdata", "teams", "logs.txt")}},
		{"negative timeout", []string{"--timeout=-1", "-l", filepath.Join("testdata", "teams")}},
		{"invalid yaml", []string{"-c", filepath.Join("testdata", "configs", "bad", "invalid_yaml.yaml")}},
		{"negative timeout in config", []string{"-c", filepath.Join("testdata", "configs", "bad", "negative_timeout.yaml")}},
		{"invalid webhook", []string{"-c", filepath.Join("testdata", "configs", "bad", "invalid_webhook.yaml")}},
		{"unknown output", []string{"-o", "csv", "-l", filepath.Join("testdata", "teams")}},
		{"inverted range", []string{"--since", "2021-02-01", "--until", "2021-01-01", "-l", filepath.Join("testdata", "teams")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

// TestE2E_Validate checks the validate subcommand on good and bad configs.
func TestE2E_Validate(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "validate", filepath.Join("testdata", "configs", "teams.toml"))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid!") || !strings.Contains(stdout, "Log files matched: 2") {
		t.Errorf("Unexpected validate output:\n%s", stdout)
	}

	if _, _, err := runCLI(t, "validate", filepath.Join("testdata", "configs", "bad", "negative_timeout.yaml")); err == nil {
		t.Error("Expected validate to reject a negative timeout")
	}
}

// TestE2E_Diagnose checks the diagnose subcommand against the sample logs.
func TestE2E_Diagnose(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "diagnose", filepath.Join("testdata", "configs", "teams.yaml"))
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}

	for _, check := range []string{
		"=== teamsactivity Diagnostics ===",
		"[PASS] Config File",
		"[PASS] Config Syntax",
		"[PASS] Log Directory",
		"[PASS] Timestamp Format",
		"[PASS] Event Markers",
		"Summary:",
	} {
		if !strings.Contains(stdout, check) {
			t.Errorf("Diagnose output missing %q", check)
		}
	}
}

// TestE2E_Diagnose_InvalidYAML reports the failure without erroring.
func TestE2E_Diagnose_InvalidYAML(t *testing.T) {
	chdir(t)

	stdout, _, err := runCLI(t, "diagnose", filepath.Join("testdata", "configs", "bad", "invalid_yaml.yaml"))
	if err != nil {
		t.Fatalf("diagnose should not fail: %v", err)
	}
	if !strings.Contains(stdout, "[FAIL] Config Syntax") {
		t.Errorf("Expected config syntax failure:\n%s", stdout)
	}
}

// TestE2E_Webhook_SendOnActivity posts the sample report to a test server.
func TestE2E_Webhook_SendOnActivity(t *testing.T) {
	result := analyzeSample(t, filepath.Join("testdata", "configs", "teams.yaml"))

	var receivedPayload []byte
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		receivedPayload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	report := output.NewReport(result, output.Sections{Daily: true})
	if !webhook.ShouldFire(config.WebhookTriggerOnActivity, report) {
		t.Fatal("Sample logs should trigger an on_activity webhook")
	}

	resp := webhook.NewClient().Send(context.Background(), config.WebhookConfig{
		URL:   server.URL,
		Token: "test-token-123",
	}, report)
	if !resp.Success() {
		t.Fatalf("Webhook failed: %v", resp.Error)
	}

	if receivedAuth != "Bearer test-token-123" {
		t.Errorf("Expected Bearer token, got %s", receivedAuth)
	}

	var payload output.Report
	if err := json.Unmarshal(receivedPayload, &payload); err != nil {
		t.Fatalf("Invalid JSON payload: %v", err)
	}
	if len(payload.Daily) != 3 {
		t.Errorf("Payload daily = %d, want 3", len(payload.Daily))
	}
}

// TestE2E_Webhook_CLI fires the CLI webhook flags.
func TestE2E_Webhook_CLI(t *testing.T) {
	chdir(t)

	var mu sync.Mutex
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// No activity in range, on_activity should stay quiet
	_, _, err := runCLI(t, "-d", "-l", filepath.Join("testdata", "teams"),
		"--since", "2022-01-01", "--webhook-url", server.URL)
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}

	_, _, err = runCLI(t, "-d", "-l", filepath.Join("testdata", "teams"),
		"--since", "2022-01-01", "--webhook-url", server.URL, "--webhook-trigger", "always")
	if err != nil {
		t.Fatalf("CLI failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Webhook calls = %d, want 1 (always only)", calls)
	}
}

// TestE2E_Webhook_ServerError must not fail the report.
func TestE2E_Webhook_ServerError(t *testing.T) {
	chdir(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	stdout, stderr, err := runCLI(t, "-d", "-l", filepath.Join("testdata", "teams"),
		"--webhook-url", server.URL, "--webhook-trigger", "always")
	if err != nil {
		t.Fatalf("Webhook failure should not fail the report: %v", err)
	}
	if !strings.Contains(stdout, "Daily log:") {
		t.Error("Report should still be printed")
	}
	if !strings.Contains(stderr, "Webhook failed") {
		t.Errorf("Expected webhook failure on stderr, got %q", stderr)
	}
}
