package output

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := `
Event log:
2024-01-01T09:00:00+00:00: Teams startup
2024-01-01T17:00:00+00:00: Teams shutdown

Activity log:
2024-01-01T09:00:00+00:00 --> 2024-01-01T17:00:00+00:00: 8.0 hours

Daily log:
2024-01-01: 8.0

`
	if got := buf.String(); got != want {
		t.Errorf("Format() output:\n%s\nwant:\n%s", got, want)
	}
}

func TestTextFormatter_SingleSection(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := NewReport(createTestResult(), Sections{Activity: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Activity log:") {
		t.Error("Output should contain the activity section")
	}
	if strings.Contains(output, "Event log:") || strings.Contains(output, "Daily log:") {
		t.Error("Output should not contain disabled sections")
	}
}

func TestTextFormatter_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Source: logs.txt:1") {
		t.Error("Verbose output should contain event sources")
	}
	if !strings.Contains(output, "Lines processed: 2") {
		t.Error("Verbose output should contain line counts")
	}
	if !strings.Contains(output, "Timeout: 30 minutes") {
		t.Error("Verbose output should contain the timeout")
	}
}

func TestTextFormatter_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "teamsactivity: 2 events, 1 intervals, 1 days, 8.0 hours\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestTextFormatter_NoSectionsPrintsSummary(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := NewReport(createTestResult(), Sections{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "teamsactivity:") {
		t.Errorf("Format() = %q, want summary line", buf.String())
	}
}

func TestTextFormatter_EmptyReport(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := &Report{Sections: Sections{Events: true, Activity: true, Daily: true}}

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "\nEvent log:\n\nActivity log:\n\nDaily log:\n\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTextFormatter_WriteError(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if err := f.Format(context.Background(), createTestReport(), failingWriter{}); err == nil {
		t.Error("Format() expected write error")
	}
}
