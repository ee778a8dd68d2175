package output

import (
	"context"
	"fmt"
	"io"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text. With no section enabled the summary
// line is printed instead.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet || !report.Sections.Any() {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "teamsactivity: %d events, %d intervals, %d days, %s hours\n",
		report.Summary.Events,
		report.Summary.Intervals,
		report.Summary.Days,
		FormatHours(report.Summary.TotalHours))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	ew := &errWriter{w: w}

	if report.Sections.Events {
		ew.printf("\nEvent log:\n")
		for _, e := range report.Events {
			ew.printf("%s: %s\n", e.Timestamp.Format(ISOLayout), e.Label)
			if f.opts.Verbose {
				ew.printf("    Source: %s:%d\n", e.Source, e.LineNum)
			}
		}
	}

	if report.Sections.Activity {
		ew.printf("\nActivity log:\n")
		for _, a := range report.Activity {
			ew.printf("%s --> %s: %s hours\n",
				a.Start.Format(ISOLayout),
				a.Stop.Format(ISOLayout),
				FormatHours(a.Hours))
		}
	}

	if report.Sections.Daily {
		ew.printf("\nDaily log:\n")
		for _, d := range report.Daily {
			ew.printf("%s: %s\n", d.Date, FormatHours(d.Hours))
		}
	}

	if f.opts.Verbose {
		ew.printf("\n---\n")
		ew.printf("Lines processed: %d (%d unparsable event lines, %d duplicate timestamps)\n",
			report.Summary.LinesProcessed,
			report.Summary.LinesUnparsable,
			report.Summary.DuplicatesReplaced)
		ew.printf("Timeout: %d minutes\n", report.Metadata.TimeoutMinutes)
		ew.printf("Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	ew.printf("\n")
	return ew.err
}

// errWriter keeps the first write error so formatting code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
