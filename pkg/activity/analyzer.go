package activity

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccollicutt/teamsactivity/pkg/config"
	"github.com/ccollicutt/teamsactivity/pkg/parser"
)

// Analyzer runs extraction, pairing and daily aggregation over a log source.
type Analyzer struct {
	rules   []Rule
	timeout time.Duration

	// Options
	timeRange *TimeRange
	log       logrus.FieldLogger
}

// TimeRange keeps events in [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r *TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithTimeRange drops events outside [start, end) before pairing.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(log logrus.FieldLogger) AnalyzerOption {
	return func(a *Analyzer) {
		a.log = log
	}
}

// NewAnalyzer creates an analyzer using the markers and timeout from cfg.
// A nil cfg uses the defaults.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 minutes, got %d", cfg.Timeout)
	}

	a := &Analyzer{
		rules:   NewRules(cfg.Markers),
		timeout: cfg.TimeoutDelta(),
		log:     logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.timeRange != nil && !a.timeRange.Start.Before(a.timeRange.End) {
		return nil, fmt.Errorf("time range start %s is not before end %s",
			a.timeRange.Start.Format(time.RFC3339), a.timeRange.End.Format(time.RFC3339))
	}

	return a, nil
}

// Result is the output of one analysis pass.
type Result struct {
	// Events are ascending by timestamp.
	Events []Event

	// Intervals are ascending by start.
	Intervals []Interval

	// Daily is ascending by date.
	Daily []DailyTotal

	Metadata Metadata
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// Sources lists the log files that were read.
	Sources []string

	// LinesProcessed is the total number of log lines examined.
	LinesProcessed int

	// LinesUnparsable counts event lines skipped for lack of a timestamp.
	LinesUnparsable int

	// DuplicatesReplaced counts events overwritten by a later event at the
	// same instant.
	DuplicatesReplaced int

	// Timeout is the shift applied to idle-triggered locks.
	Timeout time.Duration

	// TimeRange is the event filter applied, if any.
	TimeRange *TimeRange

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time
}

// TotalHours returns the sum of all daily totals.
func (r *Result) TotalHours() float64 {
	total := 0.0
	for _, d := range r.Daily {
		total += d.Hours
	}
	return total
}

// Analyze reads every line from source and returns events, intervals and
// daily totals. Each stage runs to completion before the next starts.
func (a *Analyzer) Analyze(ctx context.Context, source parser.LogSource) (*Result, error) {
	result := &Result{
		Metadata: Metadata{
			Timeout:   a.timeout,
			TimeRange: a.timeRange,
			StartTime: time.Now(),
		},
	}

	extractor := NewExtractor(a.rules, a.timeout, a.log)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		extractor.Process(line)
	}

	stats := extractor.Stats()
	set := extractor.Events()

	result.Metadata.Sources = stats.Sources
	result.Metadata.LinesProcessed = stats.LinesProcessed
	result.Metadata.LinesUnparsable = stats.LinesUnparsable
	result.Metadata.DuplicatesReplaced = set.Replaced()

	a.log.WithFields(logrus.Fields{
		"files":      len(stats.Sources),
		"lines":      stats.LinesProcessed,
		"events":     set.Len(),
		"unparsable": stats.LinesUnparsable,
		"replaced":   set.Replaced(),
	}).Info("Extraction complete")

	result.Events = a.filter(set.Sorted())
	result.Intervals = Pair(result.Events)
	result.Daily = Aggregate(result.Intervals, a.log)

	result.Metadata.EndTime = time.Now()

	return result, nil
}

func (a *Analyzer) filter(events []Event) []Event {
	if a.timeRange == nil {
		return events
	}

	kept := events[:0]
	for _, e := range events {
		if a.timeRange.Contains(e.Timestamp) {
			kept = append(kept, e)
		}
	}
	return kept
}
