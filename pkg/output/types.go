// Package output provides formatting and output generation for activity reports.
package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/teamsactivity/pkg/activity"
)

// ISOLayout renders timestamps in ISO-8601 with the log's own offset,
// e.g. 2024-01-01T09:00:00+00:00.
const ISOLayout = "2006-01-02T15:04:05-07:00"

// Sections selects which report sections are rendered.
type Sections struct {
	Events   bool `json:"events"`
	Activity bool `json:"activity"`
	Daily    bool `json:"daily"`
}

// Any reports whether at least one section is enabled.
func (s Sections) Any() bool {
	return s.Events || s.Activity || s.Daily
}

// Report is the complete activity output.
type Report struct {
	Sections Sections `json:"sections"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	Events   []EventEntry    `json:"events,omitempty"`
	Activity []ActivityEntry `json:"activity,omitempty"`
	Daily    []DailyEntry    `json:"daily,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	Events     int     `json:"events"`
	Intervals  int     `json:"intervals"`
	Days       int     `json:"days"`
	TotalHours float64 `json:"total_hours"`

	// LinesProcessed is the total number of log lines read.
	LinesProcessed int `json:"lines_processed"`

	// LinesUnparsable counts event lines skipped for lack of a timestamp.
	LinesUnparsable int `json:"lines_unparsable"`

	// DuplicatesReplaced counts events overwritten at the same instant.
	DuplicatesReplaced int `json:"duplicates_replaced"`
}

// EventEntry is one line of the event log.
type EventEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Kind      activity.Kind `json:"kind"`
	Label     string        `json:"label"`
	Source    string        `json:"source,omitempty"`
	LineNum   int           `json:"line,omitempty"`
}

// ActivityEntry is one paired interval.
type ActivityEntry struct {
	Start time.Time `json:"start"`
	Stop  time.Time `json:"stop"`
	Hours float64   `json:"hours"`
}

// DailyEntry is the rounded total for one day.
type DailyEntry struct {
	Date  activity.Date `json:"date"`
	Hours float64       `json:"hours"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// LogDir is the directory the logs were discovered in.
	LogDir string `json:"log_dir,omitempty"`

	// Sources lists the log files that were read.
	Sources []string `json:"sources"`

	// TimeoutMinutes is the idle lock timeout applied.
	TimeoutMinutes int `json:"timeout_minutes"`

	// TimeRange is the event filter that was applied, if any.
	TimeRange *TimeRange `json:"time_range,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration_ns"`
}

// TimeRange represents a time window for filtering.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewReport creates a Report from analysis results. Sections control which
// entry lists are filled in; the summary is always complete.
func NewReport(result *activity.Result, sections Sections) *Report {
	report := &Report{
		Sections: sections,
		Summary: Summary{
			Events:             len(result.Events),
			Intervals:          len(result.Intervals),
			Days:               len(result.Daily),
			TotalHours:         activity.RoundHours(result.TotalHours()),
			LinesProcessed:     result.Metadata.LinesProcessed,
			LinesUnparsable:    result.Metadata.LinesUnparsable,
			DuplicatesReplaced: result.Metadata.DuplicatesReplaced,
		},
		Metadata: Metadata{
			Sources:        result.Metadata.Sources,
			TimeoutMinutes: int(-result.Metadata.Timeout / time.Minute),
			AnalyzedAt:     result.Metadata.EndTime,
			Duration:       result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
	}

	if result.Metadata.TimeRange != nil {
		report.Metadata.TimeRange = &TimeRange{
			Start: result.Metadata.TimeRange.Start,
			End:   result.Metadata.TimeRange.End,
		}
	}

	if sections.Events {
		report.Events = make([]EventEntry, 0, len(result.Events))
		for _, e := range result.Events {
			report.Events = append(report.Events, EventEntry{
				Timestamp: e.Timestamp,
				Kind:      e.Kind,
				Label:     e.Label,
				Source:    e.Source,
				LineNum:   e.LineNum,
			})
		}
	}

	if sections.Activity {
		report.Activity = make([]ActivityEntry, 0, len(result.Intervals))
		for _, iv := range result.Intervals {
			report.Activity = append(report.Activity, ActivityEntry{
				Start: iv.Start,
				Stop:  iv.Stop,
				Hours: iv.Hours(),
			})
		}
	}

	if sections.Daily {
		report.Daily = make([]DailyEntry, 0, len(result.Daily))
		for _, d := range result.Daily {
			report.Daily = append(report.Daily, DailyEntry{
				Date:  d.Date,
				Hours: d.Rounded(),
			})
		}
	}

	return report
}

// HasActivity returns true if at least one interval was found.
func (r *Report) HasActivity() bool {
	return r.Summary.Intervals > 0
}

// FormatHours renders an hour count the way the report prints it: the
// shortest decimal form, with at least one fractional digit ("8.0", "1.25").
func FormatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
