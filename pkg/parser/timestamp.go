package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultLayout parses the Teams log prefix once the zone name has been
// stripped from the offset, e.g. "Fri Jan 22 2021 12:30:18 -0700".
const DefaultLayout = "Mon Jan 2 2006 15:04:05 -0700"

// stampFields is the number of whitespace-separated tokens forming the
// timestamp prefix: weekday, month, day, year, clock, zone+offset.
const stampFields = 6

// ErrNoTimestamp is returned when a line is too short to carry a timestamp.
var ErrNoTimestamp = errors.New("line has no timestamp prefix")

// TimestampExtractor extracts and parses timestamps from log lines.
type TimestampExtractor struct {
	layout string
}

// NewTimestampExtractor creates a new timestamp extractor. An empty layout
// selects DefaultLayout.
func NewTimestampExtractor(layout string) *TimestampExtractor {
	if layout == "" {
		layout = DefaultLayout
	}
	return &TimestampExtractor{layout: layout}
}

// Layout returns the Go time layout used for parsing.
func (e *TimestampExtractor) Layout() string {
	return e.layout
}

// Extract parses the timestamp from the first six tokens of a line, for
// example "Fri Jan 22 2021 12:30:18 GMT-0700". The zone name in front of the
// offset is ignored; only the numeric offset determines the instant.
//
// The returned time carries a fixed zone with the line's own offset so that
// wall-clock dates are those the log was written in.
func (e *TimestampExtractor) Extract(line string) (time.Time, error) {
	fields := strings.Fields(line)
	if len(fields) < stampFields {
		return time.Time{}, ErrNoTimestamp
	}

	parts := make([]string, stampFields)
	copy(parts, fields[:stampFields-1])
	parts[stampFields-1] = strings.TrimLeftFunc(fields[stampFields-1], unicode.IsLetter)
	tsStr := strings.Join(parts, " ")

	ts, err := time.Parse(e.layout, tsStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", tsStr, err)
	}

	// time.Parse may attach time.Local when the offset matches it; pin the
	// offset instead so date arithmetic never picks up a DST transition.
	_, offset := ts.Zone()
	return ts.In(time.FixedZone("", offset)), nil
}
