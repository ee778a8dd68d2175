// Package parser reads Teams diagnostic log files line by line and extracts
// the timestamp that prefixes each entry.
package parser

import "time"

// ParsedLine represents a single raw log line with extracted metadata.
//
// Every line of a file is surfaced, including lines without a usable
// timestamp, because event classification looks back at the previous raw
// line regardless of whether it parsed.
type ParsedLine struct {
	// Raw is the original line content.
	Raw string

	// Timestamp is the parsed timestamp. Zero when HasTimestamp is false.
	Timestamp time.Time

	// HasTimestamp reports whether the line starts with a parsable timestamp.
	HasTimestamp bool

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}
