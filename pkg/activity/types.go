// Package activity reconstructs active-usage time from Teams log lines.
//
// Extraction classifies raw lines into Start and Stop events keyed by
// timestamp. Pairing turns the ordered events into non-overlapping
// intervals. Aggregation rolls the intervals up into per-day hour totals,
// splitting intervals that cross midnight.
package activity

import (
	"fmt"
	"math"
	"time"
)

// Kind tags an event as opening or closing a block of activity.
type Kind string

const (
	KindStart Kind = "start"
	KindStop  Kind = "stop"
)

// Event labels.
const (
	LabelStartup         = "Teams startup"
	LabelShutdown        = "Teams shutdown"
	LabelKilled          = "Teams killed"
	LabelLockedByTimeout = "Computer locked by timeout"
	LabelLockedByUser    = "Computer locked by user"
	LabelUnlocked        = "Computer unlocked"
)

// Event is a classified log line.
type Event struct {
	// Timestamp is when the event happened. For locks caused by idleness it
	// has already been moved back by the lock timeout.
	Timestamp time.Time

	Kind  Kind
	Label string

	// Source and LineNum locate the line the event was read from.
	Source  string
	LineNum int
}

// Interval is a closed block of activity, [Start, Stop).
type Interval struct {
	Start time.Time
	Stop  time.Time
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.Stop.Sub(i.Start)
}

// Hours returns the length of the interval in hours, rounded to 2 decimals.
func (i Interval) Hours() float64 {
	return RoundHours(i.Duration().Hours())
}

// Date is a calendar day in the wall clock of the log that produced it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01-02", string(text))
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", text, err)
	}
	*d = DateOf(t)
	return nil
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) next() Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, time.UTC))
}

// DailyTotal is the activity attributed to one calendar day.
type DailyTotal struct {
	Date Date

	// Hours is accumulated at full precision; use Rounded for display.
	Hours float64
}

// Rounded returns Hours rounded to 2 decimals.
func (d DailyTotal) Rounded() float64 {
	return RoundHours(d.Hours)
}

// RoundHours rounds an hour count to 2 decimal places.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
