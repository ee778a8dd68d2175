package activity

import "time"

// Pair walks events in ascending timestamp order and closes an interval at
// the first Stop after each open Start. Extra Starts inside an open interval
// and Stops with nothing open are ignored, so intervals never overlap. A
// Start left open at the end produces nothing.
func Pair(events []Event) []Interval {
	var (
		intervals []Interval
		pending   time.Time
		open      bool
	)

	for _, e := range events {
		switch {
		case !open && e.Kind == KindStart:
			pending = e.Timestamp
			open = true
		case open && e.Kind == KindStop:
			intervals = append(intervals, Interval{Start: pending, Stop: e.Timestamp})
			open = false
		}
	}

	return intervals
}
