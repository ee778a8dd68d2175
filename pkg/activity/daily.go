package activity

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Aggregate sums interval hours per calendar day, ascending by date.
//
// An interval that crosses midnight is split: the start day is credited up
// to 23:59:59 and the stop day from 00:00:00, leaving the last second of the
// start day unaccounted. Any full days in between are credited 00:00:00 to
// 23:59:59 and logged as a warning, since a single session that long usually
// means a missing stop event.
func Aggregate(intervals []Interval, log logrus.FieldLogger) []DailyTotal {
	if log == nil {
		log = logrus.StandardLogger()
	}

	totals := make(map[Date]float64)
	for _, iv := range intervals {
		if spanned := addInterval(totals, iv); spanned > 0 {
			log.WithFields(logrus.Fields{
				"start": iv.Start,
				"stop":  iv.Stop,
				"days":  spanned,
			}).Warn("Interval spans more than one midnight")
		}
	}

	daily := make([]DailyTotal, 0, len(totals))
	for d, h := range totals {
		daily = append(daily, DailyTotal{Date: d, Hours: h})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})

	return daily
}

// addInterval credits iv to totals and returns the number of whole days
// between its start and stop days. Both days are read in the start's
// offset so an offset change mid-session cannot reorder them.
func addInterval(totals map[Date]float64, iv Interval) int {
	stop := iv.Stop.In(iv.Start.Location())
	startDay, stopDay := DateOf(iv.Start), DateOf(stop)
	if startDay == stopDay {
		totals[startDay] += iv.Duration().Hours()
		return 0
	}

	eod := time.Date(startDay.Year, startDay.Month, startDay.Day, 23, 59, 59, 0, iv.Start.Location())
	totals[startDay] += eod.Sub(iv.Start).Hours()

	bod := time.Date(stopDay.Year, stopDay.Month, stopDay.Day, 0, 0, 0, 0, stop.Location())
	totals[stopDay] += stop.Sub(bod).Hours()

	spanned := 0
	for d := startDay.next(); d.Before(stopDay); d = d.next() {
		totals[d] += fullDay.Hours()
		spanned++
	}
	return spanned
}

// fullDay is the credit for a day fully inside one interval.
const fullDay = 23*time.Hour + 59*time.Minute + 59*time.Second
