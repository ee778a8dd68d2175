package activity

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccollicutt/teamsactivity/pkg/parser"
)

// ExtractStats counts what the extractor saw.
type ExtractStats struct {
	// LinesProcessed is the number of raw lines examined.
	LinesProcessed int

	// LinesMatched is the number of lines recorded as events.
	LinesMatched int

	// LinesUnparsable is the number of lines that matched a rule but had no
	// parsable timestamp.
	LinesUnparsable int

	// Sources lists the files seen, in order.
	Sources []string
}

// Extractor turns raw log lines into events.
type Extractor struct {
	rules   []Rule
	timeout time.Duration
	log     logrus.FieldLogger

	events   *EventSet
	source   string
	prevLine string
	stats    ExtractStats
}

// NewExtractor creates an extractor. timeout is added to idle-triggered
// lock events and is normally negative.
func NewExtractor(rules []Rule, timeout time.Duration, log logrus.FieldLogger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{
		rules:   rules,
		timeout: timeout,
		log:     log,
		events:  NewEventSet(),
	}
}

// Process classifies a single line. Lines must arrive in file order; the
// lookback state resets whenever the source file changes.
func (x *Extractor) Process(line *parser.ParsedLine) {
	if line.Source != x.source {
		x.source = line.Source
		x.prevLine = ""
		x.stats.Sources = append(x.stats.Sources, line.Source)
	}

	prev := x.prevLine
	x.prevLine = line.Raw
	x.stats.LinesProcessed++

	m, ok := Classify(x.rules, line.Raw, prev)
	if !ok {
		return
	}

	if !line.HasTimestamp {
		x.stats.LinesUnparsable++
		x.log.WithFields(logrus.Fields{
			"source": line.Source,
			"line":   line.LineNum,
			"label":  m.Label,
		}).Debug("Skipping event line without timestamp")
		return
	}

	ts := line.Timestamp
	if m.Idle {
		ts = ts.Add(x.timeout)
	}

	x.stats.LinesMatched++
	replaced := x.events.Put(Event{
		Timestamp: ts,
		Kind:      m.Kind,
		Label:     m.Label,
		Source:    line.Source,
		LineNum:   line.LineNum,
	})
	if replaced {
		x.log.WithFields(logrus.Fields{
			"source":    line.Source,
			"line":      line.LineNum,
			"timestamp": ts,
		}).Debug("Event replaced an earlier event at the same instant")
	}
}

// Events returns the accumulated event set.
func (x *Extractor) Events() *EventSet {
	return x.events
}

// Stats returns extraction counters.
func (x *Extractor) Stats() ExtractStats {
	return x.stats
}

// Reset clears internal state for reuse.
func (x *Extractor) Reset() {
	x.events = NewEventSet()
	x.source = ""
	x.prevLine = ""
	x.stats = ExtractStats{}
}
