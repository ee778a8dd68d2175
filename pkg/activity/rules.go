package activity

import (
	"strings"

	"github.com/ccollicutt/teamsactivity/pkg/config"
)

// Rule maps a marker substring to the event it signals.
type Rule struct {
	// Marker is matched case-sensitively anywhere in the line.
	Marker string

	Kind  Kind
	Label string

	// When LookbackMarker is set and the previous raw line contains it, the
	// event takes LookbackLabel and is treated as idle-triggered.
	LookbackMarker string
	LookbackLabel  string
}

// Match is the result of classifying one line.
type Match struct {
	Kind  Kind
	Label string

	// Idle is set for locks triggered by the idle timeout.
	Idle bool
}

func (r Rule) match(line, prev string) (Match, bool) {
	if !strings.Contains(line, r.Marker) {
		return Match{}, false
	}
	if r.LookbackMarker != "" && strings.Contains(prev, r.LookbackMarker) {
		return Match{Kind: r.Kind, Label: r.LookbackLabel, Idle: true}, true
	}
	return Match{Kind: r.Kind, Label: r.Label}, true
}

// NewRules builds the classification table from configured markers.
// Order matters: the first matching rule wins.
func NewRules(m config.MarkerConfig) []Rule {
	return []Rule{
		{Marker: m.Startup, Kind: KindStart, Label: LabelStartup},
		{Marker: m.Shutdown, Kind: KindStop, Label: LabelShutdown},
		{Marker: m.Killed, Kind: KindStop, Label: LabelKilled},
		{
			Marker:         m.Locked,
			Kind:           KindStop,
			Label:          LabelLockedByUser,
			LookbackMarker: m.Idle,
			LookbackLabel:  LabelLockedByTimeout,
		},
		{Marker: m.Unlocked, Kind: KindStart, Label: LabelUnlocked},
	}
}

// DefaultRules returns the rule table for the stock Teams markers.
func DefaultRules() []Rule {
	return NewRules(config.DefaultMarkers())
}

// Classify returns the first rule match for line. prev is the raw line read
// immediately before it in the same file, whether or not that line matched.
func Classify(rules []Rule, line, prev string) (Match, bool) {
	for _, r := range rules {
		if m, ok := r.match(line, prev); ok {
			return m, true
		}
	}
	return Match{}, false
}
