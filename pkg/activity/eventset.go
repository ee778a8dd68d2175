package activity

import "sort"

// EventSet holds at most one event per instant, in insertion order.
//
// Putting an event at an instant that is already present replaces the
// stored event in place: the later line wins. Instants are compared as
// absolute times, so the same moment written with different offsets
// collides.
type EventSet struct {
	index    map[int64]int
	events   []Event
	replaced int
}

// NewEventSet returns an empty set.
func NewEventSet() *EventSet {
	return &EventSet{index: make(map[int64]int)}
}

// Put stores e and reports whether it replaced an earlier event.
func (s *EventSet) Put(e Event) bool {
	key := e.Timestamp.UnixNano()
	if i, ok := s.index[key]; ok {
		s.events[i] = e
		s.replaced++
		return true
	}
	s.index[key] = len(s.events)
	s.events = append(s.events, e)
	return false
}

// Len returns the number of distinct instants.
func (s *EventSet) Len() int {
	return len(s.events)
}

// Replaced returns how many puts overwrote an existing event.
func (s *EventSet) Replaced() int {
	return s.replaced
}

// Events returns the events in insertion order.
func (s *EventSet) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Sorted returns the events ascending by timestamp.
func (s *EventSet) Sorted() []Event {
	out := s.Events()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
