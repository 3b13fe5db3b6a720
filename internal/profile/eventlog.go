package profile

import "sync"

// Marker is one timestamped event for an entity.
// A stop marker closes the open segment without opening another.
type Marker struct {
	At   int64  `json:"at"`
	Key  string `json:"key,omitempty"`
	Stop bool   `json:"stop,omitempty"`
}

// EventLog is an append-only set of marker sequences keyed by entity
type EventLog struct {
	mu       sync.Mutex
	clock    Clock
	entities []string
	markers  map[string][]Marker
}

// NewEventLog creates an empty log stamped by clock
func NewEventLog(clock Clock) *EventLog {
	if clock == nil {
		clock = SystemClock
	}
	return &EventLog{
		clock:   clock,
		markers: make(map[string][]Marker),
	}
}

// Record appends a start marker for key
func (l *EventLog) Record(entity, key string) {
	l.append(entity, Marker{Key: key})
}

// RecordStop appends a stop marker
func (l *EventLog) RecordStop(entity string) {
	l.append(entity, Marker{Stop: true})
}

func (l *EventLog) append(entity string, m Marker) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m.At = l.clock()
	seq, ok := l.markers[entity]
	if !ok {
		l.entities = append(l.entities, entity)
	}
	l.markers[entity] = append(seq, m)
}

// Entities returns entity identities in first-seen order
func (l *EventLog) Entities() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entities...)
}

// Markers returns a copy of the sequence recorded for entity
func (l *EventLog) Markers(entity string) []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Marker(nil), l.markers[entity]...)
}

// snapshot copies every sequence under a single lock so aggregation sees
// a consistent view.
func (l *EventLog) snapshot() ([]string, map[string][]Marker) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entities := append([]string(nil), l.entities...)
	markers := make(map[string][]Marker, len(l.markers))
	for id, seq := range l.markers {
		markers[id] = append([]Marker(nil), seq...)
	}
	return entities, markers
}
