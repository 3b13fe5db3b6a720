package profile

import (
	"regexp"
	"sync/atomic"
)

// Option configures a Category
type Option func(*Category)

// WithClock sets the timestamp source
func WithClock(clock Clock) Option {
	return func(c *Category) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithExclude drops entities matching fn from reports
func WithExclude(fn func(entity string) bool) Option {
	return func(c *Category) {
		c.exclude = fn
	}
}

// WithExcludePattern drops entities whose identity matches re
func WithExcludePattern(re *regexp.Regexp) Option {
	return func(c *Category) {
		if re == nil {
			c.exclude = nil
			return
		}
		c.exclude = re.MatchString
	}
}

// WithDisplayName sets how entity identities are printed in the table
func WithDisplayName(fn func(entity string) string) Option {
	return func(c *Category) {
		c.display = fn
	}
}

// Category is one independent timing dimension with its own event log
type Category struct {
	label   string
	clock   Clock
	exclude func(string) bool
	display func(string) string
	log     *EventLog
	used    atomic.Bool
}

// NewCategory creates a category. Registries assign default labels;
// a standalone category keeps label as given.
func NewCategory(label string, opts ...Option) *Category {
	c := &Category{
		label: label,
		clock: SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = NewEventLog(c.clock)
	return c
}

// Label returns the category name
func (c *Category) Label() string {
	return c.label
}

// Used reports whether any marker was ever recorded
func (c *Category) Used() bool {
	return c.used.Load()
}

// Start returns a handle that opens a segment named key
func (c *Category) Start(key string) Handle {
	return Handle{cat: c, key: key}
}

// Stop returns a handle that closes the open segment
func (c *Category) Stop() Handle {
	return Handle{cat: c, stop: true}
}

// Entities returns every recorded entity in first-seen order, excluded ones included
func (c *Category) Entities() []string {
	return c.log.Entities()
}

// Markers returns the raw marker sequence for entity
func (c *Category) Markers(entity string) []Marker {
	return c.log.Markers(entity)
}

// Excluded reports whether entity is filtered out of reports
func (c *Category) Excluded(entity string) bool {
	return c.exclude != nil && c.exclude(entity)
}

// Rows aggregates every included entity, in first-seen order
func (c *Category) Rows() []Row {
	entities, markers := c.log.snapshot()

	rows := make([]Row, 0, len(entities))
	for _, id := range entities {
		if c.Excluded(id) {
			continue
		}
		name := id
		if c.display != nil {
			name = c.display(id)
		}
		rows = append(rows, Row{
			Entity: id,
			Name:   name,
			Totals: Aggregate(markers[id]),
		})
	}
	return rows
}

// Report returns fresh totals per included entity
func (c *Category) Report() map[string]Totals {
	rows := c.Rows()
	report := make(map[string]Totals, len(rows))
	for _, r := range rows {
		report[r.Entity] = r.Totals
	}
	return report
}

// String renders the timing table, or "" if the category was never used
func (c *Category) String() string {
	if !c.Used() {
		return ""
	}
	return FormatTable(c.label, c.Rows())
}

// Handle records one marker for an entity when its processing reaches a
// lifecycle point. The zero Handle records nothing.
type Handle struct {
	cat  *Category
	key  string
	stop bool
}

// Key returns the segment key, empty for stop handles
func (h Handle) Key() string {
	return h.key
}

// IsStop reports whether the handle closes segments
func (h Handle) IsStop() bool {
	return h.stop
}

// Record stamps the marker for entity and returns immediately
func (h Handle) Record(entity string) {
	if h.cat == nil {
		return
	}
	if h.stop {
		h.cat.log.RecordStop(entity)
	} else {
		h.cat.log.Record(entity, h.key)
	}
	h.cat.used.Store(true)
}

// RecordAsync stamps the marker then acknowledges through done
func (h Handle) RecordAsync(entity string, done func()) {
	h.Record(entity)
	if done != nil {
		done()
	}
}
