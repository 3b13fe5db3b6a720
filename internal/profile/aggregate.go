package profile

import "encoding/json"

// TotalKey is the reserved name the grand total is written under when a
// report is rendered as a map. A segment key of the same name is shadowed.
const TotalKey = "total"

// Totals holds the cumulative seconds per key for one entity, keys kept in
// the order they first accumulated time.
type Totals struct {
	keys    []string
	seconds map[string]float64
	Total   float64
}

// Keys returns segment keys in encounter order
func (t Totals) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Get returns the seconds accumulated for key
func (t Totals) Get(key string) (float64, bool) {
	s, ok := t.seconds[key]
	return s, ok
}

// Sum adds the per-key values in encounter order
func (t Totals) Sum() float64 {
	var sum float64
	for _, k := range t.keys {
		sum += t.seconds[k]
	}
	return sum
}

// value is the cell value for a report column
func (t Totals) value(column string) (float64, bool) {
	if column == TotalKey {
		return t.Total, true
	}
	return t.Get(column)
}

// Map flattens the totals, writing the grand total under TotalKey
func (t Totals) Map() map[string]float64 {
	m := make(map[string]float64, len(t.keys)+1)
	for _, k := range t.keys {
		m[k] = t.seconds[k]
	}
	m[TotalKey] = t.Total
	return m
}

// MarshalJSON encodes the flattened map form
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

// MarshalYAML encodes the flattened map form
func (t Totals) MarshalYAML() (interface{}, error) {
	return t.Map(), nil
}

// Aggregate converts one entity's markers into per-key totals.
// Each marker's key is charged the time until the next marker; a stop marker
// is charged nothing and the first marker only opens the first segment.
func Aggregate(markers []Marker) Totals {
	t := Totals{seconds: make(map[string]float64)}

	var last *Marker
	for i := range markers {
		m := &markers[i]
		if last != nil && !last.Stop {
			delta := float64(m.At-last.At) / 1000
			if _, ok := t.seconds[last.Key]; !ok {
				t.keys = append(t.keys, last.Key)
			}
			t.seconds[last.Key] += delta
		}
		last = m
	}

	t.Total = t.Sum()
	return t
}
