package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/psantana5/segtime/internal/profile"
)

// Collector exposes a registry's current timings as Prometheus gauges.
// Values are recomputed from the markers on every scrape.
type Collector struct {
	registry *profile.Registry
	segment  *prometheus.Desc
	entity   *prometheus.Desc
	entities *prometheus.Desc
}

// NewCollector creates a collector over reg
func NewCollector(reg *profile.Registry) *Collector {
	return &Collector{
		registry: reg,
		segment: prometheus.NewDesc(
			"segtime_segment_seconds",
			"Cumulative seconds spent in a segment for one entity",
			[]string{"category", "entity", "key"}, nil,
		),
		entity: prometheus.NewDesc(
			"segtime_entity_seconds",
			"Cumulative seconds across all segments for one entity",
			[]string{"category", "entity"}, nil,
		),
		entities: prometheus.NewDesc(
			"segtime_entities",
			"Entities reported in a category",
			[]string{"category"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.segment
	ch <- c.entity
	ch <- c.entities
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, cat := range c.registry.Categories() {
		if !cat.Used() {
			continue
		}
		rows := cat.Rows()
		for _, r := range rows {
			for _, key := range r.Totals.Keys() {
				if key == profile.TotalKey {
					continue
				}
				v, _ := r.Totals.Get(key)
				ch <- prometheus.MustNewConstMetric(c.segment, prometheus.GaugeValue, v, cat.Label(), r.Entity, key)
			}
			ch <- prometheus.MustNewConstMetric(c.entity, prometheus.GaugeValue, r.Totals.Total, cat.Label(), r.Entity)
		}
		ch <- prometheus.MustNewConstMetric(c.entities, prometheus.GaugeValue, float64(len(rows)), cat.Label())
	}
}
