package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/psantana5/segtime/internal/profile"
	"gopkg.in/yaml.v3"
)

// Format selects a report encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatProm Format = "prom"
)

var (
	// ErrUnknownFormat is returned for an unsupported output format
	ErrUnknownFormat = errors.New("unknown report format")
	// ErrUnknownCategory is returned when a category label is not registered
	ErrUnknownCategory = errors.New("unknown category")
)

// ParseFormat validates an output format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatProm:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Document is the structured form of a registry: category -> entity -> totals
type Document map[string]map[string]profile.Totals

// Build collects every used category's report
func Build(reg *profile.Registry) Document {
	doc := make(Document)
	for _, cat := range reg.Categories() {
		if cat.Used() {
			doc[cat.Label()] = cat.Report()
		}
	}
	return doc
}

// CategoryReport returns the report of the category with label
func CategoryReport(reg *profile.Registry, label string) (map[string]profile.Totals, error) {
	cat, ok := reg.Lookup(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
	}
	return cat.Report(), nil
}

// Write encodes the registry's reports to w
func Write(w io.Writer, reg *profile.Registry, format Format) error {
	switch format {
	case FormatText, "":
		text := reg.String()
		if text == "" {
			return nil
		}
		_, err := fmt.Fprintln(w, text)
		return err

	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(Build(reg))

	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(Build(reg)); err != nil {
			return err
		}
		return encoder.Close()

	case FormatProm:
		return WriteMetrics(w, reg)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteMetrics renders the registry in Prometheus text exposition format
func WriteMetrics(w io.Writer, reg *profile.Registry) error {
	promReg := prometheus.NewRegistry()
	if err := promReg.Register(NewCollector(reg)); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}
	families, err := promReg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
