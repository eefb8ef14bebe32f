// Package metrics provides a lightweight log-based metrics utility for the
// function host. Metric documents are written as structured JSON to stdout,
// where the platform log pipeline (Application Insights for a deployed
// function app) ingests them — no API calls, no added latency. The stable
// metricCategory field makes the lines queryable from KQL.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Standard metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// metricDef holds the name and unit for a single metric.
type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// Recorder accumulates dimensions, metrics, and properties for a single flush.
// It is NOT safe for concurrent use from multiple goroutines; create one per
// operation.
type Recorder struct {
	category   string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]interface{}
	properties map[string]interface{}
}

var (
	// siteName is cached from WEBSITE_SITE_NAME at first use.
	siteName string
	initOnce sync.Once
)

func initSiteName() {
	siteName = os.Getenv("WEBSITE_SITE_NAME")
}

// New creates a Recorder with the given metric category.
// It automatically adds the SiteName dimension from the host environment.
func New(category string) *Recorder {
	initOnce.Do(initSiteName)
	r := &Recorder{
		category:   category,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]interface{}),
		properties: make(map[string]interface{}),
	}
	if siteName != "" {
		r.dimensions["SiteName"] = siteName
	}
	return r
}

// Dimension adds a dimension key-value pair. Dimensions are the fields worth
// grouping by in queries (operation name, status class).
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named metric value with a unit.
// Use the Unit* constants (UnitMilliseconds, UnitCount, UnitBytes, UnitNone).
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count is a convenience for recording a count metric (value = 1).
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a non-metric field to the document. Properties are searchable
// in the logs but are not meant to be aggregated.
func (r *Recorder) Property(key string, value interface{}) *Recorder {
	r.properties[key] = value
	return r
}

// Flush serializes the metric document as a single JSON line to stdout.
// After flushing, the Recorder should not be reused.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return // Nothing to emit
	}

	doc := make(map[string]interface{})

	// Metric definitions keep the document self-describing.
	metricDefs := make([]metricDef, 0, len(r.metrics))
	for _, m := range r.metrics {
		metricDefs = append(metricDefs, m)
	}

	doc["metricCategory"] = r.category
	doc["timestamp"] = time.Now().UnixMilli()
	doc["metrics"] = metricDefs

	// Dimension, metric, and property values are flattened to top-level
	// fields so query languages can address them directly.
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	for k, v := range r.properties {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		// Best-effort: log to stderr if marshaling fails
		fmt.Fprintf(os.Stderr, "metrics: failed to marshal document: %v\n", err)
		return
	}

	// One document per line on stdout.
	fmt.Fprintln(os.Stdout, string(data))
}
