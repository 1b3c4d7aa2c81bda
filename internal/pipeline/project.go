package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// HeaderField maps a dotted submission path to a fixed output column name.
type HeaderField struct {
	Path   string `yaml:"path"`
	Column string `yaml:"column"`
}

// Projection configures the flattening of an aggregate into one flat record.
// Prefixes is a lookup table, not an enumeration constraint: section keys
// not listed fall back to their lower-cased key, so new section types need
// no code change.
type Projection struct {
	Headers  []HeaderField     `yaml:"headers"`
	Prefixes map[string]string `yaml:"prefixes"`
	Exclude  []string          `yaml:"exclude"`
}

// DefaultProjection returns the projection spec for the current inspection
// form revision: p1 is the administrative header section and is never
// flattened into rating columns.
func DefaultProjection() Projection {
	return Projection{
		Headers: []HeaderField{
			{Path: "Entry.AnswersJson.p1.projectCode", Column: "project_code"},
			{Path: "Entry.AnswersJson.p1.customerName", Column: "customer_name"},
			{Path: "Entry.AnswersJson.p1.customerCode", Column: "customer_code"},
			{Path: "Entry.AnswersJson.p1.date", Column: "report_date"},
			{Path: "Entry.AnswersJson.p1.author", Column: "author"},
			{Path: "Entry.AnswersJson.p1.reportNum", Column: "report_num"},
			{Path: "Entry.AnswersJson.p1.startTime", Column: "start_time"},
			{Path: "Entry.AnswersJson.p1.endTime", Column: "end_time"},
		},
		Prefixes: map[string]string{
			"p2":  "access_and_security",
			"p3":  "falls_from_heights",
			"p4":  "scaffolding",
			"p5":  "electrical_safety",
			"p6":  "lifting_operations",
			"p7":  "machinery_and_tools",
			"p8":  "housekeeping",
			"p9":  "excavations",
			"p10": "ppe",
			"p11": "fire_protection",
			"p12": "welfare_facilities",
		},
		Exclude: []string{"p1"},
	}
}

// LoadProjection reads a projection spec from a YAML file, or returns the
// default spec when path is empty.
func LoadProjection(path string) (Projection, error) {
	if path == "" {
		return DefaultProjection(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Projection{}, eris.Wrapf(err, "projection: read %s", path)
	}
	var p Projection
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Projection{}, eris.Wrapf(err, "projection: parse %s", path)
	}
	return p, nil
}

// NormalizeLabel lower-cases a rating label and collapses whitespace runs to
// single underscores ("Stop Work" -> "stop_work").
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "_")
}

// ColumnName derives the stable column for a (section key, rating label)
// pair. The mapping is a pure function of its inputs and the prefix table,
// which keeps downstream storage columns stable across report revisions.
func (p Projection) ColumnName(sectionKey, label string) string {
	prefix, ok := p.Prefixes[sectionKey]
	if !ok {
		prefix = strings.ToLower(sectionKey)
	}
	return prefix + "_" + NormalizeLabel(label)
}

// Project flattens the aggregate plus the configured header fields into a
// single record. Header paths missing from the submission leave their
// column absent; surfacing that is a persistence-layer concern.
func Project(sub model.Submission, agg model.AggregateResult, p Projection) model.ProjectedRecord {
	rec := make(model.ProjectedRecord, len(agg)*5+len(p.Headers))

	for _, h := range p.Headers {
		if v, ok := sub.HeaderValue(h.Path); ok {
			rec[h.Column] = v
		}
	}

	excluded := make(map[string]bool, len(p.Exclude))
	for _, k := range p.Exclude {
		excluded[k] = true
	}

	for key, sec := range agg {
		if key == model.TotalKey {
			for label, n := range sec.Counts {
				rec["total_"+NormalizeLabel(label)] = n
			}
			continue
		}
		if excluded[key] {
			continue
		}
		for label, n := range sec.Counts {
			rec[p.ColumnName(key, label)] = n
		}
	}
	return rec
}
