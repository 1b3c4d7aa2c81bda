package model

import "sort"

// ProjectedRecord is the flat column-name → value mapping handed to the
// tabular store. It carries the header fields plus one column per
// (section, rating) pair and per total rating.
type ProjectedRecord map[string]any

// Columns returns the sorted column-name set of the record. This is the
// success acknowledgment returned to callers after ingestion.
func (r ProjectedRecord) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
