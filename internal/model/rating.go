package model

// Baseline rating labels assigned to inspection questions. Source data may
// introduce labels outside this set at any time; the count maps grow to
// accept them rather than reject.
const (
	LabelGood     = "Good"
	LabelLow      = "Low"
	LabelMedium   = "Medium"
	LabelHigh     = "High"
	LabelStopWork = "Stop Work"
)

// TotalKey is the synthetic aggregate entry holding the cross-section sums.
const TotalKey = "total"

// BaselineLabels returns the closed baseline label set in severity order.
func BaselineLabels() []string {
	return []string{LabelGood, LabelLow, LabelMedium, LabelHigh, LabelStopWork}
}

// RatingCounts maps a rating label to the number of questions that carried it.
type RatingCounts map[string]int

// BaselineCounts returns a fresh count map with every baseline label at zero.
// Callers mutate the result, so a new instance is allocated on every call.
func BaselineCounts() RatingCounts {
	counts := make(RatingCounts, 5)
	for _, label := range BaselineLabels() {
		counts[label] = 0
	}
	return counts
}

// Add increments the count for a label, inserting it when unknown.
func (c RatingCounts) Add(label string) {
	c[label]++
}

// Merge adds every count from other into c, inserting labels c has not seen.
func (c RatingCounts) Merge(other RatingCounts) {
	for label, n := range other {
		c[label] += n
	}
}

// SectionResult is the rating rollup for one form section.
type SectionResult struct {
	Name   string       `json:"name"`
	Counts RatingCounts `json:"counts"`
}

// AggregateResult maps section keys to their rollups, plus the TotalKey entry
// whose counts are the label-wise sum over all sections.
type AggregateResult map[string]SectionResult
