package pipeline

import (
	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// Aggregate walks every section of the submission and rolls the per-section
// rating counts into an AggregateResult with a synthetic total entry.
// Section processing is commutative, so enumeration order does not affect
// the result. A submission with no sections yields just the total entry
// with every baseline label at zero.
func Aggregate(sub model.Submission) model.AggregateResult {
	result := make(model.AggregateResult)
	total := model.BaselineCounts()

	for _, sec := range sub.Sections() {
		name := sec.Key
		if sec.Doc == nil {
			zap.L().Warn("aggregate: section has unexpected shape",
				zap.String("section", sec.Key),
			)
		} else if category, ok := sec.Doc["category_"+sec.Key].(string); ok && category != "" {
			name = category
		}

		counts := ExtractSection(sec.Key, sec.Doc)
		result[sec.Key] = model.SectionResult{Name: name, Counts: counts}
		total.Merge(counts)
	}

	result[model.TotalKey] = model.SectionResult{Name: "Total", Counts: total}
	return result
}
