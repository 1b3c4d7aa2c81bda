package pipeline

import "github.com/aldb-associates/inspection-ingest/internal/model"

// newSubmission wraps per-section documents in the provider's envelope.
func newSubmission(sections map[string]any) model.Submission {
	return model.Submission{
		"Entry": map[string]any{
			"AnswersJson": sections,
		},
	}
}

// ratedSection builds a section document whose questions each carry a
// direct riskRating field.
func ratedSection(key, category string, ratings ...string) map[string]any {
	questions := make([]any, 0, len(ratings))
	for _, r := range ratings {
		questions = append(questions, map[string]any{"riskRating_" + key: r})
	}
	sec := map[string]any{"questions_" + key: questions}
	if category != "" {
		sec["category_"+key] = category
	}
	return sec
}
