package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// riskMarker separates the rating label from the option description in
// chosen-option answers, e.g. "High Risk - missing guardrail".
const riskMarker = " Risk"

// ExtractSection folds one section's question entries into a rating count
// map. Sections without a question array, or whose question list has an
// unexpected shape, contribute zero counts; that is a deliberate
// zero-contribution branch, not an error.
func ExtractSection(key string, section map[string]any) model.RatingCounts {
	counts := model.BaselineCounts()
	if section == nil {
		return counts
	}

	raw, ok := section["questions_"+key]
	if !ok {
		return counts
	}
	questions, ok := raw.([]any)
	if !ok {
		zap.L().Warn("extract: question list has unexpected shape",
			zap.String("section", key),
		)
		return counts
	}

	for _, q := range questions {
		entry, ok := q.(map[string]any)
		if !ok {
			continue
		}
		if label := resolveLabel(key, entry); label != "" {
			counts.Add(label)
		}
	}
	return counts
}

// resolveLabel applies the two answer encodings in precedence order: a
// direct riskRating field wins; otherwise a chosen option containing the
// risk marker yields the text before it. A question with neither encoding
// contributes nothing.
func resolveLabel(key string, entry map[string]any) string {
	if v, ok := entry["riskRating_"+key].(string); ok && v != "" {
		return v
	}
	if v, ok := entry["chosenOptions_"+key].(string); ok {
		if i := strings.Index(v, riskMarker); i > 0 {
			return v[:i]
		}
	}
	return ""
}
