package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

func TestAggregate_EmptySubmission(t *testing.T) {
	agg := Aggregate(newSubmission(map[string]any{}))

	require.Len(t, agg, 1)
	total, ok := agg[model.TotalKey]
	require.True(t, ok)
	assert.Equal(t, "Total", total.Name)
	assert.Equal(t, model.BaselineCounts(), total.Counts)
}

func TestAggregate_SectionNamesFromCategory(t *testing.T) {
	agg := Aggregate(newSubmission(map[string]any{
		"p2": ratedSection("p2", "Access & Security", "Good"),
		"p3": ratedSection("p3", "", "Good"),
	}))

	assert.Equal(t, "Access & Security", agg["p2"].Name)
	assert.Equal(t, "p3", agg["p3"].Name)
}

func TestAggregate_TotalInvariant(t *testing.T) {
	agg := Aggregate(newSubmission(map[string]any{
		"p2": ratedSection("p2", "Access", "High", "High", "Low"),
		"p3": ratedSection("p3", "Falls", "Good"),
		"p9": map[string]any{
			"questions_p9": []any{
				map[string]any{"chosenOptions_p9": "Extreme Risk - crane collapse"},
			},
		},
	}))

	// total.counts[L] == sum over sections of counts[L], for every label
	// observed anywhere, including the dynamically introduced one.
	labels := map[string]bool{}
	for key, sec := range agg {
		if key == model.TotalKey {
			continue
		}
		for l := range sec.Counts {
			labels[l] = true
		}
	}
	require.Contains(t, labels, "Extreme")

	for l := range labels {
		sum := 0
		for key, sec := range agg {
			if key == model.TotalKey {
				continue
			}
			sum += sec.Counts[l]
		}
		assert.Equal(t, sum, agg[model.TotalKey].Counts[l], "label %s", l)
	}
}

func TestAggregate_EndToEndCounts(t *testing.T) {
	agg := Aggregate(newSubmission(map[string]any{
		"p2": ratedSection("p2", "Access and Security", "High", "High", "Low"),
		"p3": ratedSection("p3", "Falls from Heights", "Good"),
	}))

	assert.Equal(t, model.RatingCounts{
		"Good": 0, "Low": 1, "Medium": 0, "High": 2, "Stop Work": 0,
	}, agg["p2"].Counts)
	assert.Equal(t, model.RatingCounts{
		"Good": 1, "Low": 0, "Medium": 0, "High": 0, "Stop Work": 0,
	}, agg["p3"].Counts)
	assert.Equal(t, model.RatingCounts{
		"Good": 1, "Low": 1, "Medium": 0, "High": 2, "Stop Work": 0,
	}, agg[model.TotalKey].Counts)
}

func TestAggregate_MalformedSectionContributesZero(t *testing.T) {
	agg := Aggregate(newSubmission(map[string]any{
		"p2": "not an object",
		"p3": ratedSection("p3", "", "High"),
	}))

	assert.Equal(t, model.BaselineCounts(), agg["p2"].Counts)
	assert.Equal(t, "p2", agg["p2"].Name)
	assert.Equal(t, 1, agg[model.TotalKey].Counts[model.LabelHigh])
}
