package model

import (
	"sort"
	"strings"
)

// Submission is one raw inspection-form document as received from the form
// provider. The shape is not fixed: sections appear and disappear between
// form revisions, so everything is navigated dynamically.
type Submission map[string]any

// answersPath is where the form provider nests the per-section answers.
var answersPath = []string{"Entry", "AnswersJson"}

// AnswerSet returns the nested answer-set document, or nil when the
// submission does not carry one.
func (s Submission) AnswerSet() map[string]any {
	cur := map[string]any(s)
	for _, seg := range answersPath {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// SectionEntry pairs a section key with its sub-document. Doc is nil when
// the section value is not an object.
type SectionEntry struct {
	Key string
	Doc map[string]any
}

// Sections enumerates every section present under the answer-set, sorted by
// key. Discovery is dynamic: whatever keys exist are returned, there is no
// fixed section list.
func (s Submission) Sections() []SectionEntry {
	answers := s.AnswerSet()
	if answers == nil {
		return nil
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]SectionEntry, 0, len(keys))
	for _, k := range keys {
		doc, _ := answers[k].(map[string]any)
		entries = append(entries, SectionEntry{Key: k, Doc: doc})
	}
	return entries
}

// HeaderValue resolves a dotted path from the submission root. The second
// return is false when any segment is missing or not an object.
func (s Submission) HeaderValue(path string) (any, bool) {
	segs := strings.Split(path, ".")
	cur := any(map[string]any(s))
	for _, seg := range segs {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
