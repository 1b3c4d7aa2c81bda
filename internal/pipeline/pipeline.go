package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/model"
	"github.com/aldb-associates/inspection-ingest/internal/store"
)

// DefaultReportNumPath is where the current form revision carries the
// report number.
const DefaultReportNumPath = "Entry.AnswersJson.p1.reportNum"

// Pipeline orchestrates extraction, aggregation, projection and persistence
// for one submission. One instance serves concurrent requests; all per-run
// state lives on the stack.
type Pipeline struct {
	store         store.Store
	gate          *Gate
	projection    Projection
	reportNumPath string
	archive       bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReportNumPath overrides the submission path the report number is read
// from.
func WithReportNumPath(path string) Option {
	return func(p *Pipeline) {
		p.reportNumPath = path
	}
}

// WithArchive enables the secondary raw-submission write. Archive failures
// are reported independently and never fail the primary outcome.
func WithArchive(enabled bool) Option {
	return func(p *Pipeline) {
		p.archive = enabled
	}
}

// New creates a Pipeline over the given store and projection spec.
func New(st store.Store, projection Projection, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:         st,
		gate:          NewGate(st),
		projection:    projection,
		reportNumPath: DefaultReportNumPath,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result is the success acknowledgment for one ingested submission. The
// column-name set, not the raw values, is what callers get back.
type Result struct {
	ReportNum  string   `json:"report_num"`
	Columns    []string `json:"columns"`
	ArchiveID  string   `json:"archive_id,omitempty"`
	ArchiveErr error    `json:"-"`
}

// Ingest runs the full pipeline for one submission: identity resolution,
// duplicate gate, aggregation, projection, persistence. Steps short-circuit
// on first failure; a duplicate report performs no mutation.
func (p *Pipeline) Ingest(ctx context.Context, sub model.Submission) (*Result, error) {
	if len(sub) == 0 {
		return nil, ErrMissingPayload
	}

	reportNum := p.reportNum(sub)
	if reportNum == "" {
		// An absent report number would make the duplicate check
		// meaningless, so it is rejected up front.
		return nil, eris.Wrap(ErrMissingPayload, "pipeline: report number absent")
	}

	log := zap.L().With(zap.String("report_num", reportNum))

	if err := p.gate.Check(ctx, reportNum); err != nil {
		return nil, err
	}

	agg := Aggregate(sub)
	rec := Project(sub, agg, p.projection)

	if err := p.store.InsertReport(ctx, reportNum, rec); err != nil {
		return nil, eris.Wrap(err, "pipeline: insert report")
	}
	log.Info("pipeline: report ingested", zap.Int("columns", len(rec)))

	res := &Result{ReportNum: reportNum, Columns: rec.Columns()}

	if p.archive {
		id, err := p.store.ArchiveSubmission(ctx, sub)
		if err != nil {
			log.Error("pipeline: raw submission archive failed", zap.Error(err))
			res.ArchiveErr = err
		} else {
			res.ArchiveID = id
		}
	}

	return res, nil
}

// reportNum resolves the report number header as a string; numeric report
// numbers are accepted and stringified.
func (p *Pipeline) reportNum(sub model.Submission) string {
	v, ok := sub.HeaderValue(p.reportNumPath)
	if !ok || v == nil {
		return ""
	}
	switch n := v.(type) {
	case string:
		return n
	default:
		return fmt.Sprintf("%v", n)
	}
}
