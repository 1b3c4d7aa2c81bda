package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/aldb-associates/inspection-ingest/internal/store"
)

// Gate enforces single-writer-per-report-number semantics with a
// read-before-write existence check. The check and the later insert are not
// atomic across concurrent requests carrying the same report number; the
// store's unique constraint on report_num is the authoritative guard and
// surfaces the same store.ErrDuplicateReport at write time.
type Gate struct {
	store store.Store
}

// NewGate creates a Gate backed by the given store.
func NewGate(st store.Store) *Gate {
	return &Gate{store: st}
}

// Check returns store.ErrDuplicateReport when any record already carries
// the report number, nil when the write path may proceed.
func (g *Gate) Check(ctx context.Context, reportNum string) error {
	exists, err := g.store.ReportExists(ctx, reportNum)
	if err != nil {
		return eris.Wrap(err, "gate: existence check")
	}
	if exists {
		return eris.Wrapf(store.ErrDuplicateReport, "gate: report %s", reportNum)
	}
	return nil
}
