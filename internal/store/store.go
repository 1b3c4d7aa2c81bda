package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// ErrDuplicateReport marks an ingestion attempt for a report number that
// already has a persisted record. The report number is the natural key for
// deduplication; no other field substitutes for it.
var ErrDuplicateReport = eris.New("duplicate report")

// ReportRow is one persisted report record.
type ReportRow struct {
	ID          string                `json:"id"`
	ReportNum   string                `json:"report_num"`
	Record      model.ProjectedRecord `json:"record"`
	DocumentURL string                `json:"document_url,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Store defines the persistence interface for the ingestion service.
type Store interface {
	// Reports
	ReportExists(ctx context.Context, reportNum string) (bool, error)
	// InsertReport persists one projected record. A unique-constraint
	// violation on the report number surfaces as ErrDuplicateReport.
	InsertReport(ctx context.Context, reportNum string, rec model.ProjectedRecord) error
	// SetDocumentURL attaches the stored-document URL to a report record,
	// creating a stub record when none exists yet.
	SetDocumentURL(ctx context.Context, reportNum, url string) error
	ListReportsOn(ctx context.Context, day time.Time) ([]ReportRow, error)

	// Raw submission archive (secondary, dual-write path)
	ArchiveSubmission(ctx context.Context, sub model.Submission) (string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
