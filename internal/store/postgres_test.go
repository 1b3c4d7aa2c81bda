package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresReportExists(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("R-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := st.ReportExists(context.Background(), "R-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportExists_Absent(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("R-404").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := st.ReportExists(context.Background(), "R-404")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostgresInsertReport(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO inspection_reports`).
		WithArgs(pgxmock.AnyArg(), "R-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := model.ProjectedRecord{"report_num": "R-1", "total_high": 2}
	err := st.InsertReport(context.Background(), "R-1", rec)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertReport_UniqueViolation(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO inspection_reports`).
		WithArgs(pgxmock.AnyArg(), "R-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "inspection_reports_report_num_key"})

	err := st.InsertReport(context.Background(), "R-1", model.ProjectedRecord{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateReport))
	assert.Contains(t, err.Error(), "R-1")
}

func TestPostgresInsertReport_OtherError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO inspection_reports`).
		WithArgs(pgxmock.AnyArg(), "R-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := st.InsertReport(context.Background(), "R-1", model.ProjectedRecord{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateReport))
}

func TestPostgresSetDocumentURL(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`ON CONFLICT \(report_num\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "R-1", "https://storage.googleapis.com/bucket/report.pdf", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.SetDocumentURL(context.Background(), "R-1", "https://storage.googleapis.com/bucket/report.pdf")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListReportsOn(t *testing.T) {
	st, mock := newMockStore(t)

	created := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	docURL := "https://example.com/r1.pdf"
	mock.ExpectQuery(`SELECT id, report_num, record, document_url, created_at FROM inspection_reports`).
		WithArgs(
			time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id", "report_num", "record", "document_url", "created_at"}).
			AddRow("id-1", "R-1", []byte(`{"total_high":2}`), &docURL, created).
			AddRow("id-2", "R-2", []byte(`{"total_low":1}`), (*string)(nil), created))

	rows, err := st.ListReportsOn(context.Background(), time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "R-1", rows[0].ReportNum)
	assert.Equal(t, docURL, rows[0].DocumentURL)
	assert.Equal(t, float64(2), rows[0].Record["total_high"])
	assert.Empty(t, rows[1].DocumentURL)
}

func TestPostgresArchiveSubmission(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO raw_submissions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sub := model.Submission{"Entry": map[string]any{"AnswersJson": map[string]any{}}}
	id, err := st.ArchiveSubmission(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS inspection_reports`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
}
