package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local and
// single-host deployments where running Postgres is not worth the trouble.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS inspection_reports (
	id           TEXT PRIMARY KEY,
	report_num   TEXT NOT NULL UNIQUE,
	record       TEXT NOT NULL,
	document_url TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_inspection_reports_created_at ON inspection_reports(created_at);

CREATE TABLE IF NOT EXISTS raw_submissions (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_raw_submissions_created_at ON raw_submissions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReportExists(ctx context.Context, reportNum string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM inspection_reports WHERE report_num = ?)`,
		reportNum,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: report exists %s", reportNum)
	}
	return exists, nil
}

func (s *SQLiteStore) InsertReport(ctx context.Context, reportNum string, rec model.ProjectedRecord) error {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO inspection_reports (id, report_num, record, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), reportNum, string(recordJSON), time.Now().UTC(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return eris.Wrapf(ErrDuplicateReport, "sqlite: report %s", reportNum)
	}
	return eris.Wrapf(err, "sqlite: insert report %s", reportNum)
}

func (s *SQLiteStore) SetDocumentURL(ctx context.Context, reportNum, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inspection_reports (id, report_num, record, document_url, created_at)
		 VALUES (?, ?, '{}', ?, ?)
		 ON CONFLICT (report_num) DO UPDATE SET document_url = excluded.document_url`,
		uuid.New().String(), reportNum, url, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set document url %s", reportNum)
}

func (s *SQLiteStore) ListReportsOn(ctx context.Context, day time.Time) ([]ReportRow, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report_num, record, document_url, created_at FROM inspection_reports
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []ReportRow
	for rows.Next() {
		var r ReportRow
		var recordJSON string
		var docURL sql.NullString
		if err := rows.Scan(&r.ID, &r.ReportNum, &recordJSON, &docURL, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		if err := json.Unmarshal([]byte(recordJSON), &r.Record); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		if docURL.Valid {
			r.DocumentURL = docURL.String
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) ArchiveSubmission(ctx context.Context, sub model.Submission) (string, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal submission")
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO raw_submissions (id, payload, created_at) VALUES (?, ?, ?)`,
		id, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: archive submission")
	}
	return id, nil
}
