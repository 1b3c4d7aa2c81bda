package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/aldb-associates/inspection-ingest/internal/db"
	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot ingestion path.
var preparedStatements = map[string]string{
	"report_exists":      `SELECT EXISTS(SELECT 1 FROM inspection_reports WHERE report_num = $1)`,
	"insert_report":      `INSERT INTO inspection_reports (id, report_num, record, created_at) VALUES ($1, $2, $3, $4)`,
	"archive_submission": `INSERT INTO raw_submissions (id, payload, created_at) VALUES ($1, $2, $3)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// The UNIQUE constraint on report_num is the authoritative duplicate guard:
// the read-before-write gate check can race across concurrent submissions,
// the constraint cannot.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS inspection_reports (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	report_num   TEXT NOT NULL UNIQUE,
	record       JSONB NOT NULL,
	document_url TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_inspection_reports_created_at ON inspection_reports(created_at);

CREATE TABLE IF NOT EXISTS raw_submissions (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_raw_submissions_created_at ON raw_submissions(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReportExists(ctx context.Context, reportNum string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM inspection_reports WHERE report_num = $1)`,
		reportNum,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: report exists %s", reportNum)
	}
	return exists, nil
}

func (s *PostgresStore) InsertReport(ctx context.Context, reportNum string, rec model.ProjectedRecord) error {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO inspection_reports (id, report_num, record, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), reportNum, recordJSON, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return eris.Wrapf(ErrDuplicateReport, "postgres: report %s", reportNum)
	}
	return eris.Wrapf(err, "postgres: insert report %s", reportNum)
}

func (s *PostgresStore) SetDocumentURL(ctx context.Context, reportNum, url string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO inspection_reports (id, report_num, record, document_url, created_at)
		 VALUES ($1, $2, '{}'::jsonb, $3, $4)
		 ON CONFLICT (report_num) DO UPDATE SET document_url = EXCLUDED.document_url`,
		uuid.New().String(), reportNum, url, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set document url %s", reportNum)
}

func (s *PostgresStore) ListReportsOn(ctx context.Context, day time.Time) ([]ReportRow, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := s.pool.Query(ctx,
		`SELECT id, report_num, record, document_url, created_at FROM inspection_reports
		 WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at ASC`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []ReportRow
	for rows.Next() {
		var r ReportRow
		var recordJSON []byte
		var docURL *string
		if err := rows.Scan(&r.ID, &r.ReportNum, &recordJSON, &docURL, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		if err := json.Unmarshal(recordJSON, &r.Record); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		if docURL != nil {
			r.DocumentURL = *docURL
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) ArchiveSubmission(ctx context.Context, sub model.Submission) (string, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal submission")
	}

	id := uuid.New().String()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO raw_submissions (id, payload, created_at) VALUES ($1, $2, $3)`,
		id, payload, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: archive submission")
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
