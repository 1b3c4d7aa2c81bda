package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/docflow"
	"github.com/aldb-associates/inspection-ingest/internal/objstore"
	"github.com/aldb-associates/inspection-ingest/internal/ocr"
	"github.com/aldb-associates/inspection-ingest/internal/pipeline"
	"github.com/aldb-associates/inspection-ingest/internal/store"
	"github.com/aldb-associates/inspection-ingest/internal/summarize"
	"github.com/aldb-associates/inspection-ingest/pkg/resend"
)

// appEnv holds the initialized store, pipeline and document flow shared by
// the serve/ingest/dailyreport commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Flow     *docflow.Flow
	Mailer   resend.Client

	uploader *objstore.GCSUploader
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.uploader != nil {
		_ = e.uploader.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "inspections.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initIngest sets up the store and ingestion pipeline only. Used by commands
// that never touch documents.
func initIngest(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	projection, err := pipeline.LoadProjection(cfg.Ingest.ProjectionFile)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithArchive(cfg.Ingest.Archive)}
	if cfg.Ingest.ReportNumPath != "" {
		opts = append(opts, pipeline.WithReportNumPath(cfg.Ingest.ReportNumPath))
	}

	return &appEnv{
		Store:    st,
		Pipeline: pipeline.New(st, projection, opts...),
	}, nil
}

// initFull extends initIngest with the document flow: extractor, object
// storage, summarizer and mailer. Summary and email degrade gracefully when
// their credentials are absent.
func initFull(ctx context.Context) (*appEnv, error) {
	env, err := initIngest(ctx)
	if err != nil {
		return nil, err
	}

	extractor, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		env.Close()
		return nil, err
	}

	uploader, err := objstore.NewGCS(ctx, cfg.Storage.Bucket)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.uploader = uploader

	var summarizer summarize.Summarizer
	if cfg.Summarizer.Key != "" {
		summarizer, err = summarize.New(cfg.Summarizer)
		if err != nil {
			env.Close()
			return nil, err
		}
	} else {
		zap.L().Warn("summarizer key not set, document summaries disabled")
	}

	var mailer resend.Client
	if cfg.Resend.Key != "" {
		mailer = resend.NewClient(cfg.Resend.Key, resend.WithBaseURL(cfg.Resend.BaseURL))
	} else {
		zap.L().Warn("resend key not set, email delivery disabled")
	}
	env.Mailer = mailer

	env.Flow = docflow.New(env.Store, extractor, summarizer, uploader, mailer, cfg.Resend.From)
	return env, nil
}
