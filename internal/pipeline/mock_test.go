package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/aldb-associates/inspection-ingest/internal/model"
	"github.com/aldb-associates/inspection-ingest/internal/store"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	reports    map[string]model.ProjectedRecord
	archived   []model.Submission
	existsErr  error
	insertErr  error
	archiveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{reports: make(map[string]model.ProjectedRecord)}
}

func (f *fakeStore) ReportExists(_ context.Context, reportNum string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.reports[reportNum]
	return ok, nil
}

func (f *fakeStore) InsertReport(_ context.Context, reportNum string, rec model.ProjectedRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.reports[reportNum]; ok {
		return eris.Wrapf(store.ErrDuplicateReport, "fake: report %s", reportNum)
	}
	f.reports[reportNum] = rec
	return nil
}

func (f *fakeStore) SetDocumentURL(_ context.Context, reportNum, url string) error {
	rec, ok := f.reports[reportNum]
	if !ok {
		rec = model.ProjectedRecord{}
		f.reports[reportNum] = rec
	}
	rec["document_url"] = url
	return nil
}

func (f *fakeStore) ListReportsOn(context.Context, time.Time) ([]store.ReportRow, error) {
	return nil, nil
}

func (f *fakeStore) ArchiveSubmission(_ context.Context, sub model.Submission) (string, error) {
	if f.archiveErr != nil {
		return "", f.archiveErr
	}
	f.archived = append(f.archived, sub)
	return "archive-1", nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }
