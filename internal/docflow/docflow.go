package docflow

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aldb-associates/inspection-ingest/internal/objstore"
	"github.com/aldb-associates/inspection-ingest/internal/ocr"
	"github.com/aldb-associates/inspection-ingest/internal/store"
	"github.com/aldb-associates/inspection-ingest/internal/summarize"
	"github.com/aldb-associates/inspection-ingest/pkg/resend"
)

// Request describes one uploaded document to process.
type Request struct {
	ReportNum  string
	FileName   string
	Path       string
	Recipients []string
}

// Result reports what happened to a processed document. Summary and email
// failures are carried here rather than failing the whole flow; the stored
// document is the primary outcome.
type Result struct {
	FileURL    string
	PageCount  int
	Text       string
	Summary    string
	SummaryErr error
	EmailSent  bool
	EmailErr   error
}

// Flow runs the document side path: validate, store, summarize, notify.
type Flow struct {
	store      store.Store
	extractor  ocr.Extractor
	summarizer summarize.Summarizer
	uploader   objstore.Uploader
	mailer     resend.Client
	from       string

	// validate is swappable in tests; production uses pdfcpu.
	validate func(path string) (int, error)
}

// New creates a Flow. The summarizer and mailer may be nil; the corresponding
// steps are skipped.
func New(st store.Store, extractor ocr.Extractor, summarizer summarize.Summarizer, uploader objstore.Uploader, mailer resend.Client, from string) *Flow {
	return &Flow{
		store:      st,
		extractor:  extractor,
		summarizer: summarizer,
		uploader:   uploader,
		mailer:     mailer,
		from:       from,
		validate:   ocr.ValidatePDF,
	}
}

// Process runs the full flow for one document. Upload and record linkage are
// fatal on failure; text extraction, summary and email degrade to fields on
// the Result.
func (f *Flow) Process(ctx context.Context, req Request) (*Result, error) {
	log := zap.L().With(zap.String("report_num", req.ReportNum), zap.String("file", req.FileName))

	pageCount, err := f.validate(req.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "docflow: reject %s", req.FileName)
	}

	res := &Result{PageCount: pageCount}
	objectName := objectNameFor(req)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		file, err := os.Open(req.Path)
		if err != nil {
			return eris.Wrapf(err, "docflow: open %s", req.Path)
		}
		defer file.Close()

		url, err := f.uploader.Upload(egCtx, objectName, "application/pdf", file)
		if err != nil {
			return eris.Wrap(err, "docflow: upload document")
		}
		res.FileURL = url

		if err := f.store.SetDocumentURL(egCtx, req.ReportNum, url); err != nil {
			return eris.Wrap(err, "docflow: link document to report")
		}
		return nil
	})

	eg.Go(func() error {
		text, err := f.extractor.ExtractText(egCtx, req.Path)
		if err != nil {
			res.SummaryErr = eris.Wrap(err, "docflow: extract text")
			log.Warn("docflow: text extraction failed", zap.Error(err))
			return nil
		}
		res.Text = text

		if f.summarizer == nil {
			return nil
		}
		summary, err := f.summarizer.Summarize(egCtx, text)
		if err != nil {
			res.SummaryErr = eris.Wrap(err, "docflow: summarize")
			log.Warn("docflow: summary failed", zap.Error(err))
			return nil
		}
		res.Summary = summary
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if f.mailer != nil && len(req.Recipients) > 0 {
		if err := f.email(ctx, req, res); err != nil {
			res.EmailErr = err
			log.Warn("docflow: summary email failed", zap.Error(err))
		} else {
			res.EmailSent = true
		}
	}

	log.Info("docflow: document processed",
		zap.Int("pages", res.PageCount),
		zap.Bool("email_sent", res.EmailSent),
		zap.String("url", res.FileURL))
	return res, nil
}

func (f *Flow) email(ctx context.Context, req Request, res *Result) error {
	body := fmt.Sprintf(
		"<h2>Safety Document Summary - %s</h2><p>%s</p><p>Document: <a href=%q>%s</a></p>",
		html.EscapeString(req.ReportNum),
		html.EscapeString(res.Summary),
		res.FileURL, html.EscapeString(req.FileName))

	content, err := os.ReadFile(req.Path)
	if err != nil {
		return eris.Wrapf(err, "docflow: read attachment %s", req.Path)
	}

	_, err = f.mailer.Send(ctx, resend.SendRequest{
		From:    f.from,
		To:      req.Recipients,
		Subject: fmt.Sprintf("Safety Document Summary - %s", req.ReportNum),
		HTML:    body,
		Attachments: []resend.Attachment{
			{Filename: req.FileName, Content: content},
		},
	})
	return eris.Wrap(err, "docflow: send summary email")
}

// objectNameFor builds a unique storage object name; report numbers repeat
// across re-uploads so a uuid keeps old versions addressable.
func objectNameFor(req Request) string {
	ext := filepath.Ext(req.FileName)
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("report-%s-%s%s", req.ReportNum, uuid.New().String(), ext)
}
