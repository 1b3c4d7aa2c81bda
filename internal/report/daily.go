package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/store"
	"github.com/aldb-associates/inspection-ingest/pkg/resend"
)

// Daily summarizes one calendar day of ingested reports for the morning
// email to site management.
type Daily struct {
	Date time.Time
	Rows []store.ReportRow
}

// Reporter builds and sends the daily report.
type Reporter struct {
	store  store.Store
	mailer resend.Client
	from   string
}

// NewReporter creates a Reporter.
func NewReporter(st store.Store, mailer resend.Client, from string) *Reporter {
	return &Reporter{store: st, mailer: mailer, from: from}
}

// Build collects the reports ingested on the given day.
func (r *Reporter) Build(ctx context.Context, day time.Time) (*Daily, error) {
	rows, err := r.store.ListReportsOn(ctx, day)
	if err != nil {
		return nil, eris.Wrap(err, "report: list reports")
	}
	return &Daily{Date: day, Rows: rows}, nil
}

// Send emails the daily report to the recipients, with the spreadsheet
// attached. An empty day still sends; silence reads as a broken pipeline.
func (r *Reporter) Send(ctx context.Context, d *Daily, recipients []string) error {
	body, err := d.HTML()
	if err != nil {
		return err
	}

	workbook, err := Workbook(d)
	if err != nil {
		return err
	}

	_, err = r.mailer.Send(ctx, resend.SendRequest{
		From:    r.from,
		To:      recipients,
		Subject: d.Subject(),
		HTML:    body,
		Attachments: []resend.Attachment{
			{Filename: fmt.Sprintf("daily-report-%s.xlsx", d.Date.Format("2006-01-02")), Content: workbook},
		},
	})
	if err != nil {
		return eris.Wrap(err, "report: send daily email")
	}

	zap.L().Info("report: daily report sent",
		zap.String("date", d.Date.Format("2006-01-02")),
		zap.Int("reports", len(d.Rows)),
		zap.Int("recipients", len(recipients)))
	return nil
}

// Subject returns the email subject line for the day.
func (d *Daily) Subject() string {
	return fmt.Sprintf("Daily Document Processing Report - %s", d.Date.Format("2006-01-02"))
}

var dailyTemplate = template.Must(template.New("daily").
	Funcs(template.FuncMap{"total": totalColumn}).
	Parse(`<h2>Daily Document Processing Report</h2>
<p>{{.Date.Format "2006-01-02"}} &mdash; {{len .Rows}} report(s) processed.</p>
{{if .Rows}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Report</th><th>Ingested (UTC)</th><th>High</th><th>Stop Work</th><th>Document</th></tr>
{{range .Rows}}<tr>
<td>{{.ReportNum}}</td>
<td>{{.CreatedAt.UTC.Format "15:04"}}</td>
<td>{{total . "total_high"}}</td>
<td>{{total . "total_stop_work"}}</td>
<td>{{if .DocumentURL}}<a href="{{.DocumentURL}}">PDF</a>{{else}}&mdash;{{end}}</td>
</tr>{{end}}
</table>{{else}}<p>No reports were ingested.</p>{{end}}
`))

// HTML renders the report body.
func (d *Daily) HTML() (string, error) {
	var buf bytes.Buffer
	if err := dailyTemplate.Execute(&buf, d); err != nil {
		return "", eris.Wrap(err, "report: render html")
	}
	return buf.String(), nil
}

// totalColumn reads an aggregate count column off a stored record; records
// predating a label simply show zero.
func totalColumn(row store.ReportRow, column string) int {
	v, ok := row.Record[column]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
