package report

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/aldb-associates/inspection-ingest/internal/model"
	"github.com/aldb-associates/inspection-ingest/internal/pipeline"
)

// Workbook renders the day's reports as a spreadsheet for the email
// attachment. One row per report, aggregate totals per rating label.
func Workbook(d *Daily) ([]byte, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Reports")
	if err != nil {
		return nil, eris.Wrap(err, "report: add sheet")
	}

	labels := model.BaselineLabels()

	header := sheet.AddRow()
	header.AddCell().SetString("Report Num")
	header.AddCell().SetString("Ingested At (UTC)")
	header.AddCell().SetString("Document URL")
	for _, label := range labels {
		header.AddCell().SetString("Total " + label)
	}

	for _, row := range d.Rows {
		r := sheet.AddRow()
		r.AddCell().SetString(row.ReportNum)
		r.AddCell().SetString(row.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		r.AddCell().SetString(row.DocumentURL)
		for _, label := range labels {
			r.AddCell().SetInt(totalColumn(row, "total_"+pipeline.NormalizeLabel(label)))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "report: write workbook")
	}
	return buf.Bytes(), nil
}
