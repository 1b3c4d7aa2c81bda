package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/aldb-associates/inspection-ingest/internal/report"
	"github.com/aldb-associates/inspection-ingest/pkg/resend"
)

var dailyReportDate string

// dailyReportCmd builds and emails the day's processing report. Scheduling
// is left to cron or whatever runs the box.
var dailyReportCmd = &cobra.Command{
	Use:   "dailyreport",
	Short: "Email the daily document processing report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("dailyreport"); err != nil {
			return err
		}

		day := time.Now().UTC()
		if dailyReportDate != "" {
			parsed, err := time.Parse("2006-01-02", dailyReportDate)
			if err != nil {
				return eris.Wrapf(err, "parse date %q", dailyReportDate)
			}
			day = parsed
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		mailer := resend.NewClient(cfg.Resend.Key, resend.WithBaseURL(cfg.Resend.BaseURL))
		reporter := report.NewReporter(st, mailer, cfg.Resend.From)

		daily, err := reporter.Build(cmd.Context(), day)
		if err != nil {
			return err
		}
		return reporter.Send(cmd.Context(), daily, cfg.Report.Recipients)
	},
}

func init() {
	dailyReportCmd.Flags().StringVar(&dailyReportDate, "date", "", "report date (YYYY-MM-DD, default today UTC)")
	rootCmd.AddCommand(dailyReportCmd)
}
