package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aldb-associates/inspection-ingest/internal/model"
)

// ingestCmd runs a single submission file through the pipeline. Useful for
// backfills and for replaying raw submissions out of the archive.
var ingestCmd = &cobra.Command{
	Use:   "ingest <submission.json>",
	Short: "Ingest a single submission JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read submission %s", args[0])
		}

		var sub model.Submission
		if err := json.Unmarshal(raw, &sub); err != nil {
			return eris.Wrapf(err, "parse submission %s", args[0])
		}

		env, err := initIngest(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Ingest(cmd.Context(), sub)
		if err != nil {
			return err
		}

		zap.L().Info("submission ingested",
			zap.String("report_num", res.ReportNum),
			zap.Int("columns", len(res.Columns)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
