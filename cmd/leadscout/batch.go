package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/FranksOps/leadscout/internal/export"
	"github.com/FranksOps/leadscout/internal/loader"
)

func newBatchCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Find executives for every company in a JSON or CSV file",
		Example: `  leadscout batch --input companies.json
  leadscout batch --input companies.csv --mode full --target 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return errors.New("--input is required")
			}
			if err := a.cfg.ValidateKeys(false); err != nil {
				return err
			}
			companies, err := loader.LoadFile(input, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("loaded companies", "path", input, "count", len(companies))

			return a.withMetrics(cmd.Context(), func(ctx context.Context) error {
				return a.runCompanies(ctx, companies, export.SourceUpload)
			})
		},
	}

	addRunFlags(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "company list (.json or .csv)")
	return cmd
}

// addRunFlags registers the flags shared by commands that run the pipeline.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("mode", "basic", "basic (extract only) or full (extract and enrich)")
	f.Int("target", 0, "executives per company (0 selects 3 for basic, 5 for full)")
	f.Int("max-retries", 3, "queries tried per company before giving up")
	f.StringP("output", "o", "executives.csv", "simple CSV output path")
	f.String("detailed-output", "executives_detailed.csv", "detailed CSV output path (empty disables)")
	f.Bool("append", true, "append to existing output files instead of replacing them")

	bindKey(cmd, "mode", "batch.mode")
	bindKey(cmd, "target", "batch.target")
	bindKey(cmd, "max-retries", "batch.max_retries")
	bindKey(cmd, "output", "output.path")
	bindKey(cmd, "detailed-output", "output.detailed_path")
	bindKey(cmd, "append", "output.append")
}
