package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/FranksOps/leadscout/internal/export"
)

func newEnrichCmd(a *app) *cobra.Command {
	var (
		input, output string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look up LinkedIn profiles and emails for executives in an existing CSV",
		Long: `Enrich fills the LinkedIn and Email columns of an exported CSV. The file
keeps its header and every other column, so simple, detailed and batch
outputs can be enriched in place.`,
		Example: `  leadscout enrich --input executives.csv
  leadscout enrich --input executives_detailed.csv --output enriched.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return errors.New("--input is required")
			}
			if err := a.cfg.ValidateKeys(false); err != nil {
				return err
			}

			table, err := export.ReadTable(input)
			if err != nil {
				return err
			}
			if len(table.Records) == 0 {
				a.logger.Warn("no executives to enrich", "path", input)
				return nil
			}
			if limit <= 0 || limit > len(table.Records) {
				limit = len(table.Records)
			}

			ctx := cmd.Context()
			comps := &components{}
			defer comps.Close()
			enricher, err := a.newEnricher(ctx, comps)
			if err != nil {
				return err
			}

			a.logger.Info("enriching executives", "path", input, "count", limit)
			records := enricher.Enrich(ctx, slices.Clone(table.Records), limit)
			if err := table.Update(records); err != nil {
				return err
			}

			if output == "" {
				output = input
			}
			if err := table.WriteFile(output); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %d executives to %s\n", len(records), output)
			return ctx.Err()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "executives CSV to enrich")
	f.StringVarP(&output, "output", "o", "", "output path (defaults to the input file)")
	f.IntVar(&limit, "limit", 0, "enrich at most this many executives (0 for all)")
	return cmd
}
