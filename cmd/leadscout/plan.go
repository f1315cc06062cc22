package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FranksOps/leadscout/internal/loader"
	"github.com/FranksOps/leadscout/internal/planner"
	"github.com/FranksOps/leadscout/internal/search"
)

func newPlanCmd(a *app) *cobra.Command {
	var (
		input   string
		preview int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the search queries planned for each company",
		Long: `Plan prints the queries a batch run would try for each company. With
--preview N it also runs the first batch.max_retries queries and lists up to
N distinct article hits per query, without fetching anything.`,
		Example: `  leadscout plan --input companies.csv
  leadscout plan --input companies.json --preview 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return errors.New("--input is required")
			}
			companies, err := loader.LoadFile(input, a.logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var client *search.Client
			if preview > 0 {
				if err := a.cfg.ValidateKeys(false); err != nil {
					return err
				}
				comps := &components{}
				defer comps.Close()
				if client, err = a.newSearchClient(ctx, comps); err != nil {
					return err
				}
			}

			for _, c := range companies {
				queries, err := planner.Queries(c)
				if err != nil {
					a.logger.Warn("skipping company", "company", c.Name, "err", err)
					continue
				}
				fmt.Fprintf(a.out, "%s (%s, %s)\n", c.Name, c.City, c.Country)
				for i, q := range queries {
					fmt.Fprintf(a.out, "  %d. %s\n", i+1, q)
				}
				if client == nil {
					continue
				}
				tried := queries[:min(a.cfg.Batch.MaxRetries, len(queries))]
				for _, r := range client.SearchMany(ctx, tried, preview) {
					fmt.Fprintf(a.out, "     - %s  %s\n", r.URL, r.Title)
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "company list (.json or .csv)")
	f.IntVar(&preview, "preview", 0, "search hits to list per query (0 skips searching)")
	return cmd
}
