package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FranksOps/leadscout/internal/export"
)

func newQueryCmd(a *app) *cobra.Command {
	var identifyOnly bool

	cmd := &cobra.Command{
		Use:   "query <request>",
		Short: "Identify companies from a plain-language request, then find their executives",
		Example: `  leadscout query "top 5 banks in Dubai"
  leadscout query --identify-only "fintech startups in Riyadh" > companies.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateKeys(true); err != nil {
				return err
			}
			ctx := cmd.Context()

			identifier, err := a.newIdentifier(ctx)
			if err != nil {
				return err
			}
			id, err := identifier.Identify(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if identifyOnly {
				data, err := id.BatchJSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, string(data))
				return err
			}

			fmt.Fprintf(a.out, "Identified %d companies (%s)\n", len(id.Companies), id.QueryType)
			if id.Reasoning != "" {
				fmt.Fprintf(a.out, "%s\n", id.Reasoning)
			}
			for i, c := range id.Companies {
				fmt.Fprintf(a.out, "%2d. %s - %s, %s (%s)\n", i+1, c.Name, c.City, c.Country, c.Industry)
			}
			fmt.Fprintln(a.out)

			return a.withMetrics(ctx, func(ctx context.Context) error {
				return a.runCompanies(ctx, id.Companies, export.SourceAgent)
			})
		},
	}

	addRunFlags(cmd)
	cmd.Flags().BoolVar(&identifyOnly, "identify-only", false, "print the identified companies as batch JSON and stop")
	return cmd
}
