package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/leadscout/internal/storage"
)

// errNoStorage is returned by history when storage.driver is none.
var errNoStorage = errors.New("no storage configured (set storage.driver)")

func newHistoryCmd(a *app) *cobra.Command {
	var (
		filter storage.Filter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List executives saved by previous runs",
		Example: `  leadscout history --company "Emirates NBD"
  leadscout history --since 24h --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, a.cfg.Storage)
			if err != nil {
				return err
			}
			if store == nil {
				return errNoStorage
			}
			defer store.Close()

			if since > 0 {
				t := time.Now().Add(-since)
				filter.Since = &t
			}
			records, err := store.Query(ctx, filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SAVED\tRUN\tCOMPANY\tNAME\tTITLE\tCONFIDENCE")
			for _, r := range records {
				e := r.Executive
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					shortID(r.RunID), e.Company, e.Name, e.Title, e.Confidence)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d record(s)\n", len(records))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.Company, "company", "", "only this company (case-insensitive)")
	f.StringVar(&filter.RunID, "run", "", "only records from this run id")
	f.DurationVar(&since, "since", 0, "only records saved within this duration")
	f.IntVar(&filter.Limit, "limit", 50, "maximum records to list (0 for all)")
	f.IntVar(&filter.Offset, "offset", 0, "records to skip")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
