package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/FranksOps/leadscout/internal/export"
	"github.com/FranksOps/leadscout/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var input, format, out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize an executives CSV as text, JSON or HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return errors.New("--input is required")
			}
			var write func(io.Writer, report.Summary) error
			switch format {
			case "text":
				write = report.WriteText
			case "json":
				write = report.WriteJSON
			case "html":
				write = report.WriteHTML
			default:
				return fmt.Errorf("unknown format %q (want text, json or html)", format)
			}

			records, err := export.ReadExecutives(input)
			if err != nil {
				return err
			}
			summary := report.GenerateSummary(records)

			if out == "" {
				return write(a.out, summary)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			if err := write(f, summary); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close report: %w", err)
			}
			a.logger.Info("report written", "path", out, "format", format)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "executives.csv", "executives CSV to summarize")
	f.StringVarP(&format, "format", "f", "text", "output format: text, json or html")
	f.StringVarP(&out, "out", "o", "", "write the report to this file instead of stdout")
	return cmd
}
