package main

import (
	"context"
	"time"

	"github.com/FranksOps/leadscout/internal/export"
	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/internal/pipeline"
	"github.com/FranksOps/leadscout/internal/report"
)

// runCompanies records companies as seen, runs the pipeline over them and
// exports whatever was found, even when the run was interrupted.
func (a *app) runCompanies(ctx context.Context, companies []model.Company, source string) error {
	if err := export.AppendCompanies(a.cfg.Output.CompaniesPath, companies, source, time.Now()); err != nil {
		a.logger.Warn("failed to record companies", "path", a.cfg.Output.CompaniesPath, "err", err)
	}

	comps, err := a.buildPipelineComponents(ctx)
	if err != nil {
		return err
	}
	defer comps.Close()

	deps := pipeline.Deps{
		Searcher:  comps.search,
		Fetcher:   comps.fetcher,
		Extractor: comps.extractor,
		Store:     comps.store,
		Logger:    a.logger,
	}
	if comps.enricher != nil {
		deps.Enricher = comps.enricher
	}

	b := a.cfg.Batch
	p, err := pipeline.New(deps, pipeline.Config{
		Mode:             pipeline.Mode(b.Mode),
		MaxRetries:       b.MaxRetries,
		ResultsPerQuery:  b.ResultsPerQuery,
		ArticlesPerQuery: b.ArticlesPerQuery,
		Target:           b.Target,
		QueryDelay:       b.QueryDelay,
		CompanyDelay:     b.CompanyDelay,
		OnCompany: func(o pipeline.Outcome, _ []model.ExecutiveRecord) {
			a.logger.Info("company finished",
				"company", o.Company.Name,
				"state", o.State,
				"attempts", o.Attempts,
				"found", o.Found,
			)
		},
	})
	if err != nil {
		return err
	}

	res, runErr := p.Run(ctx, companies)
	if err := a.exportRecords(res.Records); err != nil {
		return err
	}
	if err := report.WriteText(a.out, report.GenerateSummary(res.Records)); err != nil {
		return err
	}
	return runErr
}

// exportRecords writes the simple and detailed CSVs configured under output.
func (a *app) exportRecords(records []model.ExecutiveRecord) error {
	if len(records) == 0 {
		a.logger.Warn("no executives found, nothing exported")
		return nil
	}

	targets := []struct {
		path   string
		schema export.Schema
	}{
		{a.cfg.Output.Path, export.Simple},
		{a.cfg.Output.DetailedPath, export.Detailed},
	}
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		e := export.New(export.Config{
			Schema:    t.schema,
			Append:    a.cfg.Output.Append,
			BatchMode: true,
			BatchFlag: a.cfg.Batch.Flag,
			Logger:    a.logger,
		})
		if _, err := e.Write(t.path, records); err != nil {
			return err
		}
	}
	return nil
}
