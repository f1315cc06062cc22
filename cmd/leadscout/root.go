package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/search"
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	// searchBackend replaces SerpAPI when set.
	searchBackend search.Backend
}

func newRootCmd(out io.Writer) *cobra.Command {
	return newApp(out).rootCmd()
}

func newApp(out io.Writer) *app {
	return &app{v: config.New(), out: out}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadscout",
		Short:         "Find company executives from web news and export them to CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd); err != nil {
				return err
			}
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "path to a leadscout.yaml config file")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("metrics.port", pf.Lookup("metrics-port"))

	root.AddCommand(
		newBatchCmd(a),
		newQueryCmd(a),
		newEnrichCmd(a),
		newReportCmd(a),
		newHistoryCmd(a),
		newPlanCmd(a),
	)
	return root
}

// viperKey is the flag annotation naming the config key a subcommand flag overrides.
const viperKey = "viper-key"

// bindKey marks flag name on cmd as an override for key. Binding happens
// only for the command that runs, so commands may share keys.
func bindKey(cmd *cobra.Command, name, key string) {
	_ = cmd.Flags().SetAnnotation(name, viperKey, []string{key})
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[viperKey]; len(keys) == 1 && err == nil {
			err = v.BindPFlag(keys[0], f)
		}
	})
	return err
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// withMetrics runs fn alongside the metrics server when one is configured.
// The server is shut down once fn returns.
func (a *app) withMetrics(ctx context.Context, fn func(context.Context) error) error {
	if a.cfg.Metrics.Port == 0 {
		return fn(ctx)
	}
	srv, err := metrics.Start(a.cfg.Metrics.Port, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("serving metrics", "port", srv.Port())

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return fn(gctx)
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-gctx.Done():
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Stop(sctx)
	})
	return g.Wait()
}
