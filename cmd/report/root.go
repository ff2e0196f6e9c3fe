package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/marketing-intel/internal/config"
	"github.com/AngelCh415/marketing-intel/internal/ingest"
	"github.com/AngelCh415/marketing-intel/internal/metrics"
	"github.com/AngelCh415/marketing-intel/internal/store"
)

type reportFlags struct {
	channels []string
	days     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var f reportFlags
	root := &cobra.Command{
		Use:   "report",
		Short: "Build the marketing performance report from sample data or a directory of exports",
		Long: `report joins per-channel ad performance (Facebook, Google, TikTok) with daily
business outcomes and prints the daily series, channel rollups and KPIs as JSON.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&f.channels, "channel", nil, "restrict to channels (facebook, google, tiktok)")
	root.PersistentFlags().StringVar(&f.days, "days", "all", "window ending at the latest date (all, 30, 7)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newSampleCmd(&f), newDirCmd(&f))
	return root
}

func newSampleCmd(f *reportFlags) *cobra.Command {
	var seed uint64
	var days int
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Report on a generated sample dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.SampleSeed = seed
			}
			if cmd.Flags().Changed("sample-days") {
				cfg.SampleDays = days
			}
			log := newLogger(cmd.ErrOrStderr(), f.logLevel)
			svc := metrics.NewService(store.NewMemoryStore(), cfg, log)
			return run(cmd.OutOrStdout(), svc, f, "sample")
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 42, "fixture seed")
	cmd.Flags().IntVar(&days, "sample-days", 120, "number of days to generate")
	return cmd
}

func newDirCmd(f *reportFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dir <path>",
		Short: "Report on Facebook, Google, TikTok and Business exports in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := newLogger(cmd.ErrOrStderr(), f.logLevel)
			st := store.NewMemoryStore()
			etl := ingest.NewETL(ingest.NewHTTPClient(cfg.HTTPTimeout), st, log, cfg)

			errs, err := etl.LoadDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for src, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", src, e)
			}
			svc := metrics.NewService(st, cfg, log)
			return run(cmd.OutOrStdout(), svc, f, "uploaded")
		},
	}
}

func run(w io.Writer, svc *metrics.Service, f *reportFlags, mode string) error {
	v := url.Values{"mode": {mode}, "days": {f.days}}
	if len(f.channels) > 0 {
		v.Set("channel", strings.Join(f.channels, ","))
	}
	q, err := metrics.ParseQuery(v)
	if err != nil {
		return err
	}
	rep, err := svc.Report(q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
