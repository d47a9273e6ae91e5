package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"autotrade/internal/broker"
	"autotrade/internal/config"
	"autotrade/internal/engine"
	"autotrade/internal/md"
	"autotrade/internal/metrics"
	"autotrade/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Stream live bars through the decision engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd.Context(), a.cfg)
		},
	}
}

func runLive(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := generateRunID()
	w, err := newWiring(cfg, runID, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Error("shutdown sinks failed", "error", err)
		}
	}()

	builder := md.NewBuilder(indicatorConfig(cfg), cfg.Interval)
	runner := w.runner()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	slog.Info("starting autotrade", "run_id", runID, "mode", cfg.Mode, "symbols", cfg.Symbols, "feed", cfg.Feed)
	g.Go(func() error {
		// the stream ending for any reason stops the rest of the run
		defer cancel()
		err := md.StartStream(gctx, cfg.APIKey, cfg.APISecret, cfg.Feed, cfg.Symbols, func(raw md.RawBar) {
			bar, err := builder.Build(raw)
			if err != nil {
				metrics.ValidationFailuresTotal.WithLabelValues("BarRow").Inc()
				slog.Warn("drop bar", "symbol", raw.Symbol, "start", raw.Start, "error", err)
				return
			}
			if _, err := runner.OnBar(gctx, bar); err != nil {
				slog.Warn("bar rejected", "symbol", bar.Symbol, "minute_key", bar.MinuteKey, "error", err)
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.Mode == config.ModePaper {
		client := broker.New(cfg.APIKey, cfg.APISecret, cfg.PaperBaseURL)
		g.Go(func() error {
			engine.ReconcileLoop(gctx, client, w.store, cfg.ReconcileInterval)
			return nil
		})
	}

	if cfg.StatusAddr != "" {
		srv := server.New(runID, w.store, w.history)
		g.Go(func() error {
			return srv.Run(gctx, cfg.StatusAddr)
		})
	}

	err = g.Wait()
	runner.Flush()
	slog.Info("autotrade shutdown complete", "run_id", runID)
	return err
}
