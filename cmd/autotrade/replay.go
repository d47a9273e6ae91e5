package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"autotrade/internal/config"
	"autotrade/internal/engine"
	"autotrade/internal/md"
	"autotrade/internal/model"
	"autotrade/internal/replay"
	"autotrade/internal/state"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newReplayCmd(a *app) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Feed a recorded .parquet or .ndjson bar file through the decision engines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bars, err := replay.ReadFile(args[0])
			if err != nil {
				return err
			}
			if rebuild {
				if bars, err = rebuildBars(a.cfg, bars); err != nil {
					return err
				}
			}
			cfg := replayConfig(a.cfg, args[0], cmd.Flags())
			slog.Info("replaying", "file", args[0], "state_backend", cfg.StateBackend, "decisions", cfg.DecisionsPath)
			summary, err := replayBars(cmd.Context(), cfg, bars)
			if err != nil {
				return err
			}
			summary.print(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "recompute indicators from OHLCV and tag bars REPLAY")
	return cmd
}

// replayConfig keeps a replay away from the live run's files: positions live in
// an in-memory Badger store and decisions go next to the replayed file, unless
// the matching flags were given.
func replayConfig(cfg config.Config, file string, flags *pflag.FlagSet) config.Config {
	if !flags.Changed("state-path") && !flags.Changed("state-backend") {
		cfg.StateBackend = state.BackendBadger
		cfg.StatePath = ""
	}
	if !flags.Changed("decisions-path") {
		cfg.DecisionsPath = strings.TrimSuffix(file, filepath.Ext(file)) + ".decisions.ndjson"
	}
	return cfg
}

type replaySummary struct {
	Bars     int
	Rejected int
	Counts   map[string]int
}

func (s replaySummary) print(out io.Writer, path string) {
	fmt.Fprintf(out, "replayed %d bars from %s (%d rejected)\n", s.Bars, path, s.Rejected)
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-20s %d\n", k, s.Counts[k])
	}
}

func replayBars(ctx context.Context, cfg config.Config, bars []model.BarRow) (replaySummary, error) {
	w, err := newWiring(cfg, generateRunID(), false)
	if err != nil {
		return replaySummary{}, err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Error("shutdown sinks failed", "error", err)
		}
	}()

	runner := w.runner()
	summary := replaySummary{Counts: make(map[string]int)}
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := runner.OnBar(ctx, bar)
		if err != nil {
			summary.Rejected++
			slog.Warn("bar rejected", "symbol", bar.Symbol, "minute_key", bar.MinuteKey, "error", err)
			continue
		}
		summary.Bars++
		kind := outcome.Entry.Kind().String()
		if outcome.Phase == engine.PhaseExit {
			kind = outcome.Exit.Kind().String()
		}
		summary.Counts[string(outcome.Phase)+"/"+kind]++
	}
	runner.Flush()
	return summary, nil
}

// rebuildBars re-derives indicators and bar counts from the recorded OHLCV.
func rebuildBars(cfg config.Config, bars []model.BarRow) ([]model.BarRow, error) {
	builder := md.NewBuilder(indicatorConfig(cfg), cfg.Interval)
	out := make([]model.BarRow, 0, len(bars))
	for _, bar := range bars {
		row, err := builder.Build(md.RawBar{
			Symbol: bar.Symbol,
			Start:  bar.TsNY.Add(-cfg.Interval),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
			Source: model.SourceReplay,
		})
		if err != nil {
			return nil, fmt.Errorf("rebuild %s %s: %w", bar.Symbol, bar.MinuteKey, err)
		}
		out = append(out, row)
	}
	return out, nil
}
