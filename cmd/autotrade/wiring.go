package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"autotrade/internal/config"
	"autotrade/internal/engine"
	"autotrade/internal/md"
	"autotrade/internal/model"
	"autotrade/internal/replay"
	"autotrade/internal/sink"
	"autotrade/internal/state"
)

// wiring owns everything a runner needs that must be closed on exit.
type wiring struct {
	runID     string
	store     state.Store
	publisher sink.Multi
	archive   sink.Archives
	history   *md.History
}

func newWiring(cfg config.Config, runID string, record bool) (*wiring, error) {
	w := &wiring{runID: runID, history: md.NewHistory(cfg.HistoryDepth)}

	store, err := state.Open(cfg.StateBackend, cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open position store: %w", err)
	}
	w.store = store

	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	w.publisher = append(w.publisher, decisions)

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := sink.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			w.Close()
			return nil, err
		}
		slog.Info("publishing decisions to kafka", "brokers", strings.Join(cfg.KafkaBrokers, ","), "topic", cfg.KafkaTopic)
		w.publisher = append(w.publisher, kafka)
	}
	if cfg.InfluxURL != "" {
		slog.Info("archiving bars to influxdb", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
		w.archive = append(w.archive, sink.NewInfluxArchive(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	if record && cfg.RecordPath != "" {
		slog.Info("recording bars", "path", cfg.RecordPath)
		w.archive = append(w.archive, replay.NewRecorder(cfg.RecordPath))
	}
	return w, nil
}

func (w *wiring) runner() *engine.Runner {
	return engine.NewRunner(engine.NewEntryEngine(), engine.NewExitEngine(), engine.Options{
		RunID:     w.runID,
		Positions: w.store,
		Publisher: w.publisher,
		Archive:   w.archive,
		History:   w.history,
		OnRanked:  logRanked,
	})
}

func (w *wiring) Close() error {
	var errs []error
	if w.archive != nil {
		errs = append(errs, w.archive.Close())
	}
	// the decision logger is closed through the publisher fan-out
	if w.publisher != nil {
		errs = append(errs, w.publisher.Close())
	}
	if w.store != nil {
		errs = append(errs, w.store.Close())
	}
	return errors.Join(errs...)
}

func logRanked(signals []model.EntrySignal) {
	if len(signals) == 0 {
		return
	}
	symbols := make([]string, 0, len(signals))
	for _, sig := range signals {
		symbols = append(symbols, fmt.Sprintf("%s:%.4f", sig.Symbol, sig.Score))
	}
	slog.Info("ranked entry signals", "minute_key", signals[0].MinuteKey, "ranked", strings.Join(symbols, ","))
}

func indicatorConfig(cfg config.Config) md.IndicatorConfig {
	return md.IndicatorConfig{
		MACDFast:   cfg.MACDFast,
		MACDSlow:   cfg.MACDSlow,
		MACDSignal: cfg.MACDSignal,
	}
}
