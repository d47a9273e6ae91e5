package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"autotrade/internal/md"
	"autotrade/internal/metrics"
	"autotrade/internal/model"
	"autotrade/internal/sink"
)

type Phase string

const (
	PhaseEntry Phase = "entry"
	PhaseExit  Phase = "exit"
)

// PositionReader supplies the current snapshot for a symbol.
type PositionReader interface {
	Get(symbol string) (model.PositionSnapshot, bool)
}

// Outcome is what one bar evaluation produced. Only the decision matching
// Phase is meaningful.
type Outcome struct {
	Phase Phase
	Entry model.EntryDecision
	Exit  model.ExitDecision
}

type Options struct {
	RunID     string
	Positions PositionReader
	Publisher sink.Publisher
	Archive   sink.BarArchive
	History   *md.History
	// OnRanked receives one minute's entry signals, best score first.
	OnRanked func([]model.EntrySignal)
	Now      func() time.Time
}

// Runner routes bars to the entry engine while flat and to the exit engine
// while in position. Evaluations are serialized.
type Runner struct {
	mu        sync.Mutex
	entry     EntryEvaluator
	exit      ExitEvaluator
	positions PositionReader
	publisher sink.Publisher
	archive   sink.BarArchive
	history   *md.History
	ranker    MinuteRanker
	onRanked  func([]model.EntrySignal)
	runID     string
	now       func() time.Time
}

func NewRunner(entry EntryEvaluator, exit ExitEvaluator, opts Options) *Runner {
	r := &Runner{
		entry:     entry,
		exit:      exit,
		positions: opts.Positions,
		publisher: opts.Publisher,
		archive:   opts.Archive,
		history:   opts.History,
		onRanked:  opts.OnRanked,
		runID:     opts.RunID,
		now:       opts.Now,
	}
	if r.publisher == nil {
		r.publisher = sink.Nop{}
	}
	if r.archive == nil {
		r.archive = sink.Nop{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func (r *Runner) OnBar(ctx context.Context, bar model.BarRow) (Outcome, error) {
	if err := bar.Validate(); err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues("BarRow").Inc()
		return Outcome{}, fmt.Errorf("reject bar: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	metrics.BarsTotal.WithLabelValues(bar.Symbol, string(bar.Source)).Inc()
	if r.history != nil {
		r.history.Add(bar)
	}
	if err := r.archive.WriteBar(ctx, bar); err != nil {
		metrics.PublishFailuresTotal.WithLabelValues("archive").Inc()
		slog.Warn("archive bar failed", "symbol", bar.Symbol, "minute_key", bar.MinuteKey, "error", err)
	}
	r.emitRanked(r.ranker.Observe(bar.MinuteKey))

	var outcome Outcome
	var record sink.Decision
	snapshot, held := r.lookup(bar.Symbol)
	if held {
		outcome.Phase = PhaseExit
		outcome.Exit = r.exit.Evaluate(bar, &snapshot)
		record = r.exitRecord(bar, outcome.Exit)
	} else {
		outcome.Phase = PhaseEntry
		outcome.Entry = r.entry.Evaluate(bar)
		record = r.entryRecord(bar, outcome.Entry)
		if sig, ok := outcome.Entry.Signal(); ok {
			r.emitRanked(r.ranker.Add(sig))
		}
	}

	metrics.DecisionsTotal.WithLabelValues(record.Phase, record.Kind, record.Code).Inc()
	if err := r.publisher.Publish(ctx, record); err != nil {
		metrics.PublishFailuresTotal.WithLabelValues("decision").Inc()
		slog.Warn("publish decision failed", "symbol", bar.Symbol, "minute_key", bar.MinuteKey, "error", err)
	}
	slog.Debug("bar evaluated", "symbol", bar.Symbol, "minute_key", bar.MinuteKey, "close", bar.Close,
		"phase", record.Phase, "kind", record.Kind, "code", record.Code)
	return outcome, nil
}

// Flush releases any entry signals still waiting for their minute to close.
func (r *Runner) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitRanked(r.ranker.Flush())
}

func (r *Runner) lookup(symbol string) (model.PositionSnapshot, bool) {
	if r.positions == nil {
		return model.PositionSnapshot{}, false
	}
	snapshot, ok := r.positions.Get(symbol)
	if !ok || snapshot.Flat() {
		return model.PositionSnapshot{}, false
	}
	return snapshot, true
}

func (r *Runner) emitRanked(ranked []model.EntrySignal) {
	if len(ranked) == 0 {
		return
	}
	for i, sig := range ranked {
		slog.Info("entry candidate", "minute_key", sig.MinuteKey, "rank", i+1, "symbol", sig.Symbol, "score", sig.Score)
	}
	if r.onRanked != nil {
		r.onRanked(ranked)
	}
}

func (r *Runner) baseRecord(bar model.BarRow, phase Phase) sink.Decision {
	return sink.Decision{
		RunID:     r.runID,
		Timestamp: r.now().UTC(),
		TsNY:      bar.TsNY,
		MinuteKey: bar.MinuteKey,
		Symbol:    bar.Symbol,
		Phase:     string(phase),
		Kind:      model.KindNone.String(),
		Close:     bar.Close,
	}
}

func (r *Runner) entryRecord(bar model.BarRow, decision model.EntryDecision) sink.Decision {
	record := r.baseRecord(bar, PhaseEntry)
	record.Kind = decision.Kind().String()
	switch decision.Kind() {
	case model.KindSignal:
		sig, _ := decision.Signal()
		score := sig.Score
		record.Code = string(sig.Reason)
		record.Score = &score
	case model.KindBlocked:
		blocked, _ := decision.Blocked()
		record.Code = string(blocked.BlockCode)
		record.Detail = blocked.Detail
	}
	return record
}

func (r *Runner) exitRecord(bar model.BarRow, decision model.ExitDecision) sink.Decision {
	record := r.baseRecord(bar, PhaseExit)
	record.Kind = decision.Kind().String()
	switch decision.Kind() {
	case model.KindSignal:
		sig, _ := decision.Signal()
		record.Code = string(sig.ReasonCode)
		record.Qty = sig.Qty
	case model.KindSkip:
		skip, _ := decision.Skip()
		record.Code = string(skip.SkipCode)
		record.Detail = skip.Detail
	}
	return record
}
