package engine

import "autotrade/internal/model"

// EntryEvaluator decides whether a flat symbol should be entered on bar.
type EntryEvaluator interface {
	Evaluate(bar model.BarRow) model.EntryDecision
}

// EntryEngine carries no strategy yet and never signals.
type EntryEngine struct{}

func NewEntryEngine() *EntryEngine {
	return &EntryEngine{}
}

// Evaluate returns the empty decision for every bar.
// TODO: MACD histogram cross-up with EMA5 > EMA10 confirmation, score-based
// ranking input, and admission gating surfaced as Blocked codes.
func (e *EntryEngine) Evaluate(bar model.BarRow) model.EntryDecision {
	return model.NoEntry()
}
