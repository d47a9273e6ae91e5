package engine

import "autotrade/internal/model"

// ExitEvaluator decides whether an open position should be closed on bar.
// pos is nil when the caller has no snapshot for the symbol.
type ExitEvaluator interface {
	Evaluate(bar model.BarRow, pos *model.PositionSnapshot) model.ExitDecision
}

// ExitEngine carries no strategy yet and never signals.
type ExitEngine struct{}

func NewExitEngine() *ExitEngine {
	return &ExitEngine{}
}

func (e *ExitEngine) Evaluate(bar model.BarRow, pos *model.PositionSnapshot) model.ExitDecision {
	return model.NoExit()
}
