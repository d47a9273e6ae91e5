package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autotrade/internal/broker"
	"autotrade/internal/model"
	"autotrade/internal/state"
)

// PositionSource is the broker-side view of the account.
type PositionSource interface {
	Positions(ctx context.Context) ([]broker.Position, error)
	Account(ctx context.Context) (broker.Account, error)
}

func ReconcileLoop(ctx context.Context, source PositionSource, store state.Store, interval time.Duration) {
	reconcileOnce(ctx, source, store)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcileOnce(ctx, source, store)
		}
	}
}

func reconcileOnce(ctx context.Context, source PositionSource, store state.Store) {
	if err := Reconcile(ctx, source, store, time.Now()); err != nil {
		slog.Error("reconcile positions failed", "error", err)
	}

	account, err := source.Account(ctx)
	if err != nil {
		slog.Error("reconcile account failed", "error", err)
		return
	}
	slog.Info("account", "equity", account.Equity, "cash", account.Cash, "buying_power", account.BuyingPower)
}

// Reconcile overwrites broker-owned fields of each stored snapshot and keeps
// the locally tracked ones: the step take-profit floor and armed flag, the
// entry time, and the running maximum of P/L. Symbols the broker no longer
// holds are removed.
func Reconcile(ctx context.Context, source PositionSource, store state.Store, now time.Time) error {
	positions, err := source.Positions(ctx)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}
	ts := now.In(model.NewYork())

	held := make(map[string]bool, len(positions))
	for _, pos := range positions {
		if pos.Qty <= 0 {
			continue
		}
		held[pos.Symbol] = true
		next := model.PositionSnapshot{
			TsNY:            ts,
			Symbol:          pos.Symbol,
			Qty:             pos.Qty,
			AvgEntryPx:      pos.AvgEntry,
			UnrealizedPLPct: pos.UnrealizedPLPct,
			HighestPLPct:    pos.UnrealizedPLPct,
		}
		if prev, ok := store.Get(pos.Symbol); ok {
			next.EntryTsNY = prev.EntryTsNY
			next.StepTPFloorPLPct = prev.StepTPFloorPLPct
			next.StepTPArmed = prev.StepTPArmed
			next.HighestPLPct = max(prev.HighestPLPct, pos.UnrealizedPLPct)
		} else {
			entry := ts
			next.EntryTsNY = &entry
			slog.Info("position opened", "symbol", pos.Symbol, "qty", pos.Qty, "avg_entry", pos.AvgEntry)
		}
		snapshot, err := model.NewPositionSnapshot(next)
		if err != nil {
			return err
		}
		if err := store.Put(snapshot); err != nil {
			return fmt.Errorf("store %s: %w", pos.Symbol, err)
		}
	}

	for _, snapshot := range store.All() {
		if held[snapshot.Symbol] {
			continue
		}
		if err := store.Delete(snapshot.Symbol); err != nil {
			return fmt.Errorf("remove %s: %w", snapshot.Symbol, err)
		}
		slog.Info("position closed", "symbol", snapshot.Symbol)
	}
	return nil
}
