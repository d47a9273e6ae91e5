package engine

import (
	"testing"
	"time"

	"autotrade/internal/model"
)

func testBar(t *testing.T, symbol string, ts time.Time) model.BarRow {
	t.Helper()
	bar, err := model.NewBarRow(model.BarRow{
		TsNY:      ts,
		MinuteKey: model.MinuteKey(ts),
		Symbol:    symbol,
		Open:      10,
		High:      11,
		Low:       9,
		Close:     10.5,
		Volume:    1000,
		EMA5:      10.1,
		EMA10:     10.0,
		DIF:       0.05,
		DEA:       0.04,
		MACDHist:  0.01,
		BarCount:  3,
		IsRTH:     true,
		Source:    model.SourceReplay,
	})
	if err != nil {
		t.Fatalf("build bar: %v", err)
	}
	return bar
}

func TestEntryEngineReturnsNothing(t *testing.T) {
	engine := NewEntryEngine()
	ny := model.NewYork()
	stamps := []time.Time{
		time.Date(2024, 1, 2, 9, 31, 0, 0, ny),
		time.Date(2024, 1, 2, 15, 59, 0, 0, ny),
		time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC),
	}
	for _, ts := range stamps {
		if decision := engine.Evaluate(testBar(t, "TQQQ", ts)); !decision.IsNone() {
			t.Fatalf("expected no entry decision, got %s", decision.Kind())
		}
	}
}

func TestExitEngineReturnsNothing(t *testing.T) {
	engine := NewExitEngine()
	ts := time.Date(2024, 1, 2, 9, 31, 0, 0, model.NewYork())
	bar := testBar(t, "TQQQ", ts)

	if decision := engine.Evaluate(bar, nil); !decision.IsNone() {
		t.Fatalf("expected no exit decision without position, got %s", decision.Kind())
	}

	pos, err := model.NewPositionSnapshot(model.PositionSnapshot{
		TsNY:       ts,
		Symbol:     "TQQQ",
		Qty:        1,
		AvgEntryPx: 100,
		EntryTsNY:  &ts,
	})
	if err != nil {
		t.Fatalf("build position: %v", err)
	}
	if decision := engine.Evaluate(bar, &pos); !decision.IsNone() {
		t.Fatalf("expected no exit decision with position, got %s", decision.Kind())
	}
}
