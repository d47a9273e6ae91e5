package md

import (
	"fmt"
	"sync"
	"time"

	"autotrade/internal/model"
)

// RawBar is an OHLCV bar as delivered by a feed, stamped at its start.
type RawBar struct {
	Symbol string
	Start  time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Source model.Source
}

// IndicatorConfig holds the MACD periods. EMA5/EMA10 are fixed by the
// BarRow contract.
type IndicatorConfig struct {
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
}

type symbolState struct {
	ema5  *EMA
	ema10 *EMA
	macd  *MACD
	count int
	last  time.Time
}

// Builder turns raw feed bars into validated BarRows, keeping indicator state
// per symbol.
type Builder struct {
	mu       sync.Mutex
	cfg      IndicatorConfig
	interval time.Duration
	symbols  map[string]*symbolState
}

func NewBuilder(cfg IndicatorConfig, interval time.Duration) *Builder {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Builder{
		cfg:      cfg,
		interval: interval,
		symbols:  make(map[string]*symbolState),
	}
}

// Build stamps the bar at its close minute in New York time and updates the
// symbol's indicators. Bars at or before the last accepted close are rejected
// so indicator state only moves forward.
func (b *Builder) Build(raw RawBar) (model.BarRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	closeTime := raw.Start.Add(b.interval).In(model.NewYork()).Truncate(time.Minute)
	state, ok := b.symbols[raw.Symbol]
	if !ok {
		state = &symbolState{
			ema5:  NewEMA(5),
			ema10: NewEMA(10),
			macd:  NewMACD(b.cfg.MACDFast, b.cfg.MACDSlow, b.cfg.MACDSignal),
		}
	}
	if !state.last.IsZero() && !closeTime.After(state.last) {
		return model.BarRow{}, fmt.Errorf("out of order bar for %s: %s not after %s",
			raw.Symbol, model.MinuteKey(closeTime), model.MinuteKey(state.last))
	}

	row := model.BarRow{
		TsNY:      closeTime,
		MinuteKey: model.MinuteKey(closeTime),
		Symbol:    raw.Symbol,
		Open:      raw.Open,
		High:      raw.High,
		Low:       raw.Low,
		Close:     raw.Close,
		Volume:    raw.Volume,
		BarCount:  state.count + 1,
		IsRTH:     IsRTH(closeTime),
		Source:    raw.Source,
	}
	// validate before touching indicator state so a bad bar leaves it intact
	if err := row.Validate(); err != nil {
		return model.BarRow{}, err
	}

	row.EMA5 = state.ema5.Update(raw.Close)
	row.EMA10 = state.ema10.Update(raw.Close)
	macd := state.macd.Update(raw.Close)
	row.DIF, row.DEA, row.MACDHist = macd.DIF, macd.DEA, macd.Hist

	state.count++
	state.last = closeTime
	b.symbols[raw.Symbol] = state
	return row, nil
}

// Count returns how many bars were accepted for symbol.
func (b *Builder) Count(symbol string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.symbols[symbol]; ok {
		return state.count
	}
	return 0
}
