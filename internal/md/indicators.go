package md

// EMA is an exponential moving average seeded with the first value it sees.
type EMA struct {
	period int
	alpha  float64
	value  float64
	seeded bool
}

func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{period: period, alpha: 2 / float64(period+1)}
}

// Update folds v into the average and returns the new value.
func (e *EMA) Update(v float64) float64 {
	if !e.seeded {
		e.value = v
		e.seeded = true
		return e.value
	}
	e.value += e.alpha * (v - e.value)
	return e.value
}

func (e *EMA) Value() float64 { return e.value }

// MACDValues is one MACD reading: DIF = fast EMA - slow EMA, DEA = EMA of DIF,
// Hist = DIF - DEA.
type MACDValues struct {
	DIF  float64
	DEA  float64
	Hist float64
}

type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Update(close float64) MACDValues {
	dif := m.fast.Update(close) - m.slow.Update(close)
	dea := m.signal.Update(dif)
	return MACDValues{DIF: dif, DEA: dea, Hist: dif - dea}
}
