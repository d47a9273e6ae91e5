package model

import (
	"encoding/json"
	"time"
)

// Source identifies where a bar came from.
type Source string

const (
	SourceIEX    Source = "IEX"
	SourceSIP    Source = "SIP"
	SourceReplay Source = "REPLAY"
)

// BarRow is one aggregated price bar for a symbol, stamped at its closing
// minute in New York time, together with the indicator values derived up to
// and including it.
type BarRow struct {
	TsNY      time.Time `json:"ts_ny" validate:"tzaware"`
	MinuteKey string    `json:"minute_key"`
	Symbol    string    `json:"symbol" validate:"required"`

	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume int64   `json:"v" validate:"gte=0"`

	EMA5     float64 `json:"ema5"`
	EMA10    float64 `json:"ema10"`
	DIF      float64 `json:"dif"`
	DEA      float64 `json:"dea"`
	MACDHist float64 `json:"macd_hist"`

	BarCount int    `json:"bar_count" validate:"min=1"`
	IsRTH    bool   `json:"is_rth"`
	Source   Source `json:"src" validate:"oneof=IEX SIP REPLAY"`
}

// NewBarRow validates b and returns it unchanged on success.
func NewBarRow(b BarRow) (BarRow, error) {
	if err := b.Validate(); err != nil {
		return BarRow{}, err
	}
	return b, nil
}

// Validate checks the timestamp zone, the minute key and the numeric domains.
func (b BarRow) Validate() error {
	return check("BarRow", b)
}

func (b BarRow) timestampAndKey() (time.Time, string) {
	return b.TsNY, b.MinuteKey
}

// UnmarshalJSON decodes and validates a bar. Timestamps without an offset are
// rejected.
func (b *BarRow) UnmarshalJSON(data []byte) error {
	type alias BarRow
	aux := struct {
		*alias
		TsNY string `json:"ts_ny"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := decodeTimestamp("BarRow", "ts_ny", aux.TsNY)
	if err != nil {
		return err
	}
	b.TsNY = ts
	return b.Validate()
}
