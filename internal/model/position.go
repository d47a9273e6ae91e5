package model

import (
	"encoding/json"
	"time"
)

// PositionSnapshot is the current state of one open position as reported by
// the position-tracking side. P/L fields are fractions: +0.003 is +0.3%.
// The step take-profit fields survive restarts through the state store.
type PositionSnapshot struct {
	TsNY       time.Time  `json:"ts_ny" validate:"tzaware"`
	Symbol     string     `json:"symbol" validate:"required"`
	Qty        int        `json:"qty"`
	AvgEntryPx float64    `json:"avg_entry_px"`
	EntryTsNY  *time.Time `json:"entry_ts_ny" validate:"omitempty,tzaware"`

	UnrealizedPLPct float64 `json:"unrealized_pl_pct"`
	HighestPLPct    float64 `json:"highest_pl_pct"`

	StepTPFloorPLPct float64 `json:"step_tp_floor_pl_pct"`
	StepTPArmed      bool    `json:"step_tp_armed"`
}

// NewPositionSnapshot validates p. The entry timestamp is copied so the
// snapshot does not share it with the caller.
func NewPositionSnapshot(p PositionSnapshot) (PositionSnapshot, error) {
	if p.EntryTsNY != nil {
		entry := *p.EntryTsNY
		p.EntryTsNY = &entry
	}
	if err := p.Validate(); err != nil {
		return PositionSnapshot{}, err
	}
	return p, nil
}

func (p PositionSnapshot) Validate() error {
	return check("PositionSnapshot", p)
}

// Flat reports whether the snapshot holds no shares.
func (p PositionSnapshot) Flat() bool {
	return p.Qty <= 0
}

func (p *PositionSnapshot) UnmarshalJSON(data []byte) error {
	type alias PositionSnapshot
	aux := struct {
		*alias
		TsNY      string  `json:"ts_ny"`
		EntryTsNY *string `json:"entry_ts_ny"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := decodeTimestamp("PositionSnapshot", "ts_ny", aux.TsNY)
	if err != nil {
		return err
	}
	p.TsNY = ts
	p.EntryTsNY = nil
	if aux.EntryTsNY != nil {
		entry, err := decodeTimestamp("PositionSnapshot", "entry_ts_ny", *aux.EntryTsNY)
		if err != nil {
			return err
		}
		p.EntryTsNY = &entry
	}
	return p.Validate()
}
