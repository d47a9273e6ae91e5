package model

import (
	"encoding/json"
	"maps"
	"time"
)

type ExitAction string

const ActionClose ExitAction = "CLOSE"

// ExitReasonCode names why a position is being closed.
type ExitReasonCode string

const (
	ExitForceFlat       ExitReasonCode = "FORCE_FLAT"
	ExitStopLoss        ExitReasonCode = "STOP_LOSS"
	ExitStepFloorBroken ExitReasonCode = "STEP_FLOOR_BROKEN"
	ExitTakeProfit      ExitReasonCode = "TAKE_PROFIT"
	ExitTTLExpired      ExitReasonCode = "TTL_EXPIRED"
)

// SkipCode explains why no exit happened.
type SkipCode string

const (
	SkipNoPosition SkipCode = "NO_POSITION"
	SkipHoldingOK  SkipCode = "HOLDING_OK"
	SkipWaitTTL    SkipCode = "WAIT_TTL"
	SkipWaitStepTP SkipCode = "WAIT_STEP_TP"
	SkipWaitTP     SkipCode = "WAIT_TP"
	SkipWaitSL     SkipCode = "WAIT_SL"
)

// ExitSignal proposes closing a position. A nil Qty closes everything.
type ExitSignal struct {
	TsNY       time.Time      `json:"ts_ny" validate:"tzaware"`
	MinuteKey  string         `json:"minute_key"`
	Symbol     string         `json:"symbol" validate:"required"`
	Action     ExitAction     `json:"action" validate:"eq=CLOSE"`
	ReasonCode ExitReasonCode `json:"reason_code" validate:"oneof=FORCE_FLAT STOP_LOSS STEP_FLOOR_BROKEN TAKE_PROFIT TTL_EXPIRED"`
	Qty        *int           `json:"qty" validate:"omitempty,gt=0"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func NewExitSignal(ts time.Time, symbol string, reason ExitReasonCode, qty *int, meta map[string]any) (ExitSignal, error) {
	s := ExitSignal{
		TsNY:       ts,
		MinuteKey:  MinuteKey(ts),
		Symbol:     symbol,
		Action:     ActionClose,
		ReasonCode: reason,
		Meta:       maps.Clone(meta),
	}
	if qty != nil {
		n := *qty
		s.Qty = &n
	}
	if err := s.Validate(); err != nil {
		return ExitSignal{}, err
	}
	return s, nil
}

func (s ExitSignal) Validate() error {
	return check("ExitSignal", s)
}

// CloseAll reports whether the signal closes the whole position.
func (s ExitSignal) CloseAll() bool {
	return s.Qty == nil
}

func (s ExitSignal) timestampAndKey() (time.Time, string) {
	return s.TsNY, s.MinuteKey
}

func (s *ExitSignal) UnmarshalJSON(data []byte) error {
	type alias ExitSignal
	aux := struct {
		*alias
		TsNY string `json:"ts_ny"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := decodeTimestamp("ExitSignal", "ts_ny", aux.TsNY)
	if err != nil {
		return err
	}
	s.TsNY = ts
	return s.Validate()
}

type Skip struct {
	TsNY      time.Time `json:"ts_ny" validate:"tzaware"`
	MinuteKey string    `json:"minute_key"`
	Symbol    string    `json:"symbol" validate:"required"`
	SkipCode  SkipCode  `json:"skip_code" validate:"oneof=NO_POSITION HOLDING_OK WAIT_TTL WAIT_STEP_TP WAIT_TP WAIT_SL"`
	Detail    string    `json:"detail"`
}

func NewSkip(ts time.Time, symbol string, code SkipCode, detail string) (Skip, error) {
	s := Skip{
		TsNY:      ts,
		MinuteKey: MinuteKey(ts),
		Symbol:    symbol,
		SkipCode:  code,
		Detail:    detail,
	}
	if err := s.Validate(); err != nil {
		return Skip{}, err
	}
	return s, nil
}

func (s Skip) Validate() error {
	return check("Skip", s)
}

func (s Skip) timestampAndKey() (time.Time, string) {
	return s.TsNY, s.MinuteKey
}

func (s *Skip) UnmarshalJSON(data []byte) error {
	type alias Skip
	aux := struct {
		*alias
		TsNY string `json:"ts_ny"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := decodeTimestamp("Skip", "ts_ny", aux.TsNY)
	if err != nil {
		return err
	}
	s.TsNY = ts
	return s.Validate()
}
