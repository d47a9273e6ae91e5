package model

import (
	"encoding/json"
	"maps"
	"time"
)

// Side is always LONG; bear exposure is taken through long inverse ETFs.
type Side string

const SideLong Side = "LONG"

type EntryReason string

const EntryReasonMACDHistCrossUpEMAConfirm EntryReason = "MACD_HIST_CROSS_UP__EMA_CONFIRM"

// BlockCode explains why an entry did not happen.
type BlockCode string

const (
	BlockColdStart          BlockCode = "COLD_START"
	BlockOpenNoEntry        BlockCode = "OPEN_NO_ENTRY"
	BlockNoEntryBeforeClose BlockCode = "NO_ENTRY_BEFORE_CLOSE"
	BlockOutsideRTH         BlockCode = "OUTSIDE_RTH"
	BlockInverseETFTimeBan  BlockCode = "INVERSE_ETF_TIME_BAN"
	BlockCapacityFull       BlockCode = "CAPACITY_FULL"
	BlockAlreadyInPosition  BlockCode = "ALREADY_IN_POSITION"
	BlockInsufficientCash   BlockCode = "INSUFFICIENT_CASH"
)

// EntrySignal proposes a new long entry. Score ranks candidates signalled in
// the same minute.
type EntrySignal struct {
	TsNY      time.Time      `json:"ts_ny" validate:"tzaware"`
	MinuteKey string         `json:"minute_key"`
	Symbol    string         `json:"symbol" validate:"required"`
	Side      Side           `json:"side" validate:"eq=LONG"`
	Score     float64        `json:"score"`
	Reason    EntryReason    `json:"reason" validate:"oneof=MACD_HIST_CROSS_UP__EMA_CONFIRM"`
	Features  map[string]any `json:"features,omitempty"`
}

// NewEntrySignal builds a LONG entry signal keyed to ts.
func NewEntrySignal(ts time.Time, symbol string, score float64, reason EntryReason, features map[string]any) (EntrySignal, error) {
	s := EntrySignal{
		TsNY:      ts,
		MinuteKey: MinuteKey(ts),
		Symbol:    symbol,
		Side:      SideLong,
		Score:     score,
		Reason:    reason,
		Features:  maps.Clone(features),
	}
	if err := s.Validate(); err != nil {
		return EntrySignal{}, err
	}
	return s, nil
}

func (s EntrySignal) Validate() error {
	return check("EntrySignal", s)
}

func (s EntrySignal) timestampAndKey() (time.Time, string) {
	return s.TsNY, s.MinuteKey
}

func (s *EntrySignal) UnmarshalJSON(data []byte) error {
	type alias EntrySignal
	aux := struct {
		*alias
		TsNY string `json:"ts_ny"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := decodeTimestamp("EntrySignal", "ts_ny", aux.TsNY)
	if err != nil {
		return err
	}
	s.TsNY = ts
	return s.Validate()
}

// Blocked records why no entry happened, with an arbitrary diagnostic
// snapshot.
type Blocked struct {
	TsNY      time.Time      `json:"ts_ny" validate:"tzaware"`
	MinuteKey string         `json:"minute_key"`
	Symbol    string         `json:"symbol" validate:"required"`
	BlockCode BlockCode      `json:"block_code" validate:"oneof=COLD_START OPEN_NO_ENTRY NO_ENTRY_BEFORE_CLOSE OUTSIDE_RTH INVERSE_ETF_TIME_BAN CAPACITY_FULL ALREADY_IN_POSITION INSUFFICIENT_CASH"`
	Detail    string         `json:"detail"`
	Snapshot  map[string]any `json:"snapshot,omitempty"`
}

func NewBlocked(ts time.Time, symbol string, code BlockCode, detail string, snapshot map[string]any) (Blocked, error) {
	b := Blocked{
		TsNY:      ts,
		MinuteKey: MinuteKey(ts),
		Symbol:    symbol,
		BlockCode: code,
		Detail:    detail,
		Snapshot:  maps.Clone(snapshot),
	}
	if err := b.Validate(); err != nil {
		return Blocked{}, err
	}
	return b, nil
}

func (b Blocked) Validate() error {
	return check("Blocked", b)
}

func (b Blocked) timestampAndKey() (time.Time, string) {
	return b.TsNY, b.MinuteKey
}

func (b *Blocked) UnmarshalJSON(data []byte) error {
	type alias Blocked
	aux := struct {
		*alias
		TsNY string `json:"ts_ny"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := decodeTimestamp("Blocked", "ts_ny", aux.TsNY)
	if err != nil {
		return err
	}
	b.TsNY = ts
	return b.Validate()
}
