package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTime() time.Time {
	return time.Date(2024, 1, 2, 9, 31, 0, 0, NewYork())
}

func sampleBar() BarRow {
	return BarRow{
		TsNY:      sampleTime(),
		MinuteKey: "20240102-0931",
		Symbol:    "TQQQ",
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
		Source:    SourceReplay,
	}
}

// minuteKeyedCases builds every minute-keyed record for (ts, key).
func minuteKeyedCases(ts time.Time, key string) map[string]func() error {
	return map[string]func() error{
		"BarRow": func() error {
			b := sampleBar()
			b.TsNY, b.MinuteKey = ts, key
			_, err := NewBarRow(b)
			return err
		},
		"EntrySignal": func() error {
			return EntrySignal{TsNY: ts, MinuteKey: key, Symbol: "TQQQ", Side: SideLong, Score: 1, Reason: EntryReasonMACDHistCrossUpEMAConfirm}.Validate()
		},
		"Blocked": func() error {
			return Blocked{TsNY: ts, MinuteKey: key, Symbol: "TQQQ", BlockCode: BlockCapacityFull}.Validate()
		},
		"ExitSignal": func() error {
			return ExitSignal{TsNY: ts, MinuteKey: key, Symbol: "TQQQ", Action: ActionClose, ReasonCode: ExitStopLoss}.Validate()
		},
		"Skip": func() error {
			return Skip{TsNY: ts, MinuteKey: key, Symbol: "TQQQ", SkipCode: SkipHoldingOK}.Validate()
		},
	}
}

func TestMinuteKeyedRecordsAcceptDerivedKey(t *testing.T) {
	stamps := []time.Time{
		sampleTime(),
		time.Date(2024, 7, 1, 15, 59, 0, 0, NewYork()),
		time.Date(2024, 3, 10, 23, 5, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.FixedZone("EST", -5*3600)),
	}
	for _, ts := range stamps {
		for name, build := range minuteKeyedCases(ts, MinuteKey(ts)) {
			assert.NoError(t, build(), "%s at %s", name, ts)
		}
	}
}

func TestMinuteKeyedRecordsRejectMismatchedKey(t *testing.T) {
	ts := sampleTime()
	for name, build := range minuteKeyedCases(ts, "20240102-0932") {
		err := build()
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrValidation), name)
		assert.Contains(t, err.Error(), "expected 20240102-0931", name)
	}
}

func TestMinuteKeyedRecordsRejectNaiveTimestamp(t *testing.T) {
	naive := time.Date(2024, 1, 2, 9, 31, 0, 0, time.Local)
	for name, build := range minuteKeyedCases(naive, MinuteKey(naive)) {
		err := build()
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "timezone-aware", name)
	}
	for name, build := range minuteKeyedCases(time.Time{}, "00010101-0000") {
		assert.Error(t, build(), name)
	}
}

func TestBarRowVolumeDomain(t *testing.T) {
	b := sampleBar()
	b.Volume = -1
	_, err := NewBarRow(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v must be >= 0")

	b.Volume = 0
	_, err = NewBarRow(b)
	assert.NoError(t, err)
}

func TestBarRowBarCountDomain(t *testing.T) {
	b := sampleBar()
	b.BarCount = 0
	_, err := NewBarRow(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bar_count")

	b.BarCount = 1
	_, err = NewBarRow(b)
	assert.NoError(t, err)
}

func TestBarRowRejectsUnknownSource(t *testing.T) {
	b := sampleBar()
	b.Source = "POLYGON"
	_, err := NewBarRow(b)
	assert.Error(t, err)
}

func TestBarRowReportsEveryProblem(t *testing.T) {
	b := sampleBar()
	b.Volume = -5
	b.BarCount = 0
	b.MinuteKey = "bad"
	_, err := NewBarRow(b)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "BarRow", verr.Record)
	assert.Len(t, verr.Problems, 3)
}

func TestBarRowRoundTripsFields(t *testing.T) {
	in := sampleBar()
	got, err := NewBarRow(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Equal(t, "TQQQ", got.Symbol)
	assert.Equal(t, 10.5, got.Close)
	assert.Equal(t, int64(1000), got.Volume)
	assert.Equal(t, 0.01, got.MACDHist)
	assert.Equal(t, 3, got.BarCount)
	assert.True(t, got.IsRTH)
	assert.Equal(t, SourceReplay, got.Source)
}

func TestBarRowJSONRoundTrip(t *testing.T) {
	in := sampleBar()
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out BarRow
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, in.TsNY.Equal(out.TsNY))
	assert.Equal(t, in.MinuteKey, MinuteKey(out.TsNY))
	out.TsNY = in.TsNY
	assert.Equal(t, in, out)
}

func TestBarRowJSONRejectsNaiveTimestamp(t *testing.T) {
	payload := `{"ts_ny":"2024-01-02T09:31:00","minute_key":"20240102-0931","symbol":"TQQQ","o":1,"h":1,"l":1,"c":1,"v":1,"bar_count":1,"is_rth":true,"src":"IEX"}`
	var b BarRow
	err := json.Unmarshal([]byte(payload), &b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "timezone-aware")
}

func TestBarRowJSONValidatesOnDecode(t *testing.T) {
	payload := `{"ts_ny":"2024-01-02T09:31:00-05:00","minute_key":"20240102-0931","symbol":"TQQQ","v":-1,"bar_count":1,"src":"IEX"}`
	var b BarRow
	assert.Error(t, json.Unmarshal([]byte(payload), &b))
}

func TestParseTimestampResolvesNewYork(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-02T09:31:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", ts.Location().String())
	assert.Equal(t, "20240102-0931", MinuteKey(ts))

	utc, err := ParseTimestamp("2024-01-02T14:31:00Z")
	require.NoError(t, err)
	assert.Equal(t, "20240102-1431", MinuteKey(utc))
	assert.True(t, IsTZAware(utc))
}

func TestConstructorsDeriveMinuteKey(t *testing.T) {
	ts := sampleTime()

	sig, err := NewEntrySignal(ts, "TQQQ", 0.7, EntryReasonMACDHistCrossUpEMAConfirm, nil)
	require.NoError(t, err)
	assert.Equal(t, "20240102-0931", sig.MinuteKey)
	assert.Equal(t, SideLong, sig.Side)

	blk, err := NewBlocked(ts, "SQQQ", BlockInverseETFTimeBan, "inverse ban window", nil)
	require.NoError(t, err)
	assert.Equal(t, "20240102-0931", blk.MinuteKey)

	ex, err := NewExitSignal(ts, "TQQQ", ExitTTLExpired, nil, nil)
	require.NoError(t, err)
	assert.True(t, ex.CloseAll())

	sk, err := NewSkip(ts, "TQQQ", SkipWaitStepTP, "")
	require.NoError(t, err)
	assert.Equal(t, SkipWaitStepTP, sk.SkipCode)
}

func TestConstructorsRejectUnknownCodes(t *testing.T) {
	ts := sampleTime()
	_, err := NewBlocked(ts, "TQQQ", "HALTED", "", nil)
	assert.Error(t, err)
	_, err = NewSkip(ts, "TQQQ", "MAYBE", "")
	assert.Error(t, err)
	_, err = NewExitSignal(ts, "TQQQ", "PANIC", nil, nil)
	assert.Error(t, err)
	_, err = NewEntrySignal(ts, "TQQQ", 1, "VIBES", nil)
	assert.Error(t, err)
	_, err = NewEntrySignal(ts, "", 1, EntryReasonMACDHistCrossUpEMAConfirm, nil)
	assert.Error(t, err)
}

func TestExitSignalQty(t *testing.T) {
	ts := sampleTime()
	zero := 0
	_, err := NewExitSignal(ts, "TQQQ", ExitStopLoss, &zero, nil)
	assert.Error(t, err)

	qty := 5
	sig, err := NewExitSignal(ts, "TQQQ", ExitStopLoss, &qty, nil)
	require.NoError(t, err)
	qty = 7
	assert.Equal(t, 5, *sig.Qty)
	assert.False(t, sig.CloseAll())
}

func TestConstructorsCloneMaps(t *testing.T) {
	features := map[string]any{"macd_hist": 0.02}
	sig, err := NewEntrySignal(sampleTime(), "TQQQ", 1, EntryReasonMACDHistCrossUpEMAConfirm, features)
	require.NoError(t, err)
	features["macd_hist"] = 9.9
	assert.Equal(t, 0.02, sig.Features["macd_hist"])
}

func TestPositionSnapshotTimestamps(t *testing.T) {
	ts := sampleTime()
	entry := ts.Add(-30 * time.Minute)
	p, err := NewPositionSnapshot(PositionSnapshot{TsNY: ts, Symbol: "TQQQ", Qty: 1, AvgEntryPx: 100, EntryTsNY: &entry})
	require.NoError(t, err)
	entry = entry.Add(time.Hour)
	assert.True(t, p.EntryTsNY.Equal(ts.Add(-30*time.Minute)))

	_, err = NewPositionSnapshot(PositionSnapshot{TsNY: ts, Symbol: "TQQQ", Qty: 1})
	assert.NoError(t, err, "entry_ts_ny is optional")

	naive := time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local)
	_, err = NewPositionSnapshot(PositionSnapshot{TsNY: ts, Symbol: "TQQQ", EntryTsNY: &naive})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_ts_ny")

	_, err = NewPositionSnapshot(PositionSnapshot{TsNY: naive, Symbol: "TQQQ"})
	assert.Error(t, err)
}

func TestPositionSnapshotJSON(t *testing.T) {
	payload := `{"ts_ny":"2024-01-02T10:00:00-05:00","symbol":"TQQQ","qty":3,"avg_entry_px":50.5,"entry_ts_ny":"2024-01-02T09:45:00-05:00","unrealized_pl_pct":0.004,"highest_pl_pct":0.01,"step_tp_floor_pl_pct":0.005,"step_tp_armed":true}`
	var p PositionSnapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	require.NotNil(t, p.EntryTsNY)
	assert.Equal(t, "20240102-0945", MinuteKey(*p.EntryTsNY))
	assert.True(t, p.StepTPArmed)
	assert.Equal(t, 0.005, p.StepTPFloorPLPct)

	naive := `{"ts_ny":"2024-01-02T10:00:00-05:00","symbol":"TQQQ","entry_ts_ny":"2024-01-02T09:45:00"}`
	assert.Error(t, json.Unmarshal([]byte(naive), &p))

	missing := `{"ts_ny":"2024-01-02T10:00:00-05:00","symbol":"TQQQ","entry_ts_ny":null}`
	require.NoError(t, json.Unmarshal([]byte(missing), &p))
	assert.Nil(t, p.EntryTsNY)
}

func TestDecisionVariants(t *testing.T) {
	var zero EntryDecision
	assert.True(t, zero.IsNone())
	assert.Equal(t, KindNone, NoExit().Kind())

	sig, err := NewEntrySignal(sampleTime(), "TQQQ", 1, EntryReasonMACDHistCrossUpEMAConfirm, nil)
	require.NoError(t, err)
	d := Enter(sig)
	got, ok := d.Signal()
	assert.True(t, ok)
	assert.Equal(t, "TQQQ", got.Symbol)
	_, ok = d.Blocked()
	assert.False(t, ok)

	sk, err := NewSkip(sampleTime(), "TQQQ", SkipNoPosition, "flat")
	require.NoError(t, err)
	x := SkipExit(sk)
	assert.Equal(t, KindSkip, x.Kind())
	assert.Equal(t, "skip", x.Kind().String())
	_, ok = x.Signal()
	assert.False(t, ok)
}
