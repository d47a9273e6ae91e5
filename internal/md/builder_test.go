package md

import (
	"errors"
	"testing"
	"time"

	"autotrade/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawBar(symbol string, start time.Time, close float64) RawBar {
	return RawBar{
		Symbol: symbol,
		Start:  start,
		Open:   close,
		High:   close + 0.5,
		Low:    close - 0.5,
		Close:  close,
		Volume: 100,
		Source: model.SourceIEX,
	}
}

func TestBuilderStampsCloseMinuteInNewYork(t *testing.T) {
	b := NewBuilder(DefaultIndicatorConfig(), time.Minute)
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	row, err := b.Build(rawBar("TQQQ", start, 50))
	require.NoError(t, err)
	assert.Equal(t, "20240102-0931", row.MinuteKey)
	assert.Equal(t, "America/New_York", row.TsNY.Location().String())
	assert.True(t, row.IsRTH)
	assert.Equal(t, 1, row.BarCount)
	assert.Equal(t, 50.0, row.EMA5)
	assert.Equal(t, 50.0, row.EMA10)
	assert.Zero(t, row.MACDHist)
	assert.NoError(t, row.Validate())
}

func TestBuilderTracksPerSymbolState(t *testing.T) {
	b := NewBuilder(DefaultIndicatorConfig(), time.Minute)
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := b.Build(rawBar("TQQQ", start.Add(time.Duration(i)*time.Minute), 50+float64(i)))
		require.NoError(t, err)
	}
	row, err := b.Build(rawBar("SQQQ", start, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, row.BarCount)
	assert.Equal(t, 3, b.Count("TQQQ"))

	next, err := b.Build(rawBar("TQQQ", start.Add(3*time.Minute), 60))
	require.NoError(t, err)
	assert.Equal(t, 4, next.BarCount)
	assert.Greater(t, next.EMA5, next.EMA10)
	assert.Greater(t, next.DIF, 0.0)
}

func TestBuilderRejectsOutOfOrderBars(t *testing.T) {
	b := NewBuilder(DefaultIndicatorConfig(), time.Minute)
	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

	_, err := b.Build(rawBar("TQQQ", start, 50))
	require.NoError(t, err)
	_, err = b.Build(rawBar("TQQQ", start, 51))
	assert.Error(t, err)
	assert.Equal(t, 1, b.Count("TQQQ"))
}

func TestBuilderRejectsInvalidBarWithoutAdvancing(t *testing.T) {
	b := NewBuilder(DefaultIndicatorConfig(), time.Minute)
	bad := rawBar("TQQQ", time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), 50)
	bad.Volume = -1

	_, err := b.Build(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Zero(t, b.Count("TQQQ"))
}
