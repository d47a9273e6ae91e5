// Package replay reads and writes recorded BarRows.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autotrade/internal/model"

	"github.com/parquet-go/parquet-go"
)

// Row is the on-disk parquet layout. The timestamp is kept as RFC 3339 text
// so the zone offset survives.
type Row struct {
	TsNY      string  `parquet:"ts_ny"`
	MinuteKey string  `parquet:"minute_key"`
	Symbol    string  `parquet:"symbol,dict"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    int64   `parquet:"v"`
	EMA5      float64 `parquet:"ema5"`
	EMA10     float64 `parquet:"ema10"`
	DIF       float64 `parquet:"dif"`
	DEA       float64 `parquet:"dea"`
	MACDHist  float64 `parquet:"macd_hist"`
	BarCount  int64   `parquet:"bar_count"`
	IsRTH     bool    `parquet:"is_rth"`
	Source    string  `parquet:"src,dict"`
}

func toRow(bar model.BarRow) Row {
	return Row{
		TsNY:      bar.TsNY.Format(time.RFC3339Nano),
		MinuteKey: bar.MinuteKey,
		Symbol:    bar.Symbol,
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
		Close:     bar.Close,
		Volume:    bar.Volume,
		EMA5:      bar.EMA5,
		EMA10:     bar.EMA10,
		DIF:       bar.DIF,
		DEA:       bar.DEA,
		MACDHist:  bar.MACDHist,
		BarCount:  int64(bar.BarCount),
		IsRTH:     bar.IsRTH,
		Source:    string(bar.Source),
	}
}

func fromRow(row Row) (model.BarRow, error) {
	ts, err := model.ParseTimestamp(row.TsNY)
	if err != nil {
		return model.BarRow{}, err
	}
	return model.NewBarRow(model.BarRow{
		TsNY:      ts,
		MinuteKey: row.MinuteKey,
		Symbol:    row.Symbol,
		Open:      row.Open,
		High:      row.High,
		Low:       row.Low,
		Close:     row.Close,
		Volume:    row.Volume,
		EMA5:      row.EMA5,
		EMA10:     row.EMA10,
		DIF:       row.DIF,
		DEA:       row.DEA,
		MACDHist:  row.MACDHist,
		BarCount:  int(row.BarCount),
		IsRTH:     row.IsRTH,
		Source:    model.Source(row.Source),
	})
}

// ReadFile loads bars from a .parquet or .ndjson/.jsonl file. The first row
// that fails contract validation aborts the read.
func ReadFile(path string) ([]model.BarRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return readParquet(path)
	case ".ndjson", ".jsonl":
		return readNDJSON(path)
	default:
		return nil, fmt.Errorf("unsupported replay format: %s", path)
	}
}

func readParquet(path string) ([]model.BarRow, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	bars := make([]model.BarRow, 0, len(rows))
	for i, row := range rows {
		bar, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func readNDJSON(path string) ([]model.BarRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var bars []model.BarRow
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var bar model.BarRow
		if err := json.Unmarshal([]byte(text), &bar); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		bars = append(bars, bar)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bars, nil
}

func WriteParquet(path string, bars []model.BarRow) error {
	rows := make([]Row, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, toRow(bar))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}
