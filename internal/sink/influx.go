package sink

import (
	"context"
	"fmt"
	"strconv"

	"autotrade/internal/model"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const barsMeasurement = "bars"

// InfluxArchive stores every evaluated bar as a point in the bars measurement.
type InfluxArchive struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInfluxArchive(url, token, org, bucket string) *InfluxArchive {
	client := influxdb2.NewClient(url, token)
	return &InfluxArchive{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}
}

func (a *InfluxArchive) WriteBar(ctx context.Context, bar model.BarRow) error {
	if err := a.writeAPI.WritePoint(ctx, barPoint(bar)); err != nil {
		return fmt.Errorf("write bar %s %s: %w", bar.Symbol, bar.MinuteKey, err)
	}
	return nil
}

func (a *InfluxArchive) Close() error {
	a.client.Close()
	return nil
}

func barPoint(bar model.BarRow) *write.Point {
	return write.NewPoint(
		barsMeasurement,
		map[string]string{
			"symbol": bar.Symbol,
			"src":    string(bar.Source),
			"is_rth": strconv.FormatBool(bar.IsRTH),
		},
		map[string]interface{}{
			"open":      bar.Open,
			"high":      bar.High,
			"low":       bar.Low,
			"close":     bar.Close,
			"volume":    bar.Volume,
			"ema5":      bar.EMA5,
			"ema10":     bar.EMA10,
			"dif":       bar.DIF,
			"dea":       bar.DEA,
			"macd_hist": bar.MACDHist,
			"bar_count": bar.BarCount,
		},
		bar.TsNY,
	)
}
