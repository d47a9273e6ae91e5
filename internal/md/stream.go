package md

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autotrade/internal/model"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"
)

type RawBarHandler func(RawBar)

// StartStream subscribes to minute bars for symbols and blocks until ctx is
// done or the connection fails.
func StartStream(ctx context.Context, apiKey, apiSecret, feed string, symbols []string, handler RawBarHandler) error {
	feedType := parseFeed(feed)
	source := feedSource(feedType)
	client := stream.NewStocksClient(
		feedType,
		stream.WithCredentials(apiKey, apiSecret),
	)

	// Connect must be called before subscribing in this SDK version
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect market data stream: %w", err)
	}

	slog.Debug("connected to stream", "feed", feedType, "symbols", symbols)

	if err := client.SubscribeToBars(func(bar stream.Bar) {
		slog.Debug("received bar", "symbol", bar.Symbol, "timestamp", bar.Timestamp, "close", bar.Close)
		handler(RawBar{
			Symbol: bar.Symbol,
			Start:  bar.Timestamp,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
			Source: source,
		})
	}, symbols...); err != nil {
		return fmt.Errorf("subscribe to bars: %w", err)
	}

	slog.Info("subscribed to bars", "feed", feedType, "symbols", strings.Join(symbols, ","))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-client.Terminated():
		if err != nil {
			return fmt.Errorf("market data stream terminated: %w", err)
		}
		return ctx.Err()
	}
}

// testFeed is Alpaca's sandbox stream. It serves the FAKEPACA symbol around
// the clock.
const testFeed marketdata.Feed = "test"

func parseFeed(feed string) marketdata.Feed {
	switch strings.ToLower(strings.TrimSpace(feed)) {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	case "test":
		return testFeed
	default:
		return marketdata.IEX
	}
}

// feedSource tags bars by feed. Sandbox bars follow the IEX format and are
// tagged IEX.
func feedSource(feed marketdata.Feed) model.Source {
	if feed == marketdata.SIP {
		return model.SourceSIP
	}
	return model.SourceIEX
}
