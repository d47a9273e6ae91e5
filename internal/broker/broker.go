// Package broker reads positions and account balances from Alpaca. It never
// places orders.
package broker

import (
	"context"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Alpaca allows 200 REST requests per minute per account.
const requestsPerSecond = 3

type Position struct {
	Symbol          string
	Qty             int
	AvgEntry        float64
	UnrealizedPLPct float64
}

type Account struct {
	Equity      float64
	Cash        float64
	BuyingPower float64
}

type Client struct {
	client  *alpaca.Client
	limiter *rate.Limiter
}

func New(apiKey, apiSecret, baseURL string) *Client {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{
		client:  alpaca.NewClient(opts),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	positions, err := c.client.GetPositions()
	if err != nil {
		slog.Error("fetch positions failed", "error", err)
		return nil, err
	}
	out := make([]Position, 0, len(positions))
	for _, pos := range positions {
		avgEntry, _ := pos.AvgEntryPrice.Float64()
		out = append(out, Position{
			Symbol:          pos.Symbol,
			Qty:             int(pos.Qty.IntPart()),
			AvgEntry:        avgEntry,
			UnrealizedPLPct: decimalPtrFloat(pos.UnrealizedPLPC),
		})
	}
	slog.Info("positions fetched", "count", len(out))
	return out, nil
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Account{}, err
	}
	acct, err := c.client.GetAccount()
	if err != nil {
		slog.Error("fetch account failed", "error", err)
		return Account{}, err
	}
	equity, _ := acct.Equity.Float64()
	cash, _ := acct.Cash.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()

	slog.Info("account fetched", "equity", equity, "cash", cash, "buying_power", buyingPower)
	return Account{Equity: equity, Cash: cash, BuyingPower: buyingPower}, nil
}

func decimalPtrFloat(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
