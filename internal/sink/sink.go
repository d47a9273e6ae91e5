// Package sink ships decisions and bars to external systems.
package sink

import (
	"context"
	"errors"
	"time"

	"autotrade/internal/model"
)

// Decision is the flat record of one engine evaluation. It is what the
// decision log, Kafka and the status server all see.
type Decision struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	TsNY      time.Time `json:"ts_ny"`
	MinuteKey string    `json:"minute_key"`
	Symbol    string    `json:"symbol"`
	Phase     string    `json:"phase"`
	Kind      string    `json:"kind"`
	Code      string    `json:"code,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	Qty       *int      `json:"qty,omitempty"`
	Close     float64   `json:"close"`
}

type Publisher interface {
	Publish(ctx context.Context, decision Decision) error
	Close() error
}

type BarArchive interface {
	WriteBar(ctx context.Context, bar model.BarRow) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, Decision) error      { return nil }
func (Nop) WriteBar(context.Context, model.BarRow) error { return nil }
func (Nop) Close() error                                 { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, decision Decision) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, decision); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Archives writes each bar to every archive and joins their errors.
type Archives []BarArchive

func (a Archives) WriteBar(ctx context.Context, bar model.BarRow) error {
	var errs []error
	for _, archive := range a {
		if err := archive.WriteBar(ctx, bar); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a Archives) Close() error {
	var errs []error
	for _, archive := range a {
		if err := archive.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
