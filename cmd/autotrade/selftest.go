package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"autotrade/internal/engine"
	"autotrade/internal/model"

	"github.com/spf13/cobra"
)

func newSelftestCmd() *cobra.Command {
	return withoutConfig(&cobra.Command{
		Use:   "selftest",
		Short: "Build a sample bar and position and print both engine decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return selftest(cmd.OutOrStdout(), time.Now())
		},
	})
}

func selftest(out io.Writer, now time.Time) error {
	ts := now.In(model.NewYork()).Truncate(time.Minute)
	bar, err := model.NewBarRow(model.BarRow{
		TsNY:      ts,
		MinuteKey: model.MinuteKey(ts),
		Symbol:    "DEMO",
		BarCount:  1,
		Source:    model.SourceReplay,
	})
	if err != nil {
		return fmt.Errorf("sample bar: %w", err)
	}
	entryTs := ts.Add(-5 * time.Minute)
	pos, err := model.NewPositionSnapshot(model.PositionSnapshot{
		TsNY:      ts,
		Symbol:    "DEMO",
		Qty:       1,
		EntryTsNY: &entryTs,
	})
	if err != nil {
		return fmt.Errorf("sample position: %w", err)
	}

	entry := engine.NewEntryEngine().Evaluate(bar)
	exit := engine.NewExitEngine().Evaluate(bar, &pos)

	barJSON, err := json.Marshal(bar)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Autotrade self-test")
	fmt.Fprintf(out, "bar: %s\n", barJSON)
	fmt.Fprintf(out, "entry decision: %s\n", entry.Kind())
	fmt.Fprintf(out, "exit decision: %s\n", exit.Kind())
	return nil
}
