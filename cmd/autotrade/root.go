package main

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"autotrade/internal/config"
	"autotrade/internal/slogx"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type app struct {
	loader *config.Loader
	cfg    config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "autotrade",
		Short:         "LONG-only bar decision runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loader.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(slogx.New(cfg.LogLevel, cfg.LogFormat))
			return nil
		},
	}
	a.loader = config.NewLoader(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(a),
		newReplayCmd(a),
		newValidateSchemaCmd(),
		newSelftestCmd(),
	)
	return root
}

// withoutConfig replaces the root config hook for commands that only touch
// local files.
func withoutConfig(cmd *cobra.Command) *cobra.Command {
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		slog.SetDefault(slogx.New(level, format))
		return nil
	}
	return cmd
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	if id, err := uuid.NewRandom(); err == nil {
		return timestamp + "-" + id.String()[:8]
	}
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return timestamp
	}
	return timestamp + "-" + hex.EncodeToString(randomBytes)
}
