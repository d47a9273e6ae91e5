package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeStream Mode = "stream"
	ModePaper  Mode = "paper"
)

type Config struct {
	Mode     Mode          `yaml:"mode"`
	Symbols  []string      `yaml:"symbols"`
	Feed     string        `yaml:"feed"`
	Interval time.Duration `yaml:"interval"`

	MACDFast     int `yaml:"macd_fast"`
	MACDSlow     int `yaml:"macd_slow"`
	MACDSignal   int `yaml:"macd_signal"`
	HistoryDepth int `yaml:"history_depth"`

	StateBackend      string        `yaml:"state_backend"`
	StatePath         string        `yaml:"state_path"`
	DecisionsPath     string        `yaml:"decisions_path"`
	RecordPath        string        `yaml:"record_path"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	StatusAddr string `yaml:"status_addr"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`

	PaperBaseURL string `yaml:"paper_base_url"`
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
}

func Defaults() Config {
	return Config{
		Mode:              ModeStream,
		Interval:          time.Minute,
		MACDFast:          12,
		MACDSlow:          26,
		MACDSignal:        9,
		HistoryDepth:      120,
		StateBackend:      "json",
		StatePath:         "state/positions.json",
		DecisionsPath:     "decisions.ndjson",
		ReconcileInterval: 10 * time.Second,
		LogLevel:          "info",
		LogFormat:         "text",
		StatusAddr:        ":8080",
		KafkaTopic:        "autotrade.decisions",
		PaperBaseURL:      "https://paper-api.alpaca.markets",
	}
}

// Loader resolves a Config from defaults, an optional YAML file, the
// environment and the flags explicitly set on its FlagSet, in that order.
type Loader struct {
	flags *pflag.FlagSet
}

// NewLoader registers the config flags on fs.
func NewLoader(fs *pflag.FlagSet) *Loader {
	d := Defaults()
	fs.String("config", "", "path to YAML config file")
	fs.String("env-file", ".env", "dotenv file loaded when present")
	fs.String("mode", string(d.Mode), "run mode: stream or paper")
	fs.StringSlice("symbols", nil, "symbols to watch (comma separated)")
	fs.String("feed", "", "market data feed: iex, sip or test")
	fs.Duration("interval", d.Interval, "bar interval")
	fs.Int("macd-fast", d.MACDFast, "MACD fast EMA period")
	fs.Int("macd-slow", d.MACDSlow, "MACD slow EMA period")
	fs.Int("macd-signal", d.MACDSignal, "MACD signal EMA period")
	fs.Int("history-depth", d.HistoryDepth, "bars kept per symbol for the status server")
	fs.String("state-backend", d.StateBackend, "position store: json or badger")
	fs.String("state-path", d.StatePath, "position store path")
	fs.String("decisions-path", d.DecisionsPath, "path to decisions log")
	fs.String("record", "", "write received bars to this parquet file on exit")
	fs.Duration("reconcile-interval", d.ReconcileInterval, "reconciliation interval")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: text or json")
	fs.String("status-addr", d.StatusAddr, "status server listen address, empty to disable")
	fs.StringSlice("kafka-brokers", nil, "Kafka brokers for decision publishing")
	fs.String("kafka-topic", d.KafkaTopic, "Kafka decision topic")
	fs.String("influx-url", "", "InfluxDB URL for the bar archive")
	fs.String("influx-org", "", "InfluxDB organization")
	fs.String("influx-bucket", "", "InfluxDB bucket")
	fs.String("paper-base-url", d.PaperBaseURL, "paper trading base URL")
	return &Loader{flags: fs}
}

func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	path, _ := l.flags.GetString("config")
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	envFile, _ := l.flags.GetString("env-file")
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if err := l.applyFlags(&cfg); err != nil {
		return cfg, err
	}
	applyModeDefaults(&cfg)
	cfg.Symbols = normalizeSymbols(cfg.Symbols)

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIKey = getEnv("APCA_API_KEY_ID", cfg.APIKey)
	cfg.APISecret = getEnv("APCA_API_SECRET_KEY", cfg.APISecret)
	cfg.Mode = Mode(getEnv("AUTOTRADE_MODE", string(cfg.Mode)))
	cfg.Symbols = getEnvList("AUTOTRADE_SYMBOLS", cfg.Symbols)
	cfg.Feed = getEnv("AUTOTRADE_FEED", cfg.Feed)
	cfg.StatePath = getEnv("AUTOTRADE_STATE_PATH", cfg.StatePath)
	cfg.LogLevel = getEnv("AUTOTRADE_LOG_LEVEL", cfg.LogLevel)
	cfg.KafkaBrokers = getEnvList("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.InfluxURL = getEnv("INFLUXDB_URL", cfg.InfluxURL)
	cfg.InfluxToken = getEnv("INFLUXDB_TOKEN", cfg.InfluxToken)
	cfg.InfluxOrg = getEnv("INFLUXDB_ORG", cfg.InfluxOrg)
	cfg.InfluxBucket = getEnv("INFLUXDB_BUCKET", cfg.InfluxBucket)
}

func (l *Loader) applyFlags(cfg *Config) error {
	var err error
	l.flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		fs := l.flags
		switch f.Name {
		case "mode":
			var v string
			v, err = fs.GetString(f.Name)
			cfg.Mode = Mode(v)
		case "symbols":
			cfg.Symbols, err = fs.GetStringSlice(f.Name)
		case "feed":
			cfg.Feed, err = fs.GetString(f.Name)
		case "interval":
			cfg.Interval, err = fs.GetDuration(f.Name)
		case "macd-fast":
			cfg.MACDFast, err = fs.GetInt(f.Name)
		case "macd-slow":
			cfg.MACDSlow, err = fs.GetInt(f.Name)
		case "macd-signal":
			cfg.MACDSignal, err = fs.GetInt(f.Name)
		case "history-depth":
			cfg.HistoryDepth, err = fs.GetInt(f.Name)
		case "state-backend":
			cfg.StateBackend, err = fs.GetString(f.Name)
		case "state-path":
			cfg.StatePath, err = fs.GetString(f.Name)
		case "decisions-path":
			cfg.DecisionsPath, err = fs.GetString(f.Name)
		case "record":
			cfg.RecordPath, err = fs.GetString(f.Name)
		case "reconcile-interval":
			cfg.ReconcileInterval, err = fs.GetDuration(f.Name)
		case "log-level":
			cfg.LogLevel, err = fs.GetString(f.Name)
		case "log-format":
			cfg.LogFormat, err = fs.GetString(f.Name)
		case "status-addr":
			cfg.StatusAddr, err = fs.GetString(f.Name)
		case "kafka-brokers":
			cfg.KafkaBrokers, err = fs.GetStringSlice(f.Name)
		case "kafka-topic":
			cfg.KafkaTopic, err = fs.GetString(f.Name)
		case "influx-url":
			cfg.InfluxURL, err = fs.GetString(f.Name)
		case "influx-org":
			cfg.InfluxOrg, err = fs.GetString(f.Name)
		case "influx-bucket":
			cfg.InfluxBucket, err = fs.GetString(f.Name)
		case "paper-base-url":
			cfg.PaperBaseURL, err = fs.GetString(f.Name)
		}
	})
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	return nil
}

func applyModeDefaults(cfg *Config) {
	switch cfg.Mode {
	case ModeStream:
		if len(cfg.Symbols) == 0 {
			cfg.Symbols = []string{"FAKEPACA"}
		}
		if cfg.Feed == "" {
			cfg.Feed = "test"
		}
	case ModePaper:
		if len(cfg.Symbols) == 0 {
			cfg.Symbols = []string{"AAPL"}
		}
		if cfg.Feed == "" {
			cfg.Feed = "iex"
		}
	}
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func validate(cfg Config) error {
	if cfg.Mode != ModeStream && cfg.Mode != ModePaper {
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		if cfg.Mode == ModePaper {
			return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required in paper mode")
		}
	}
	switch cfg.Feed {
	case "", "iex", "sip", "test":
	default:
		return fmt.Errorf("invalid feed: %s", cfg.Feed)
	}
	if cfg.StateBackend != "json" && cfg.StateBackend != "badger" {
		return fmt.Errorf("invalid state-backend: %s", cfg.StateBackend)
	}
	if cfg.MACDFast <= 0 || cfg.MACDSignal <= 0 {
		return fmt.Errorf("macd periods must be > 0")
	}
	if cfg.MACDSlow <= cfg.MACDFast {
		return fmt.Errorf("macd-slow must be > macd-fast")
	}
	if cfg.HistoryDepth <= 0 {
		return fmt.Errorf("history-depth must be > 0")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if cfg.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile-interval must be > 0")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log-format: %s", cfg.LogFormat)
	}
	return nil
}
