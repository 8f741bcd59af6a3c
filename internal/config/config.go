// Package config loads the ledger service configuration.
//
// Values are layered, later sources winning: built-in defaults, an optional
// YAML file (--config or LEDGER_CONFIG), a .env file, environment variables
// and finally command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"launchpad-ledger/internal/lifecycle"
)

// Ledger backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendPebble   = "pebble"
)

// Config is the service configuration.
type Config struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"` // optional event journal
	PebbleDir     string `yaml:"pebble_dir"`

	HTTPAddr      string        `yaml:"http_addr"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxAttempts   int           `yaml:"max_attempts"`

	FeeRateBps           uint16        `yaml:"fee_rate_bps"`
	MinAge               time.Duration `yaml:"min_age"`
	WarningLead          time.Duration `yaml:"warning_lead"`
	DeathVolumeThreshold uint64        `yaml:"death_volume_threshold"`
	PlatformCutPercent   uint64        `yaml:"platform_cut_percent"`

	// Treasury receives the platform cut at liquidation.
	Treasury string `yaml:"treasury"`
	// PlatformAuthority is the identity that reports trade stats.
	PlatformAuthority string `yaml:"platform_authority"`

	// Faucet exposes the minting endpoint; for local networks only.
	Faucet  bool `yaml:"faucet"`
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:              BackendMemory,
		PebbleDir:            "data/ledger",
		HTTPAddr:             ":8080",
		SweepInterval:        time.Minute,
		MaxAttempts:          1,
		FeeRateBps:           30,
		MinAge:               lifecycle.DefaultMinAge,
		WarningLead:          lifecycle.DefaultWarningLead,
		DeathVolumeThreshold: lifecycle.DefaultDeathVolumeThreshold,
		PlatformCutPercent:   20,
		Treasury:             "treasury",
		PlatformAuthority:    "platform",
	}
}

// Rules returns the lifecycle thresholds.
func (c Config) Rules() lifecycle.Rules {
	return lifecycle.Rules{
		MinAge:               c.MinAge,
		WarningLead:          c.WarningLead,
		DeathVolumeThreshold: c.DeathVolumeThreshold,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres backend requires --postgres-dsn")
		}
	case BackendPebble:
		if c.PebbleDir == "" {
			return errors.New("pebble backend requires --pebble-dir")
		}
	default:
		return fmt.Errorf("unknown backend %q (memory, postgres, pebble)", c.Backend)
	}
	if c.FeeRateBps > 10_000 {
		return fmt.Errorf("fee rate %d bps exceeds 10000", c.FeeRateBps)
	}
	if c.PlatformCutPercent > 100 {
		return fmt.Errorf("platform cut %d%% exceeds 100", c.PlatformCutPercent)
	}
	if c.MinAge <= 0 || c.WarningLead < 0 || c.WarningLead > c.MinAge {
		return fmt.Errorf("invalid lifecycle window: min age %s, warning lead %s", c.MinAge, c.WarningLead)
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if c.Treasury == "" || c.PlatformAuthority == "" {
		return errors.New("treasury and platform authority are required")
	}
	return nil
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile copies KEY=VALUE lines from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, strings.Trim(strings.TrimSpace(value), `"`))
		}
	}
}

// ApplyEnv overlays environment variables read through lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LEDGER_BACKEND", &c.Backend)
	str("POSTGRES_DSN", &c.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.ClickHouseDSN)
	str("PEBBLE_DIR", &c.PebbleDir)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("TREASURY", &c.Treasury)
	str("PLATFORM_AUTHORITY", &c.PlatformAuthority)

	durations := map[string]*time.Duration{
		"SWEEP_INTERVAL": &c.SweepInterval,
		"MIN_AGE":        &c.MinAge,
		"WARNING_LEAD":   &c.WarningLead,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	uints := map[string]*uint64{
		"DEATH_VOLUME_THRESHOLD": &c.DeathVolumeThreshold,
		"PLATFORM_CUT_PERCENT":   &c.PlatformCutPercent,
	}
	for key, dst := range uints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup("FEE_RATE_BPS"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("FEE_RATE_BPS: %w", err)
		}
		c.FeeRateBps = uint16(n)
	}
	if v, ok := lookup("MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_ATTEMPTS: %w", err)
		}
		c.MaxAttempts = n
	}
	bools := map[string]*bool{
		"FAUCET":  &c.Faucet,
		"VERBOSE": &c.Verbose,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// RegisterFlags binds c's fields to fs, using their current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend, "backend", c.Backend, "Ledger backend: memory, postgres or pebble")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&c.ClickHouseDSN, "clickhouse-dsn", c.ClickHouseDSN, "ClickHouse connection string for the event journal")
	fs.StringVar(&c.PebbleDir, "pebble-dir", c.PebbleDir, "Pebble data directory")
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "HTTP listen address")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "Lifecycle sweep interval")
	fs.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "Attempts per ledger unit on write conflicts")
	fs.DurationVar(&c.MinAge, "min-age", c.MinAge, "Minimum token age before it can die")
	fs.DurationVar(&c.WarningLead, "warning-lead", c.WarningLead, "How long before min age a token can be warned")
	fs.Uint64Var(&c.DeathVolumeThreshold, "death-volume-threshold", c.DeathVolumeThreshold, "Quote volume below which an old token dies")
	fs.Uint64Var(&c.PlatformCutPercent, "platform-cut-percent", c.PlatformCutPercent, "Treasury share of liquidated liquidity")
	fs.Func("fee-rate-bps", fmt.Sprintf("Swap fee for new pools in bps (default %d)", c.FeeRateBps), func(s string) error {
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return err
		}
		c.FeeRateBps = uint16(n)
		return nil
	})
	fs.StringVar(&c.Treasury, "treasury", c.Treasury, "Treasury identity")
	fs.StringVar(&c.PlatformAuthority, "platform-authority", c.PlatformAuthority, "Identity that reports trade stats")
	fs.BoolVar(&c.Faucet, "faucet", c.Faucet, "Expose POST /v1/faucet")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Enable debug logging")
}

// Load builds the configuration for a binary named name from args.
func Load(name string, args []string) (Config, error) {
	cfg := Default()

	path := configPath(args)
	if path == "" {
		path = os.Getenv("LEDGER_CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	LoadEnvFile(".env")
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", path, "YAML configuration file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// configPath finds --config in args ahead of the full flag parse.
func configPath(args []string) string {
	for i, a := range args {
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
