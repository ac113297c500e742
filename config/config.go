// Package config loads gateway settings env-first with an optional YAML
// fallback file. Environment variables always win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CLMM_"

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	// RPCURLs may be empty; the endpoint pool then falls back to the
	// default public endpoint.
	RPCURLs []string

	FeePercentile int
	FeeFloor      uint64
	FeeCeiling    uint64
	FeeMultiplier float64
	FeeTTL        time.Duration
	FeeWatchlist  []solana.PublicKey

	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
	MaxAttempts      int
	ComputeUnitLimit uint32

	Log LogConfig
}

type fileConfig struct {
	RPCURLs          []string  `yaml:"rpc_urls"`
	FeePercentile    *int      `yaml:"fee_percentile"`
	FeeFloor         *uint64   `yaml:"fee_floor"`
	FeeCeiling       *uint64   `yaml:"fee_ceiling"`
	FeeMultiplier    *float64  `yaml:"fee_multiplier"`
	FeeTTL           *string   `yaml:"fee_ttl"`
	FeeWatchlist     []string  `yaml:"fee_watchlist"`
	ConfirmTimeout   *string   `yaml:"confirm_timeout"`
	PollInterval     *string   `yaml:"poll_interval"`
	MaxAttempts      *int      `yaml:"max_attempts"`
	ComputeUnitLimit *uint32   `yaml:"compute_unit_limit"`
	Log              LogConfig `yaml:"log"`
}

// Load reads .env (when present), then the YAML file named by
// CLMM_CONFIG_FILE (when set), then environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		FeePercentile:    50,
		FeeFloor:         1_000,
		FeeCeiling:       10_000_000,
		FeeMultiplier:    1.5,
		FeeTTL:           10 * time.Second,
		ConfirmTimeout:   3 * time.Second,
		PollInterval:     500 * time.Millisecond,
		MaxAttempts:      4,
		ComputeUnitLimit: 400_000,
		Log:              LogConfig{Level: "info", Format: "console"},
	}

	if path := os.Getenv(envPrefix + "CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.FeePercentile < 0 || cfg.FeePercentile > 100 {
		return nil, fmt.Errorf("fee percentile %d out of range [0, 100]", cfg.FeePercentile)
	}
	if cfg.FeeMultiplier <= 1 {
		return nil, fmt.Errorf("fee multiplier %v must be > 1", cfg.FeeMultiplier)
	}
	if cfg.FeeCeiling < cfg.FeeFloor {
		return nil, fmt.Errorf("fee ceiling %d below floor %d", cfg.FeeCeiling, cfg.FeeFloor)
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts %d must be >= 1", cfg.MaxAttempts)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	fc := &fileConfig{}
	if err := yaml.Unmarshal(raw, fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if len(fc.RPCURLs) > 0 {
		c.RPCURLs = fc.RPCURLs
	}
	if fc.FeePercentile != nil {
		c.FeePercentile = *fc.FeePercentile
	}
	if fc.FeeFloor != nil {
		c.FeeFloor = *fc.FeeFloor
	}
	if fc.FeeCeiling != nil {
		c.FeeCeiling = *fc.FeeCeiling
	}
	if fc.FeeMultiplier != nil {
		c.FeeMultiplier = *fc.FeeMultiplier
	}
	if fc.MaxAttempts != nil {
		c.MaxAttempts = *fc.MaxAttempts
	}
	if fc.ComputeUnitLimit != nil {
		c.ComputeUnitLimit = *fc.ComputeUnitLimit
	}
	if fc.Log.Level != "" {
		c.Log.Level = fc.Log.Level
	}
	if fc.Log.Format != "" {
		c.Log.Format = fc.Log.Format
	}

	if err := fileDuration(fc.FeeTTL, "fee_ttl", &c.FeeTTL); err != nil {
		return err
	}
	if err := fileDuration(fc.ConfirmTimeout, "confirm_timeout", &c.ConfirmTimeout); err != nil {
		return err
	}
	if err := fileDuration(fc.PollInterval, "poll_interval", &c.PollInterval); err != nil {
		return err
	}

	if len(fc.FeeWatchlist) > 0 {
		watchlist, err := parseWatchlist(fc.FeeWatchlist)
		if err != nil {
			return fmt.Errorf("config file fee_watchlist: %w", err)
		}
		c.FeeWatchlist = watchlist
	}
	return nil
}

func fileDuration(raw *string, name string, dst *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("config file %s: %w", name, err)
	}
	*dst = d
	return nil
}

func (c *Config) applyEnv() error {
	if raw, ok := lookup("RPC_URLS"); ok {
		c.RPCURLs = splitList(raw)
	}
	if err := envInt("FEE_PERCENTILE", &c.FeePercentile); err != nil {
		return err
	}
	if err := envUint64("FEE_FLOOR", &c.FeeFloor); err != nil {
		return err
	}
	if err := envUint64("FEE_CEILING", &c.FeeCeiling); err != nil {
		return err
	}
	if err := envFloat("FEE_MULTIPLIER", &c.FeeMultiplier); err != nil {
		return err
	}
	if err := envDuration("FEE_TTL", &c.FeeTTL); err != nil {
		return err
	}
	if err := envDuration("CONFIRM_TIMEOUT", &c.ConfirmTimeout); err != nil {
		return err
	}
	if err := envDuration("POLL_INTERVAL", &c.PollInterval); err != nil {
		return err
	}
	if err := envInt("MAX_ATTEMPTS", &c.MaxAttempts); err != nil {
		return err
	}
	var cuLimit int
	if raw, ok := lookup("COMPUTE_UNIT_LIMIT"); ok {
		if err := parseInt(raw, "COMPUTE_UNIT_LIMIT", &cuLimit); err != nil {
			return err
		}
		c.ComputeUnitLimit = uint32(cuLimit)
	}
	if raw, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = raw
	}
	if raw, ok := lookup("LOG_FORMAT"); ok {
		c.Log.Format = raw
	}

	// JSON array of base58 addresses, e.g. '["CAMM...", "whir..."]'.
	if raw, ok := lookup("FEE_WATCHLIST"); ok {
		parsed := gjson.Parse(raw)
		if !parsed.IsArray() {
			return fmt.Errorf("%sFEE_WATCHLIST must be a JSON array", envPrefix)
		}
		var addresses []string
		for _, item := range parsed.Array() {
			addresses = append(addresses, item.String())
		}
		watchlist, err := parseWatchlist(addresses)
		if err != nil {
			return fmt.Errorf("%sFEE_WATCHLIST: %w", envPrefix, err)
		}
		c.FeeWatchlist = watchlist
	}
	return nil
}

func parseWatchlist(addresses []string) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(addresses))
	for _, raw := range addresses {
		key, err := solana.PublicKeyFromBase58(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", raw, err)
		}
		out = append(out, key)
	}
	return out, nil
}

func lookup(name string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + name)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(raw, name string, dst *int) error {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envInt(name string, dst *int) error {
	raw, ok := lookup(name)
	if !ok {
		return nil
	}
	return parseInt(raw, name, dst)
}

func envUint64(name string, dst *uint64) error {
	raw, ok := lookup(name)
	if !ok {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envFloat(name string, dst *float64) error {
	raw, ok := lookup(name)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	raw, ok := lookup(name)
	if !ok {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = v
	return nil
}
