// Package config defines the top-level configuration for curvebot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by CURVEBOT_* environment
// variables.
type Config struct {
	Venue    VenueConfig    `toml:"venue"`
	Risk     RiskConfig     `toml:"risk"`
	Safety   SafetyConfig   `toml:"safety"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// VenueConfig holds the bonding-curve venue endpoints and credentials.
// PaperBalance is the simulated starting balance used in paper mode.
type VenueConfig struct {
	APIHost      string  `toml:"api_host"`
	WsHost       string  `toml:"ws_host"`
	APIKey       string  `toml:"api_key"`
	PaperBalance float64 `toml:"paper_balance"`
}

// RiskConfig holds the trading risk policy parameters.
type RiskConfig struct {
	MinScore                   float64  `toml:"min_score"`
	MaxPositions               int      `toml:"max_positions"`
	MinLiquidity               float64  `toml:"min_liquidity"`
	MaxAllocationFraction      float64  `toml:"max_allocation_fraction"`
	MinTradeAmount             float64  `toml:"min_trade_amount"`
	StopLossFraction           float64  `toml:"stop_loss_fraction"`
	TakeProfitFraction         float64  `toml:"take_profit_fraction"`
	MaxHoldDuration            duration `toml:"max_hold_duration"`
	WalletDrawdownHaltFraction float64  `toml:"wallet_drawdown_halt_fraction"`
}

// Policy converts the config section into the immutable domain policy.
func (r RiskConfig) Policy() domain.RiskPolicy {
	return domain.RiskPolicy{
		MinScore:                   r.MinScore,
		MaxPositions:               r.MaxPositions,
		MinLiquidity:               r.MinLiquidity,
		MaxAllocationFraction:      r.MaxAllocationFraction,
		MinTradeAmount:             r.MinTradeAmount,
		StopLossFraction:           r.StopLossFraction,
		TakeProfitFraction:         r.TakeProfitFraction,
		MaxHoldDuration:            r.MaxHoldDuration.Duration,
		WalletDrawdownHaltFraction: r.WalletDrawdownHaltFraction,
	}
}

// SafetyConfig holds pre-trade safety gate parameters.
type SafetyConfig struct {
	Denylist           []string `toml:"denylist"`
	CreatorCooldown    duration `toml:"creator_cooldown"`
	CreatorEntryLimit  int      `toml:"creator_entry_limit"`
	SuspiciousCreators []string `toml:"suspicious_creators"`
}

// MonitorConfig holds monitoring loop parameters.
type MonitorConfig struct {
	Interval duration `toml:"interval"`
}

// PostgresConfig holds PostgreSQL connection parameters for the
// closed-trade journal. Leave Host empty to run without persistence.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether a journal connection should be attempted.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.DSN) != "" || strings.TrimSpace(p.Host) != ""
}

// RedisConfig holds Redis connection parameters. Leave Addr empty to run
// without the price cache and rate limiter.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// Enabled reports whether a Redis connection should be attempted.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// S3Config holds S3-compatible object storage parameters for the trade
// archive. Leave Bucket empty to disable archiving.
type S3Config struct {
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	RetentionDays  int      `toml:"retention_days"`
	Interval       duration `toml:"interval"`
}

// Enabled reports whether archiving should run.
func (s S3Config) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Venue: VenueConfig{
			APIHost:      "https://frontend-api.pump.fun",
			WsHost:       "wss://frontend-api.pump.fun/socket",
			PaperBalance: 10,
		},
		Risk: RiskConfig{
			MinScore:                   70,
			MaxPositions:               5,
			MinLiquidity:               1000,
			MaxAllocationFraction:      0.1,
			MinTradeAmount:             0.01,
			StopLossFraction:           0.15,
			TakeProfitFraction:         0.30,
			MaxHoldDuration:            duration{24 * time.Hour},
			WalletDrawdownHaltFraction: 0.20,
		},
		Safety: SafetyConfig{
			Denylist:          []string{"scam", "rug", "fake", "steal", "ponzi"},
			CreatorCooldown:   duration{10 * time.Minute},
			CreatorEntryLimit: 1,
		},
		Monitor: MonitorConfig{
			Interval: duration{30 * time.Second},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "curvebot",
			User:          "curvebot",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:         "us-east-1",
			UseSSL:         true,
			ForcePathStyle: true,
			RetentionDays:  30,
			Interval:       duration{24 * time.Hour},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// Validate checks the configuration for errors that would prevent startup.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "trade", "paper", "monitor":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if err := c.Risk.Policy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("config: monitor.interval must be positive")
	}
	if c.Venue.APIHost == "" {
		return fmt.Errorf("config: venue.api_host is required")
	}
	if c.Venue.WsHost == "" {
		return fmt.Errorf("config: venue.ws_host is required")
	}
	if strings.ToLower(c.Mode) == "paper" && c.Venue.PaperBalance <= 0 {
		return fmt.Errorf("config: venue.paper_balance must be positive in paper mode")
	}
	if c.S3.Enabled() {
		if !c.Postgres.Enabled() {
			return fmt.Errorf("config: s3 archiving requires postgres journal")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("config: s3.region is required when s3.bucket is set")
		}
		if c.S3.RetentionDays <= 0 {
			return fmt.Errorf("config: s3.retention_days must be positive")
		}
	}
	return nil
}
