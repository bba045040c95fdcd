package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CURVEBOT_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CURVEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Venue ──
	setStr(&cfg.Venue.APIHost, "CURVEBOT_VENUE_API_HOST")
	setStr(&cfg.Venue.WsHost, "CURVEBOT_VENUE_WS_HOST")
	setStr(&cfg.Venue.APIKey, "CURVEBOT_VENUE_API_KEY")
	setFloat64(&cfg.Venue.PaperBalance, "CURVEBOT_VENUE_PAPER_BALANCE")

	// ── Risk ──
	setFloat64(&cfg.Risk.MinScore, "CURVEBOT_RISK_MIN_SCORE")
	setInt(&cfg.Risk.MaxPositions, "CURVEBOT_RISK_MAX_POSITIONS")
	setFloat64(&cfg.Risk.MinLiquidity, "CURVEBOT_RISK_MIN_LIQUIDITY")
	setFloat64(&cfg.Risk.MaxAllocationFraction, "CURVEBOT_RISK_MAX_ALLOCATION_FRACTION")
	setFloat64(&cfg.Risk.MinTradeAmount, "CURVEBOT_RISK_MIN_TRADE_AMOUNT")
	setFloat64(&cfg.Risk.StopLossFraction, "CURVEBOT_RISK_STOP_LOSS_FRACTION")
	setFloat64(&cfg.Risk.TakeProfitFraction, "CURVEBOT_RISK_TAKE_PROFIT_FRACTION")
	setDuration(&cfg.Risk.MaxHoldDuration, "CURVEBOT_RISK_MAX_HOLD_DURATION")
	setFloat64(&cfg.Risk.WalletDrawdownHaltFraction, "CURVEBOT_RISK_WALLET_DRAWDOWN_HALT_FRACTION")

	// ── Safety ──
	setStringSlice(&cfg.Safety.Denylist, "CURVEBOT_SAFETY_DENYLIST")
	setDuration(&cfg.Safety.CreatorCooldown, "CURVEBOT_SAFETY_CREATOR_COOLDOWN")
	setInt(&cfg.Safety.CreatorEntryLimit, "CURVEBOT_SAFETY_CREATOR_ENTRY_LIMIT")
	setStringSlice(&cfg.Safety.SuspiciousCreators, "CURVEBOT_SAFETY_SUSPICIOUS_CREATORS")

	// ── Monitor ──
	setDuration(&cfg.Monitor.Interval, "CURVEBOT_MONITOR_INTERVAL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CURVEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CURVEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CURVEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CURVEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CURVEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CURVEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CURVEBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CURVEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CURVEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CURVEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CURVEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CURVEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CURVEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CURVEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CURVEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CURVEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "CURVEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CURVEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "CURVEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CURVEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CURVEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CURVEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CURVEBOT_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "CURVEBOT_S3_RETENTION_DAYS")
	setDuration(&cfg.S3.Interval, "CURVEBOT_S3_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CURVEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CURVEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CURVEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CURVEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CURVEBOT_MODE")
	setStr(&cfg.LogLevel, "CURVEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
