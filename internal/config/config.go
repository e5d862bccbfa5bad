// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string  `yaml:"token"`
	Mode        string  `yaml:"mode"` // polling | webhook
	Username    string  `yaml:"username"`
	Workers     int     `yaml:"workers"` // update workers
	AdminIDs    []int64 `yaml:"admin_ids"`
	WebhookURL  string  `yaml:"webhook_url"` // public base URL, e.g. https://bot.example.com
	WebhookPath string  `yaml:"webhook_path"`
	RateLimit   int     `yaml:"rate_limit"` // requests per user per minute, 0 disables
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port        int    `yaml:"port"`
	AdminAPIKey string `yaml:"admin_api_key"`
	JWTSecret   string `yaml:"jwt_secret"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"` // jsonfile | sqlite | postgres
	Dir        string `yaml:"dir"`    // jsonfile directory
	SQLitePath string `yaml:"sqlite_path"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables redis
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebAppConfig struct {
	URL        string        `yaml:"url"`
	SigningKey string        `yaml:"signing_key"`
	Timeout    time.Duration `yaml:"timeout"`
	Workers    int           `yaml:"workers"`
}

type RewardsConfig struct {
	WelcomeBonus   int64    `yaml:"welcome_bonus"`
	ReferralBonus  int64    `yaml:"referral_bonus"`
	DailyBonus     int64    `yaml:"daily_bonus"`
	OneTimeBonus   int64    `yaml:"one_time_bonus"`
	OneTimeChannel string   `yaml:"one_time_channel"`
	FollowLinks    []string `yaml:"follow_links"`
	Currency       string   `yaml:"currency"`
}

type LedgerConfig struct {
	Timezone      string        `yaml:"timezone"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	StateTTL      time.Duration `yaml:"state_ttl"`
}

type SchedulerConfig struct {
	ResyncCron string `yaml:"resync_cron"` // empty disables the periodic web-app resync
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	WebApp    WebAppConfig    `yaml:"webapp"`
	Rewards   RewardsConfig   `yaml:"rewards"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies env overrides (a .env file is
// loaded first when present), fills defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployments are allowed
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Validate performs the minimal checks needed to start the bot.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	switch c.Bot.Mode {
	case "polling":
	case "webhook":
		if c.Bot.WebhookURL == "" {
			return errors.New("bot.webhook_url is required in webhook mode")
		}
	default:
		return fmt.Errorf("bot.mode %q is not supported", c.Bot.Mode)
	}
	switch c.Storage.Driver {
	case "jsonfile", "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("ledger.timezone: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Bot.WebhookURL = v
	}
	if v := os.Getenv("WEB_APP_URL"); v != "" {
		cfg.WebApp.URL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
}

func applyDefaults(cfg *Config) {
	cfg.Bot.Mode = strings.ToLower(strings.TrimSpace(cfg.Bot.Mode))
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/api/webhook"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "jsonfile"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = os.TempDir()
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "reward-bot.db"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.WebApp.Timeout <= 0 {
		cfg.WebApp.Timeout = 5 * time.Second
	}
	if cfg.WebApp.Workers <= 0 {
		cfg.WebApp.Workers = 4
	}

	if cfg.Rewards.WelcomeBonus == 0 {
		cfg.Rewards.WelcomeBonus = 10000
	}
	if cfg.Rewards.ReferralBonus == 0 {
		cfg.Rewards.ReferralBonus = 2000
	}
	if cfg.Rewards.DailyBonus == 0 {
		cfg.Rewards.DailyBonus = 1000
	}
	if cfg.Rewards.OneTimeBonus == 0 {
		cfg.Rewards.OneTimeBonus = 2000
	}
	if cfg.Rewards.OneTimeChannel == "" {
		cfg.Rewards.OneTimeChannel = "@varieti02"
	}
	if cfg.Rewards.Currency == "" {
		cfg.Rewards.Currency = "VAR"
	}

	if cfg.Ledger.Timezone == "" {
		cfg.Ledger.Timezone = "UTC"
	}
	if cfg.Ledger.OracleTimeout <= 0 {
		cfg.Ledger.OracleTimeout = 3 * time.Second
	}
	if cfg.Ledger.LockTTL <= 0 {
		cfg.Ledger.LockTTL = 10 * time.Second
	}
	if cfg.Ledger.StateTTL <= 0 {
		cfg.Ledger.StateTTL = 15 * time.Minute
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

// Location returns the time zone used to decide calendar days for daily claims.
func (c *LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
