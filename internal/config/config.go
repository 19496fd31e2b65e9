// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"` // per-order verify lock TTL
}

type WebConfig struct {
	Port         int           `yaml:"port"`
	JWTSecret    string        `yaml:"jwt_secret"`
	CookieDomain string        `yaml:"cookie_domain"`
	SecureCookie bool          `yaml:"secure_cookie"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type GatewayConfig struct {
	PayOS struct {
		ClientID    string `yaml:"client_id"`
		APIKey      string `yaml:"api_key"`
		ChecksumKey string `yaml:"checksum_key"`
		BaseURL     string `yaml:"base_url"`
		ReturnURL   string `yaml:"return_url"`
		CancelURL   string `yaml:"cancel_url"`
	} `yaml:"payos"`
}

type WalletConfig struct {
	DailyWithdrawLimit int64 `yaml:"daily_withdraw_limit"` // smallest currency unit; 0 = unlimited
}

type PremiumConfig struct {
	Price        int64         `yaml:"price"`          // smallest currency unit
	Interval     time.Duration `yaml:"interval"`       // subscription validity window
	RenewLead    time.Duration `yaml:"renew_lead"`     // charge this long before end date
	ExpiryCron   string        `yaml:"expiry_cron"`    // sweep schedule
	WithdrawCron string        `yaml:"withdraw_cron"`  // daily withdrawal-counter reset
	RenewalPoll  time.Duration `yaml:"renewal_poll"`   // due-index poll interval
	RenewWorkers int           `yaml:"renew_workers"`  // concurrent renewal charges
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Web        WebConfig        `yaml:"web"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Wallet     WalletConfig     `yaml:"wallet"`
	Premium    PremiumConfig    `yaml:"premium"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 24 * time.Hour
	}
	if cfg.Premium.Price <= 0 {
		cfg.Premium.Price = 45000
	}
	if cfg.Premium.Interval <= 0 {
		cfg.Premium.Interval = 30 * 24 * time.Hour
	}
	if cfg.Premium.RenewLead <= 0 {
		cfg.Premium.RenewLead = time.Hour
	}
	if cfg.Premium.ExpiryCron == "" {
		cfg.Premium.ExpiryCron = "0 * * * *"
	}
	if cfg.Premium.WithdrawCron == "" {
		cfg.Premium.WithdrawCron = "0 0 * * *"
	}
	if cfg.Premium.RenewalPoll <= 0 {
		cfg.Premium.RenewalPoll = time.Minute
	}
	if cfg.Premium.RenewWorkers <= 0 {
		cfg.Premium.RenewWorkers = 4
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	// Dev mode runs against the in-memory gateway instead of PayOS.
	if !dev && (cfg.Gateway.PayOS.ClientID == "" || cfg.Gateway.PayOS.APIKey == "") {
		return nil, errors.New("gateway.payos.client_id and gateway.payos.api_key are required")
	}
	if cfg.Web.JWTSecret == "" && !dev {
		return nil, errors.New("web.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
