package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API 及外部相依的執行設定。
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	DB         DBConfig         `yaml:"db"`
	Auth       AuthConfig       `yaml:"auth"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Chart      ChartConfig      `yaml:"chart"`
	Alerts     AlertsConfig     `yaml:"alerts"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	Secret        string        `yaml:"secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUser     string        `yaml:"admin_user"`
	AdminPassword string        `yaml:"admin_password"`
}

type TelegramConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type MarketDataConfig struct {
	LiteFinanceURL string        `yaml:"litefinance_url"`
	TwelveDataURL  string        `yaml:"twelvedata_url"`
	APIKeys        []string      `yaml:"api_keys"`
	RotateEvery    time.Duration `yaml:"rotate_every"`
	BlockFor       time.Duration `yaml:"block_for"`
	Timeout        time.Duration `yaml:"timeout"`
}

type ChartConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	Outputsize int           `yaml:"outputsize"`
}

type AlertsConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
	Concurrency   int           `yaml:"concurrency"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.AdminUser == "" {
		cfg.Auth.AdminUser = "admin"
	}
	if cfg.MarketData.RotateEvery == 0 {
		cfg.MarketData.RotateEvery = 6 * time.Hour
	}
	if cfg.MarketData.BlockFor == 0 {
		cfg.MarketData.BlockFor = 24 * time.Hour
	}
	if cfg.MarketData.Timeout == 0 {
		cfg.MarketData.Timeout = 15 * time.Second
	}
	if cfg.Chart.Timeout == 0 {
		cfg.Chart.Timeout = 20 * time.Second
	}
	if cfg.Chart.Outputsize == 0 {
		cfg.Chart.Outputsize = 100
	}
	if cfg.Alerts.CheckInterval == 0 {
		cfg.Alerts.CheckInterval = 30 * time.Second
	}
	if cfg.Alerts.Concurrency == 0 {
		cfg.Alerts.Concurrency = 4
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("ADMIN_PASSWORD"); val != "" {
		cfg.Auth.AdminPassword = val
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Telegram.Token = val
	}
	if val := os.Getenv("TD_API_KEYS"); val != "" {
		cfg.MarketData.APIKeys = splitKeys(val)
	}
	if val := os.Getenv("CHART_URL"); val != "" {
		cfg.Chart.BaseURL = val
	}
	if val := os.Getenv("CHECK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Alerts.CheckInterval = d
		}
	}
	return cfg
}

func splitKeys(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
