// Package config はアプリケーション全体の設定を環境変数から読み込みます。
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"fxchart_bot/internal/platform/externalapi/urlbox"
)

// Bot modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Bot struct {
	Mode          string `envconfig:"MODE" default:"polling"`
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
}

type Redis struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD"`
}

// Enabled reports whether a Redis host is configured.
func (r Redis) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port.
func (r Redis) Addr() string {
	return r.Host + ":" + r.Port
}

type DB struct {
	Driver string `envconfig:"DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DSN" default:"fxchart_bot.db"`
}

type Throttle struct {
	Limit  int           `envconfig:"LIMIT" default:"5"`
	Window time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
}

// App は全設定をまとめた構造体です。
type App struct {
	TelegramToken   string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	Bot             Bot           `envconfig:"BOT"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	URLBox          urlbox.Config `envconfig:"URLBOX"`
	Redis           Redis         `envconfig:"REDIS"`
	DB              DB            `envconfig:"DB"`
	RunMigrations   bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	Throttle        Throttle      `envconfig:"THROTTLE"`
	RenderRateLimit int           `envconfig:"RENDER_RATE_LIMIT" default:"30"` // renders per minute, 0 disables pacing
	OCREnabled      bool          `envconfig:"OCR_ENABLED" default:"false"`
	Log             Log           `envconfig:"LOG"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
}

// Load は .env ファイル（存在する場合）を読み込み、環境変数からAppを構築します。
// envFilePath を指定した場合は最初に読み込めたファイルを使います。
func Load(envFilePath ...string) (*App, error) {
	loaded := false
	for _, path := range envFilePath {
		if err := godotenv.Load(path); err != nil {
			slog.Debug("environment file not loaded", "path", path, "error", err)
			continue
		}
		loaded = true
		break
	}
	if !loaded {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found in current directory")
		}
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("app config loaded",
		"bot_mode", cfg.Bot.Mode,
		"http_addr", cfg.HTTPAddr,
		"telegram_token", maskValue(cfg.TelegramToken),
		"urlbox_api_key", maskValue(cfg.URLBox.APIKey),
		"redis_enabled", cfg.Redis.Enabled(),
		"db_driver", cfg.DB.Driver,
		"throttle_limit", cfg.Throttle.Limit,
		"throttle_window", cfg.Throttle.Window,
		"ocr_enabled", cfg.OCREnabled,
	)
	return &cfg, nil
}

// Validate は設定値の組み合わせを検証します。
func (a *App) Validate() error {
	switch a.Bot.Mode {
	case ModePolling:
	case ModeWebhook:
		if a.Bot.WebhookURL == "" {
			return fmt.Errorf("BOT_WEBHOOK_URL is required when BOT_MODE=%s", ModeWebhook)
		}
	default:
		return fmt.Errorf("unsupported BOT_MODE %q (want %s or %s)", a.Bot.Mode, ModePolling, ModeWebhook)
	}
	switch a.DB.Driver {
	case "sqlite", "postgres", "":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", a.DB.Driver)
	}
	if a.Throttle.Limit < 0 || a.RenderRateLimit < 0 {
		return fmt.Errorf("THROTTLE_LIMIT and RENDER_RATE_LIMIT must not be negative")
	}
	return nil
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
