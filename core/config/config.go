package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/telestar/shopbot/core/database"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// SecretToken is forwarded to setWebhook and verified on every delivery.
	SecretToken string `yaml:"secret_token" envconfig:"TELEGRAM_SECRET_TOKEN"`
}

// WebhookConfig specifies webhook listener settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Dir     string `yaml:"dir"`
	BotFile string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// ShopConfig holds storefront behaviour settings.
type ShopConfig struct {
	// ButtonRowSize controls how many inline buttons are packed per keyboard row.
	ButtonRowSize int `yaml:"button_row_size" envconfig:"SHOP_BUTTON_ROW_SIZE"`
	// PayURL is the payment page base; the order id is appended as a query parameter.
	PayURL string `yaml:"pay_url" envconfig:"SHOP_PAY_URL"`
	// OTPCode is the fixed verification code accepted by the stub verifier,
	// pending a real SMS provider integration.
	OTPCode string `yaml:"otp_code" envconfig:"SHOP_OTP_CODE"`
}

// Config aggregates the full application configuration.
type Config struct {
	Telegram TelegramConfig      `yaml:"telegram"`
	Webhook  WebhookConfig       `yaml:"webhook"`
	Database coredatabase.Config `yaml:"database"`
	Logging  LoggingConfig       `yaml:"logging"`
	Shop     ShopConfig          `yaml:"shop"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if strings.TrimSpace(cfg.Webhook.URL) == "" {
		return fmt.Errorf("webhook.url is required")
	}
	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		cfg.Webhook.Listen = "0.0.0.0"
	}
	if cfg.Webhook.Port <= 0 {
		return fmt.Errorf("webhook.port must be > 0")
	}

	if cfg.Shop.ButtonRowSize <= 0 {
		cfg.Shop.ButtonRowSize = 1
	}
	if cfg.Shop.OTPCode == "" {
		cfg.Shop.OTPCode = "1111"
	}
	if strings.TrimSpace(cfg.Shop.PayURL) == "" {
		return fmt.Errorf("shop.pay_url is required")
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}
	return nil
}
