package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// GatewayConfig describes the recurring-payment provider connection.
type GatewayConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"GATEWAY_BASE_URL"`
	ShopID         string `yaml:"shop_id" envconfig:"GATEWAY_SHOP_ID"`
	Secret         string `yaml:"secret" envconfig:"GATEWAY_SECRET"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"GATEWAY_TIMEOUT_SECONDS"`
	MaxRetries     int    `yaml:"max_retries" envconfig:"GATEWAY_MAX_RETRIES"`
	RetryBackoffMS int    `yaml:"retry_backoff_ms" envconfig:"GATEWAY_RETRY_BACKOFF_MS"`
}

// Timeout returns the per-request gateway timeout.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the base delay between gateway retry attempts.
func (g GatewayConfig) RetryBackoff() time.Duration {
	if g.RetryBackoffMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(g.RetryBackoffMS) * time.Millisecond
}

// AIConfig describes the generation backend the provider handlers call.
type AIConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"AI_BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"AI_API_KEY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"AI_TIMEOUT_SECONDS"`
	MaxRetries     int    `yaml:"max_retries" envconfig:"AI_MAX_RETRIES"`
}

// Timeout returns the per-request generation timeout.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// BillingConfig sets token costs per provider and ledger read-model limits.
type BillingConfig struct {
	Costs       map[string]int64 `yaml:"costs" envconfig:"BILLING_COSTS"`
	LastEntries int              `yaml:"last_entries" envconfig:"BILLING_LAST_ENTRIES"`
	// ReconcileIntervalSeconds drives the pending-payment poll loop.
	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds" envconfig:"BILLING_RECONCILE_INTERVAL_SECONDS"`
}

// ReconcileInterval returns the pending-payment poll period.
func (b BillingConfig) ReconcileInterval() time.Duration {
	if b.ReconcileIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(b.ReconcileIntervalSeconds) * time.Second
}

// CallbackConfig configures the HTTP listener for gateway status callbacks.
type CallbackConfig struct {
	Listen string `yaml:"listen" envconfig:"CALLBACK_LISTEN"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	AI        AIConfig        `yaml:"ai"`
	Billing   BillingConfig   `yaml:"billing"`
	Callback  CallbackConfig  `yaml:"callback"`
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

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.Gateway.BaseURL) != "" {
		if strings.TrimSpace(cfg.Gateway.ShopID) == "" {
			return fmt.Errorf("gateway.shop_id is required when gateway.base_url is set")
		}
		if strings.TrimSpace(cfg.Gateway.Secret) == "" {
			return fmt.Errorf("gateway.secret is required when gateway.base_url is set")
		}
		cfg.Gateway.BaseURL = strings.TrimRight(cfg.Gateway.BaseURL, "/")
	}
	if cfg.Gateway.MaxRetries < 0 {
		return fmt.Errorf("gateway.max_retries must be >= 0")
	}

	for provider, cost := range cfg.Billing.Costs {
		if cost <= 0 {
			return fmt.Errorf("billing.costs[%s] must be > 0", provider)
		}
	}
	if cfg.Billing.LastEntries <= 0 {
		cfg.Billing.LastEntries = 10
	}
	if cfg.Billing.ReconcileIntervalSeconds < 0 {
		return fmt.Errorf("billing.reconcile_interval_seconds must be >= 0")
	}

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
