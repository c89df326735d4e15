package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Payment bot specifics
	Telegram TelegramConfig
	OpenAI   OpenAIConfig
	XRPL     XRPLConfig
	Wallet   WalletConfig
	Session  SessionConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type TelegramConfig struct {
	BotToken        string
	WebhookURL      string
	RateLimitPerMin int
}

type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	Timeout            time.Duration
}

type XRPLConfig struct {
	RPCURL         string
	FaucetURL      string
	SubmitTimeout  time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

type WalletConfig struct {
	DBPath string
}

type SessionConfig struct {
	AbandonAfter  time.Duration
	SweepInterval time.Duration
}

// Load loads configuration using Viper.
// Config file name: config.yaml — searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Telegram
	cfg.Telegram.BotToken = viper.GetString("telegram.bot_token")
	cfg.Telegram.WebhookURL = viper.GetString("telegram.webhook_url")
	cfg.Telegram.RateLimitPerMin = viper.GetInt("telegram.rate_limit_per_min")
	if tgToken := viper.GetString("telegram_bot_token"); tgToken != "" {
		cfg.Telegram.BotToken = tgToken
	}

	// OpenAI
	cfg.OpenAI.APIKey = viper.GetString("openai.api_key")
	cfg.OpenAI.BaseURL = viper.GetString("openai.base_url")
	cfg.OpenAI.Model = viper.GetString("openai.model")
	cfg.OpenAI.TranscriptionModel = viper.GetString("openai.transcription_model")
	cfg.OpenAI.Timeout = viper.GetDuration("openai.timeout")
	if openaiKey := viper.GetString("openai_api_key"); openaiKey != "" {
		cfg.OpenAI.APIKey = openaiKey
	}

	// XRPL
	cfg.XRPL.RPCURL = viper.GetString("xrpl.rpc_url")
	cfg.XRPL.FaucetURL = viper.GetString("xrpl.faucet_url")
	cfg.XRPL.SubmitTimeout = viper.GetDuration("xrpl.submit_timeout")
	cfg.XRPL.RetryAttempts = viper.GetInt("xrpl.retry_attempts")
	cfg.XRPL.RetryBaseDelay = viper.GetDuration("xrpl.retry_base_delay")

	// Wallet storage
	cfg.Wallet.DBPath = viper.GetString("wallet.db_path")
	if dbPath := viper.GetString("wallet_db_path"); dbPath != "" {
		cfg.Wallet.DBPath = dbPath
	}

	// Sessions
	cfg.Session.AbandonAfter = viper.GetDuration("session.abandon_after")
	cfg.Session.SweepInterval = viper.GetDuration("session.sweep_interval")

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("telegram.rate_limit_per_min", 60)

	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.transcription_model", "whisper-1")
	viper.SetDefault("openai.timeout", "30s")

	viper.SetDefault("xrpl.rpc_url", "https://s.altnet.rippletest.net:51234")
	viper.SetDefault("xrpl.faucet_url", "https://faucet.altnet.rippletest.net/accounts")
	viper.SetDefault("xrpl.submit_timeout", "15s")
	viper.SetDefault("xrpl.retry_attempts", 3)
	viper.SetDefault("xrpl.retry_base_delay", "500ms")

	viper.SetDefault("wallet.db_path", "wallets.db")

	viper.SetDefault("session.abandon_after", "10m")
	viper.SetDefault("session.sweep_interval", "1m")
}
