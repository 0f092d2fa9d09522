package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Assistant  AssistantConfig  `yaml:"assistant" mapstructure:"assistant"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Relay      RelayConfig      `yaml:"relay" mapstructure:"relay"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Mailgun    MailgunConfig    `yaml:"mailgun" mapstructure:"mailgun"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Chat       ChatConfig       `yaml:"chat" mapstructure:"chat"`
	Guard      GuardConfig      `yaml:"guard" mapstructure:"guard"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP proxy.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS        float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst      int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	MaxBodyBytes        int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	// Debug surfaces upstream and relay error text in responses.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// AssistantConfig configures the assistant proxy.
type AssistantConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxHistory       int     `yaml:"max_history" mapstructure:"max_history"`
	LeadSource       string  `yaml:"lead_source" mapstructure:"lead_source"`
	LeadGate         string  `yaml:"lead_gate" mapstructure:"lead_gate"`
	BreakerFailures  int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// OpenAIConfig configures the chat-completions provider.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RelayConfig selects and configures the lead sink.
type RelayConfig struct {
	Kind        string `yaml:"kind" mapstructure:"kind"`
	FormURL     string `yaml:"form_url" mapstructure:"form_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NotionConfig configures the Notion lead sink.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
	// RateLimitRPS throttles page creation; 0 disables it.
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// SalesforceConfig configures the Salesforce lead sink.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// MailgunConfig configures the email lead sink.
type MailgunConfig struct {
	Domain  string `yaml:"domain" mapstructure:"domain"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	From    string `yaml:"from" mapstructure:"from"`
	To      string `yaml:"to" mapstructure:"to"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures lead storage.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ChatConfig configures the terminal chat client.
type ChatConfig struct {
	ServerURL   string `yaml:"server_url" mapstructure:"server_url"`
	SessionDB   string `yaml:"session_db" mapstructure:"session_db"`
	PageURL     string `yaml:"page_url" mapstructure:"page_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GuardConfig tunes the loose personal-info and exact-price heuristics.
type GuardConfig struct {
	MinPhoneDigits     int      `yaml:"min_phone_digits" mapstructure:"min_phone_digits"`
	AddressSuffixes    []string `yaml:"address_suffixes" mapstructure:"address_suffixes"`
	ExactPriceKeywords []string `yaml:"exact_price_keywords" mapstructure:"exact_price_keywords"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// LoadDotEnv loads KEY=value pairs from path into the environment. Variables
// already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: load %s", path)
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to "" so AutomaticEnv can fill them.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 2.0)
	v.SetDefault("server.rate_limit_burst", 5)
	v.SetDefault("server.max_body_bytes", 64*1024)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.debug", false)
	v.SetDefault("assistant.provider", "openai")
	v.SetDefault("assistant.timeout_secs", 30)
	v.SetDefault("assistant.temperature", 0.4)
	v.SetDefault("assistant.max_tokens", 600)
	v.SetDefault("assistant.max_history", 40)
	v.SetDefault("assistant.lead_source", "extractor")
	v.SetDefault("assistant.lead_gate", "signal_or_intent")
	v.SetDefault("assistant.breaker_failures", 5)
	v.SetDefault("assistant.breaker_reset_secs", 30)
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("relay.kind", "none")
	v.SetDefault("relay.form_url", "")
	v.SetDefault("relay.timeout_secs", 10)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("notion.rate_limit_rps", 3.0)
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("mailgun.domain", "")
	v.SetDefault("mailgun.api_key", "")
	v.SetDefault("mailgun.from", "")
	v.SetDefault("mailgun.to", "")
	v.SetDefault("mailgun.base_url", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "assistant.db")
	v.SetDefault("store.max_conns", 5)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("chat.server_url", "http://localhost:8080")
	v.SetDefault("chat.session_db", "assistant-session.db")
	v.SetDefault("chat.page_url", "")
	v.SetDefault("chat.timeout_secs", 30)
	v.SetDefault("guard.min_phone_digits", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var (
	validProviders   = []string{"openai", "anthropic"}
	validLeadSources = []string{"extractor", "capture", "none"}
	validLeadGates   = []string{"email_only", "email_and_intent", "signal_or_intent"}
	validRelayKinds  = []string{"none", "form", "notion", "salesforce", "mailgun"}
	validDrivers     = []string{"sqlite", "postgres", "none"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks the settings a command needs. Mode is "serve", "chat" or
// "leads". A missing provider key is allowed for serve: the proxy then
// answers every chat request as unavailable.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
		if c.Server.RateLimitRPS < 0 {
			add("server.rate_limit_rps must be >= 0")
		}
		if c.Assistant.TimeoutSecs <= 0 {
			add("assistant.timeout_secs must be > 0")
		}
		if !oneOf(c.Assistant.Provider, validProviders) {
			add("assistant.provider must be one of %v", validProviders)
		}
		if !oneOf(c.Assistant.LeadSource, validLeadSources) {
			add("assistant.lead_source must be one of %v", validLeadSources)
		}
		if !oneOf(c.Assistant.LeadGate, validLeadGates) {
			add("assistant.lead_gate must be one of %v", validLeadGates)
		}
		c.validateRelay(add)
		c.validateStore(add)
	case "chat":
		if c.Chat.ServerURL == "" {
			add("chat.server_url is required")
		}
		if c.Chat.SessionDB == "" {
			add("chat.session_db is required")
		}
		if c.Chat.TimeoutSecs <= 0 {
			add("chat.timeout_secs must be > 0")
		}
	case "leads":
		c.validateStore(add)
		if c.Store.Driver == "none" {
			add("store.driver must not be none")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateRelay(add func(string, ...any)) {
	switch c.Relay.Kind {
	case "none":
	case "form":
		if c.Relay.FormURL == "" {
			add("relay.form_url is required")
		}
	case "notion":
		if c.Notion.Token == "" {
			add("notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			add("notion.lead_db is required")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			add("salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			add("salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			add("salesforce.key_path is required")
		}
	case "mailgun":
		if c.Mailgun.Domain == "" {
			add("mailgun.domain is required")
		}
		if c.Mailgun.APIKey == "" {
			add("mailgun.api_key is required")
		}
		if c.Mailgun.From == "" {
			add("mailgun.from is required")
		}
		if c.Mailgun.To == "" {
			add("mailgun.to is required")
		}
	default:
		add("relay.kind must be one of %v", validRelayKinds)
	}
}

func (c *Config) validateStore(add func(string, ...any)) {
	if !oneOf(c.Store.Driver, validDrivers) {
		add("store.driver must be one of %v", validDrivers)
		return
	}
	if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}
}

// ProviderKey returns the credential for the configured provider.
func (c *Config) ProviderKey() string {
	if c.Assistant.Provider == "anthropic" {
		return c.Anthropic.Key
	}
	return c.OpenAI.Key
}

// InitLogger initializes the global zap logger. When cfg.File is set, log
// lines are also written to a size-rotated file.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	var opts []zap.Option
	if cfg.File != "" {
		file := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}),
			zapCfg.Level,
		)
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, file)
		}))
	}

	logger, err := zapCfg.Build(opts...)
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
