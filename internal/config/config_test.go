package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 2.0, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, int64(65536), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "openai", cfg.Assistant.Provider)
	assert.Equal(t, 30, cfg.Assistant.TimeoutSecs)
	assert.InDelta(t, 0.4, cfg.Assistant.Temperature, 0.001)
	assert.Equal(t, "extractor", cfg.Assistant.LeadSource)
	assert.Equal(t, "signal_or_intent", cfg.Assistant.LeadGate)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "none", cfg.Relay.Kind)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "assistant.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "http://localhost:8080", cfg.Chat.ServerURL)
	assert.Equal(t, 30, cfg.Chat.TimeoutSecs)
	assert.Equal(t, 8, cfg.Guard.MinPhoneDigits)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.InDelta(t, 3.0, cfg.Notion.RateLimitRPS, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 9090
  allowed_origins: ["https://elevatedaiworks.com"]
assistant:
  provider: anthropic
  lead_source: capture
relay:
  kind: mailgun
guard:
  address_suffixes: [way, plaza]
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://elevatedaiworks.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "anthropic", cfg.Assistant.Provider)
	assert.Equal(t, "capture", cfg.Assistant.LeadSource)
	assert.Equal(t, "mailgun", cfg.Relay.Kind)
	assert.Equal(t, []string{"way", "plaza"}, cfg.Guard.AddressSuffixes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Assistant.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ASSISTANT_STORE_DRIVER", "postgres")
	t.Setenv("ASSISTANT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvSecrets(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ASSISTANT_OPENAI_KEY", "sk-test")
	t.Setenv("ASSISTANT_RELAY_FORM_URL", "https://forms.example.com/f/abc")
	t.Setenv("ASSISTANT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.Key)
	assert.Equal(t, "sk-test", cfg.ProviderKey())
	assert.Equal(t, "https://forms.example.com/f/abc", cfg.Relay.FormURL)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ASSISTANT_ANTHROPIC_KEY=sk-ant-dotenv\n"), 0644))
	t.Setenv("ASSISTANT_ANTHROPIC_KEY", "")
	os.Unsetenv("ASSISTANT_ANTHROPIC_KEY")

	require.NoError(t, LoadDotEnv(".env"))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-dotenv", cfg.Anthropic.Key)
}

func TestLoadDotEnv_Missing(t *testing.T) {
	chdirTemp(t)
	assert.NoError(t, LoadDotEnv(".env"))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	err := InitLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	zap.L().Info("file sink check")
	_ = zap.L().Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "file sink check")
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Assistant.Provider = "openai"
	cfg.Assistant.TimeoutSecs = 30
	cfg.Assistant.LeadSource = "extractor"
	cfg.Assistant.LeadGate = "signal_or_intent"
	cfg.Relay.Kind = "none"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "assistant.db"
	cfg.Chat.ServerURL = "http://localhost:8080"
	cfg.Chat.SessionDB = "session.db"
	cfg.Chat.TimeoutSecs = 30
	return cfg
}

func TestValidateServe_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_MissingProviderKeyAllowed(t *testing.T) {
	cfg := validDefaults()
	cfg.OpenAI.Key = ""
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_Enums(t *testing.T) {
	cfg := validDefaults()
	cfg.Assistant.Provider = "llama"
	cfg.Assistant.LeadSource = "telepathy"
	cfg.Assistant.LeadGate = "always"
	cfg.Relay.Kind = "fax"
	cfg.Store.Driver = "mongo"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assistant.provider must be one of")
	assert.Contains(t, err.Error(), "assistant.lead_source must be one of")
	assert.Contains(t, err.Error(), "assistant.lead_gate must be one of")
	assert.Contains(t, err.Error(), "relay.kind must be one of")
	assert.Contains(t, err.Error(), "store.driver must be one of")
}

func TestValidateServe_RelayFields(t *testing.T) {
	tests := []struct {
		kind string
		want []string
	}{
		{"form", []string{"relay.form_url is required"}},
		{"notion", []string{"notion.token is required", "notion.lead_db is required"}},
		{"salesforce", []string{"salesforce.client_id is required", "salesforce.username is required", "salesforce.key_path is required"}},
		{"mailgun", []string{"mailgun.domain is required", "mailgun.api_key is required", "mailgun.from is required", "mailgun.to is required"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Relay.Kind = tt.kind
			err := cfg.Validate("serve")
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestValidateServe_FormRelayPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Relay.Kind = "form"
	cfg.Relay.FormURL = "https://forms.example.com/f/abc"
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateChat(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("chat"))

	cfg.Chat.ServerURL = ""
	cfg.Chat.TimeoutSecs = 0
	err := cfg.Validate("chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.server_url is required")
	assert.Contains(t, err.Error(), "chat.timeout_secs must be > 0")
}

func TestValidateLeads(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("leads"))

	cfg.Store.Driver = "none"
	err := cfg.Validate("leads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must not be none")

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err = cfg.Validate("leads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestProviderKey(t *testing.T) {
	cfg := validDefaults()
	cfg.OpenAI.Key = "sk-openai"
	cfg.Anthropic.Key = "sk-ant"
	assert.Equal(t, "sk-openai", cfg.ProviderKey())
	cfg.Assistant.Provider = "anthropic"
	assert.Equal(t, "sk-ant", cfg.ProviderKey())
}
