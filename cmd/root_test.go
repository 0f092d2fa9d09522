package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/conversation"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/widget"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "chat", "classify", "extract", "leads"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "assistant", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("env-file"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestChatCommand_Flags(t *testing.T) {
	for _, name := range []string{"session", "server", "page-url", "relay", "offline"} {
		assert.NotNil(t, chatCmd.Flags().Lookup(name), "chat should have --%s flag", name)
	}
}

func TestLeadsCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range leadsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["migrate"])

	flag := leadsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestBuildProxy(t *testing.T) {
	c := &config.Config{}
	c.Assistant.Provider = "openai"
	c.Assistant.LeadSource = "capture"
	c.Assistant.LeadGate = "email_only"
	c.Assistant.TimeoutSecs = 5
	c.Relay.Kind = "none"
	c.Store.Driver = "none"

	proxy, closeFn, err := buildProxy(context.Background(), c)
	require.NoError(t, err)
	defer closeFn()
	assert.False(t, proxy.Available(), "no key configured")
	assert.Equal(t, "capture", proxy.LeadSource())

	c.Assistant.LeadGate = "sometimes"
	_, _, err = buildProxy(context.Background(), c)
	assert.Error(t, err)
}

func TestRunChat(t *testing.T) {
	ctx := context.Background()
	s := widget.NewSession(ctx, conversation.NewStore(conversation.NewMemoryKV()), nil)

	in := strings.NewReader("How much is a logo?\n\nTell me more\n/clear\n/quit\nignored\n")
	var out bytes.Buffer
	require.NoError(t, runChat(ctx, s, in, &out))

	got := out.String()
	assert.Contains(t, got, "assistant: Hi! I'm the Elevated AI Works Assistant.")
	assert.Contains(t, got, "For Branding, our rough range is $25–$150.")
	assert.Contains(t, got, "  - Logo complexity and variations")
	assert.Contains(t, got, "  [Go to Contact: /contact]")
	assert.Contains(t, got, "! "+widget.UnavailableText)
	assert.NotContains(t, got, "ignored")
	assert.Equal(t, []model.Message{conversation.Greeting()}, s.Messages(), "cleared")
}

func TestRunChat_EOF(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s := widget.NewSession(ctx, conversation.NewStore(conversation.NewMemoryKV()), nil)

	var out bytes.Buffer
	assert.NoError(t, runChat(ctx, s, strings.NewReader(""), &out))
}
