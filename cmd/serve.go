package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/assistant"
	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/extract"
	"github.com/elevated-ai-works/assistant/internal/relay"
	"github.com/elevated-ai-works/assistant/internal/resilience"
	"github.com/elevated-ai-works/assistant/internal/server"
	"github.com/elevated-ai-works/assistant/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		proxy, closeFn, err := buildProxy(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		if !proxy.Available() {
			zap.L().Warn("serve: no provider key configured, assistant requests will fail",
				zap.String("provider", cfg.Assistant.Provider),
			)
		}

		return server.New(cfg.Server, cfg.Assistant.Provider, proxy).Run(ctx)
	},
}

// buildProxy wires provider, relay, lead store and extractor from c. The
// returned func releases the store.
func buildProxy(ctx context.Context, c *config.Config) (*assistant.Proxy, func(), error) {
	gate, err := extract.ParseGate(c.Assistant.LeadGate)
	if err != nil {
		return nil, nil, err
	}

	rl, err := relay.New(c)
	if err != nil {
		return nil, nil, err
	}

	opts := []assistant.Option{
		assistant.WithRelay(rl),
		assistant.WithExtractor(extract.New(extract.WithGate(gate))),
		assistant.WithLeadSource(c.Assistant.LeadSource),
		assistant.WithTimeout(time.Duration(c.Assistant.TimeoutSecs) * time.Second),
		assistant.WithMaxHistory(c.Assistant.MaxHistory),
		assistant.WithDebug(c.Server.Debug),
		assistant.WithBreaker(resilience.NewBreaker("assistant",
			resilience.BreakerFromConfig(c.Assistant.BreakerFailures, c.Assistant.BreakerResetSecs))),
	}

	closeFn := func() {}
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, nil, err
	}
	if st != nil {
		opts = append(opts, assistant.WithLeadStore(st))
		closeFn = func() {
			if err := st.Close(); err != nil {
				zap.L().Warn("serve: close store", zap.Error(err))
			}
		}
	}

	zap.L().Info("serve: assistant configured",
		zap.String("provider", c.Assistant.Provider),
		zap.String("relay", rl.Name()),
		zap.String("store", c.Store.Driver),
		zap.String("lead_source", c.Assistant.LeadSource),
		zap.String("lead_gate", string(gate)),
	)
	return assistant.NewProxy(assistant.NewProvider(c), opts...), closeFn, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
