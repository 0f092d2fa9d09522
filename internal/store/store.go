// Package store persists leads produced by the assistant and the chat
// client's session state.
package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/resilience"
)

// defaultListLimit caps ListLeads when the filter sets no limit.
const defaultListLimit = 100

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status model.RelayStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
}

func (f LeadFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// LeadStore defines lead persistence.
type LeadStore interface {
	// SaveLead stores lead with status pending and returns its new ID.
	SaveLead(ctx context.Context, lead model.Lead) (string, error)
	// MarkRelay records the relay outcome for a stored lead.
	MarkRelay(ctx context.Context, id string, status model.RelayStatus, relayErr string) error
	// ListLeads returns leads newest first.
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver and applies migrations.
// Driver "none" returns a nil store and no error.
func Open(ctx context.Context, cfg config.StoreConfig) (LeadStore, error) {
	var (
		st  LeadStore
		err error
	)

	switch cfg.Driver {
	case "none", "":
		return nil, nil
	case "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		err = resilience.Do(ctx, "postgres connect", resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			var connErr error
			st, connErr = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
			return connErr
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "store: migrate")
	}

	zap.L().Debug("store: opened", zap.String("driver", cfg.Driver))
	return st, nil
}
