// Package relay delivers captured leads to the studio's inbox or CRM.
package relay

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/conversation"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/pkg/notion"
	"github.com/elevated-ai-works/assistant/pkg/salesforce"
)

var (
	// ErrNotConfigured is returned by the no-op relayer.
	ErrNotConfigured = eris.New("relay: not configured")
	// ErrAlreadySubmitted is returned by Once after a session has sent a lead.
	ErrAlreadySubmitted = eris.New("relay: lead already submitted this session")
)

// Relayer sends one lead to a sink.
type Relayer interface {
	SendLead(ctx context.Context, lead model.Lead) error
	Name() string
}

// Noop is the relayer for kind "none".
type Noop struct{}

func (Noop) SendLead(context.Context, model.Lead) error { return ErrNotConfigured }
func (Noop) Name() string                               { return "none" }

// Once allows at most one successful relay per session. The flag lives in
// the session store so it survives a reload of the chat.
type Once struct {
	inner   Relayer
	session *conversation.Store
}

// NewOnce wraps inner with the session's lead-submitted flag.
func NewOnce(inner Relayer, session *conversation.Store) *Once {
	return &Once{inner: inner, session: session}
}

func (o *Once) Name() string { return o.inner.Name() }

// SendLead relays lead unless this session already submitted one. Failures
// leave the flag unset so a later turn may try again.
func (o *Once) SendLead(ctx context.Context, lead model.Lead) error {
	if o.session.LeadSubmitted(ctx) {
		zap.L().Debug("relay: skipping, lead already submitted",
			zap.String("relay", o.inner.Name()),
		)
		return ErrAlreadySubmitted
	}
	if err := o.inner.SendLead(ctx, lead); err != nil {
		return err
	}
	if err := o.session.MarkLeadSubmitted(ctx); err != nil {
		zap.L().Warn("relay: failed to persist lead-submitted flag", zap.Error(err))
	}
	return nil
}

// New builds the relayer selected by cfg.Relay.Kind.
func New(cfg *config.Config) (Relayer, error) {
	timeout := time.Duration(cfg.Relay.TimeoutSecs) * time.Second

	switch cfg.Relay.Kind {
	case "", "none":
		return Noop{}, nil
	case "form":
		if cfg.Relay.FormURL == "" {
			return Noop{}, nil
		}
		return NewFormRelay(cfg.Relay.FormURL, WithTimeout(timeout)), nil
	case "notion":
		client := notion.NewClient(cfg.Notion.Token,
			notion.WithRateLimit(cfg.Notion.RateLimitRPS),
			notion.WithTimeout(timeout),
		)
		return NewNotionRelay(client, cfg.Notion.LeadDB), nil
	case "salesforce":
		client, err := salesforce.Connect(salesforce.Creds{
			LoginURL: cfg.Salesforce.LoginURL,
			Username: cfg.Salesforce.Username,
			ClientID: cfg.Salesforce.ClientID,
			KeyPath:  cfg.Salesforce.KeyPath,
		})
		if err != nil {
			return nil, eris.Wrap(err, "relay: connect salesforce")
		}
		return NewSalesforceRelay(client), nil
	case "mailgun":
		return NewMailgunRelay(cfg.Mailgun)
	default:
		return nil, eris.Errorf("relay: unknown kind %q", cfg.Relay.Kind)
	}
}
