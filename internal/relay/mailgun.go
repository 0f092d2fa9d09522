package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/model"
)

const mailgunSendTimeout = 30 * time.Second

// MailgunRelay emails each lead to the studio inbox.
type MailgunRelay struct {
	cfg    config.MailgunConfig
	client *mailgun.MailgunImpl
}

// NewMailgunRelay validates cfg and creates the Mailgun client.
func NewMailgunRelay(cfg config.MailgunConfig) (*MailgunRelay, error) {
	if err := validateMailgun(cfg); err != nil {
		return nil, err
	}
	client := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.BaseURL != "" {
		client.SetAPIBase(cfg.BaseURL)
	}
	return &MailgunRelay{cfg: cfg, client: client}, nil
}

func validateMailgun(cfg config.MailgunConfig) error {
	switch {
	case cfg.Domain == "":
		return eris.New("relay: mailgun domain is required")
	case cfg.APIKey == "":
		return eris.New("relay: mailgun api key is required")
	case cfg.From == "":
		return eris.New("relay: mailgun from address is required")
	case cfg.To == "":
		return eris.New("relay: mailgun to address is required")
	}
	return nil
}

func (r *MailgunRelay) Name() string { return "mailgun" }

func (r *MailgunRelay) SendLead(ctx context.Context, lead model.Lead) error {
	subject := "New assistant lead: " + lead.DisplayName()
	msg := r.client.NewMessage(r.cfg.From, subject, LeadText(lead), r.cfg.To)
	msg.SetReplyTo(lead.Email)

	sendCtx, cancel := context.WithTimeout(ctx, mailgunSendTimeout)
	defer cancel()

	_, id, err := r.client.Send(sendCtx, msg)
	if err != nil {
		return eris.Wrap(err, "relay: mailgun send")
	}

	zap.L().Info("relay: lead sent",
		zap.String("relay", r.Name()),
		zap.String("message_id", id),
		zap.String("email", model.MaskEmail(lead.Email)),
	)
	return nil
}

// LeadText renders a lead as a plain-text notification body.
func LeadText(lead model.Lead) string {
	var b strings.Builder
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
	}
	line("Name", lead.Name)
	line("Email", lead.Email)
	line("Business", lead.Business)
	line("Service", string(lead.Service))
	line("Budget", lead.Budget)
	line("Timeline", lead.Timeline)
	line("Notes", lead.Notes)
	line("Page", lead.PageURL)
	line("User agent", lead.UserAgent)
	line("Source", lead.Source)
	if !lead.CreatedAt.IsZero() {
		line("Received", lead.CreatedAt.Format(time.RFC3339))
	}
	return b.String()
}
