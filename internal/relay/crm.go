package relay

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/pkg/notion"
	"github.com/elevated-ai-works/assistant/pkg/salesforce"
)

// NotionRelay files each lead as a page in a Notion database.
type NotionRelay struct {
	client notion.Client
	dbID   string
}

// NewNotionRelay creates a relay writing into the database dbID.
func NewNotionRelay(client notion.Client, dbID string) *NotionRelay {
	return &NotionRelay{client: client, dbID: dbID}
}

func (r *NotionRelay) Name() string { return "notion" }

func (r *NotionRelay) SendLead(ctx context.Context, lead model.Lead) error {
	pageID, err := notion.CreateLeadPage(ctx, r.client, r.dbID, &lead)
	if err != nil {
		return eris.Wrap(err, "relay: notion")
	}
	zap.L().Info("relay: lead sent",
		zap.String("relay", r.Name()),
		zap.String("page_id", pageID),
		zap.String("email", model.MaskEmail(lead.Email)),
	)
	return nil
}

// SalesforceRelay inserts each lead as a Salesforce Lead record.
type SalesforceRelay struct {
	client salesforce.Client
}

// NewSalesforceRelay creates a relay over an authenticated client.
func NewSalesforceRelay(client salesforce.Client) *SalesforceRelay {
	return &SalesforceRelay{client: client}
}

func (r *SalesforceRelay) Name() string { return "salesforce" }

func (r *SalesforceRelay) SendLead(ctx context.Context, lead model.Lead) error {
	id, err := salesforce.CreateLead(ctx, r.client, &lead)
	if err != nil {
		return eris.Wrap(err, "relay: salesforce")
	}
	zap.L().Info("relay: lead sent",
		zap.String("relay", r.Name()),
		zap.String("sf_id", id),
		zap.String("email", model.MaskEmail(lead.Email)),
	)
	return nil
}
