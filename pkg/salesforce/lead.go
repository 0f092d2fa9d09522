package salesforce

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/elevated-ai-works/assistant/internal/model"
)

// unknownCompany fills Lead.Company, which Salesforce requires, when the
// visitor never named a business.
const unknownCompany = "Unknown"

// LeadFields maps a lead onto standard Lead SObject fields.
func LeadFields(lead *model.Lead) map[string]any {
	first, last := splitName(lead.Name)
	if last == "" {
		last, _, _ = strings.Cut(lead.Email, "@")
	}

	company := lead.Business
	if company == "" {
		company = unknownCompany
	}

	fields := map[string]any{
		"LastName":   last,
		"Company":    company,
		"Email":      lead.Email,
		"LeadSource": lead.Source,
	}
	if first != "" {
		fields["FirstName"] = first
	}
	if desc := description(lead); desc != "" {
		fields["Description"] = desc
	}
	return fields
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func description(lead *model.Lead) string {
	var lines []string
	add := func(label, v string) {
		if v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Service", string(lead.Service))
	add("Budget", lead.Budget)
	add("Timeline", lead.Timeline)
	add("Notes", lead.Notes)
	add("Page", lead.PageURL)
	return strings.Join(lines, "\n")
}

// CreateLead files lead as a Salesforce Lead and returns the new record ID.
func CreateLead(ctx context.Context, c Client, lead *model.Lead) (string, error) {
	if lead == nil || lead.Email == "" {
		return "", eris.New("sf: lead email is required")
	}
	id, err := c.InsertOne(ctx, "Lead", LeadFields(lead))
	if err != nil {
		return "", eris.Wrap(err, "sf: create lead")
	}
	return id, nil
}
