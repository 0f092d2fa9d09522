package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/elevated-ai-works/assistant/internal/model"
)

// maxRichText is Notion's per-block rich text limit.
const maxRichText = 2000

// LeadProperties maps a lead onto the Lead DB columns. Empty fields are
// omitted so Notion keeps its column defaults.
func LeadProperties(lead *model.Lead) notionapi.Properties {
	created := notionapi.Date(lead.CreatedAt)
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: lead.DisplayName()}},
			},
		},
		"Email": notionapi.EmailProperty{
			Type:  notionapi.PropertyTypeEmail,
			Email: lead.Email,
		},
		"Source": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: lead.Source},
		},
		"Created": notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &created},
		},
	}

	if lead.Service != "" {
		props["Service"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: string(lead.Service)},
		}
	}
	if lead.PageURL != "" {
		props["Page"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  lead.PageURL,
		}
	}

	text := map[string]string{
		"Business": lead.Business,
		"Budget":   lead.Budget,
		"Timeline": lead.Timeline,
		"Notes":    lead.Notes,
	}
	for col, v := range text {
		if v == "" {
			continue
		}
		props[col] = richText(v)
	}

	return props
}

func richText(v string) notionapi.RichTextProperty {
	if len(v) > maxRichText {
		v = v[:maxRichText]
	}
	return notionapi.RichTextProperty{
		Type: notionapi.PropertyTypeRichText,
		RichText: []notionapi.RichText{
			{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: v}},
		},
	}
}

// CreateLeadPage writes lead as a new page in the Lead DB and returns the
// page ID.
func CreateLeadPage(ctx context.Context, client Client, dbID string, lead *model.Lead) (string, error) {
	if lead == nil || lead.Email == "" {
		return "", eris.New("notion: lead email is required")
	}

	page, err := client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: LeadProperties(lead),
	})
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("notion: create lead page in %s", dbID))
	}
	return string(page.ID), nil
}
