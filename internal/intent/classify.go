// Package intent holds the chat widget's keyword heuristics: quote intent,
// service category, exact-price phrasing and the personal-info guard.
// Everything here is a pure function over strings.
package intent

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/elevated-ai-works/assistant/internal/model"
)

var quoteIntentKeywords = []string{
	"quote",
	"estimate",
	"pricing",
	"price",
	"how much",
	"cost",
	"budget",
	"start a project",
	"hire",
	"consult",
	"proposal",
}

type categoryKeywords struct {
	category model.Category
	keywords []string
}

// categoryPriority is evaluated top to bottom and the first hit wins.
// Reordering it changes classification results.
var categoryPriority = []categoryKeywords{
	{model.CategoryBranding, []string{"logo", "brand", "branding"}},
	{model.CategoryWebsites, []string{"website", "site", "web page", "landing page"}},
	{model.CategorySEO, []string{"seo", "rank", "google"}},
	{model.CategoryMaintenance, []string{"maintenance", "updates", "ongoing"}},
	{model.CategorySystemsDocs, []string{"automation", "templates", "workflow", "docs"}},
	{model.CategoryAITools, []string{"chatbot", "ai", "assistant", "integration"}},
	{model.CategoryAnalytics, []string{"analytics", "ga4", "tracking", "events"}},
}

// Normalize case-folds s and trims surrounding space.
func Normalize(s string) string {
	return strings.TrimSpace(cases.Fold().String(s))
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// HasQuoteIntent reports whether text asks about pricing or starting work.
func HasQuoteIntent(text string) bool {
	return containsAny(Normalize(text), quoteIntentKeywords)
}

// ClassifyCategory returns the first category, in priority order, whose
// keywords appear in text.
func ClassifyCategory(text string) (model.Category, bool) {
	s := Normalize(text)
	for _, ck := range categoryPriority {
		if containsAny(s, ck.keywords) {
			return ck.category, true
		}
	}
	return "", false
}

// QuoteResponse builds the canned reply for a category's price range. The
// second result is false if c is not in the quote table.
func QuoteResponse(c model.Category, exact bool) (model.Message, bool) {
	q, ok := model.QuoteFor(c)
	if !ok {
		return model.Message{}, false
	}
	note := "Final pricing comes after a quick consult to confirm scope."
	if exact {
		note = "Exact pricing depends on scope, so the final quote comes after a quick consult."
	}
	msg := model.AssistantMessage("Thanks for reaching out! For " + string(q.Category) +
		", our rough range is " + q.Range + ". " + note).WithContact()
	msg.Bullets = q.Drivers
	return msg, true
}
