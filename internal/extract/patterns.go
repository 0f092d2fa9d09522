package extract

import (
	"regexp"
	"strings"

	"github.com/elevated-ai-works/assistant/internal/intent"
	"github.com/elevated-ai-works/assistant/internal/model"
)

// labeled matches "label: value", "label = value" or "label - value" at the
// start of a line or after sentence punctuation. The value runs to end of
// line.
func labeled(labels ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)(?:^|[.,;!?]\s*)\s*(?:` + strings.Join(labels, "|") +
		`)\s*(?:[:=]|\s-)\s*([^\n]+)`)
}

var (
	nameLabel     = labeled("full name", "name")
	businessLabel = labeled("company name", "business name", "company", "business", "organization")
	serviceLabel  = labeled("service", "services", "project type", "interested in")
	budgetLabel   = labeled("budget range", "budget", "price range", "spend")
	timelineLabel = labeled("timeline", "timeframe", "time frame", "deadline", "launch date")
	notesLabel    = labeled("notes", "note", "details", "additional info")

	nameFallback     = regexp.MustCompile(`(?:(?i:my name is|i['’]m|i am|this is|call me))\s+(\p{Lu}[\p{L}'\-]+(?:\s+\p{Lu}[\p{L}'\-]+){0,2})`)
	budgetFallback   = regexp.MustCompile(`(?i)(\$\s?\d[\d,]*(?:\.\d+)?k?(?:\s?(?:-|–|to)\s?\$?\s?\d[\d,]*(?:\.\d+)?k?)?)`)
	timelineFallback = regexp.MustCompile(`(?i)\b(?:in|within)\s+(?:the\s+next\s+)?(\d+\s+(?:days?|weeks?|months?))\b`)
	asapPattern      = regexp.MustCompile(`(?i)\b(?:asap|as soon as possible)\b`)

	nextLabel = regexp.MustCompile(`(?i)[,;]\s*[a-z][a-z ]{1,20}\s*[:=]`)
)

type serviceKeywords struct {
	category model.Category
	pattern  *regexp.Regexp
}

func words(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// serviceTable is the server's own keyword table. It matches whole words so
// that, unlike the widget's table, "email" is not read as an AI request.
// Priority order matches the widget classifier.
var serviceTable = []serviceKeywords{
	{model.CategoryBranding, words("logo", "logos", "branding", "brand identity", "brand kit", "rebrand")},
	{model.CategoryWebsites, words("website", "web site", "webpage", "landing page", "web design", "online store", "ecommerce", "e-commerce")},
	{model.CategorySEO, words("seo", "search engine", "search ranking", "google ranking")},
	{model.CategoryMaintenance, words("maintenance", "site updates", "monthly updates", "care plan", "support plan")},
	{model.CategorySystemsDocs, words("documentation", "sop", "sops", "templates", "workflow", "workflows", "process docs")},
	{model.CategoryAITools, words("chatbot", "ai tool", "ai tools", "ai assistant", "ai agent", "automation", "gpt", "llm")},
	{model.CategoryAnalytics, words("analytics", "ga4", "tracking", "dashboard", "dashboards", "conversion tracking")},
}

func classifyService(text string) (model.Category, bool) {
	s := intent.Normalize(text)
	for _, sk := range serviceTable {
		if sk.pattern.MatchString(s) {
			return sk.category, true
		}
	}
	return "", false
}
