package model

import "strings"

// Category is one of the studio's service lines.
type Category string

// Service categories, in quote-table order.
const (
	CategoryBranding    Category = "Branding"
	CategoryWebsites    Category = "Websites"
	CategorySystemsDocs Category = "Systems & Docs"
	CategoryAITools     Category = "AI Tools"
	CategorySEO         Category = "SEO"
	CategoryAnalytics   Category = "Analytics"
	CategoryMaintenance Category = "Maintenance"
)

// Quote is the authoritative price range and scope drivers for a category.
type Quote struct {
	Category Category `json:"category" yaml:"category"`
	Range    string   `json:"range" yaml:"range"`
	OneTime  bool     `json:"oneTime" yaml:"one_time"`
	Drivers  []string `json:"drivers" yaml:"drivers"`
}

// quoteTable is the single source of price ranges. The assistant prompt is
// rendered from it, so the model is never told a different number.
var quoteTable = []Quote{
	{
		Category: CategoryBranding,
		Range:    "$25–$150",
		OneTime:  true,
		Drivers: []string{
			"Logo complexity and variations",
			"Brand guidelines depth",
			"Number of revision rounds",
		},
	},
	{
		Category: CategoryWebsites,
		Range:    "$150–$2,000",
		OneTime:  true,
		Drivers: []string{
			"Number of pages and sections",
			"Integrations (forms, booking, ecommerce)",
			"Content readiness",
		},
	},
	{
		Category: CategorySystemsDocs,
		Range:    "$50–$500",
		OneTime:  true,
		Drivers: []string{
			"Workflow complexity",
			"Number of templates or documents",
			"Level of automation needed",
		},
	},
	{
		Category: CategoryAITools,
		Range:    "$300–$1,000",
		OneTime:  true,
		Drivers: []string{
			"Scope of automation",
			"Data sources and integrations",
			"Model tuning or prompt complexity",
		},
	},
	{
		Category: CategorySEO,
		Range:    "$25–$100/month",
		Drivers: []string{
			"Keyword competitiveness",
			"Number of pages to optimize",
			"Ongoing reporting cadence",
		},
	},
	{
		Category: CategoryAnalytics,
		Range:    "$50–$500",
		OneTime:  true,
		Drivers: []string{
			"Tracking plan complexity",
			"Event and conversion setup",
			"Dashboard/reporting needs",
		},
	},
	{
		Category: CategoryMaintenance,
		Range:    "$25–$200/month",
		Drivers: []string{
			"Update frequency",
			"Monitoring and backups",
			"Support response time",
		},
	},
}

// Categories returns every category in quote-table order.
func Categories() []Category {
	out := make([]Category, len(quoteTable))
	for i, q := range quoteTable {
		out[i] = q.Category
	}
	return out
}

// Quotes returns a copy of the quote table.
func Quotes() []Quote {
	out := make([]Quote, len(quoteTable))
	for i, q := range quoteTable {
		q.Drivers = append([]string(nil), q.Drivers...)
		out[i] = q
	}
	return out
}

// QuoteFor returns the quote for c. The second result is false for unknown
// categories.
func QuoteFor(c Category) (Quote, bool) {
	for _, q := range quoteTable {
		if q.Category == c {
			q.Drivers = append([]string(nil), q.Drivers...)
			return q, true
		}
	}
	return Quote{}, false
}

// ParseCategory matches name against the category display names, ignoring
// case and surrounding space.
func ParseCategory(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, q := range quoteTable {
		if strings.EqualFold(string(q.Category), name) {
			return q.Category, true
		}
	}
	return "", false
}

// Valid reports whether c is in the quote table.
func (c Category) Valid() bool {
	_, ok := QuoteFor(c)
	return ok
}
