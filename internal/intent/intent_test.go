package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevated-ai-works/assistant/internal/model"
)

func TestHasQuoteIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"Can I get a QUOTE?", true},
		{"what's your pricing", true},
		{"How much for a logo?", true},
		{"rough estimate please", true},
		{"cost?", true},
		{"Budget is tight", true},
		{"I want to start a project", true},
		{"looking to hire someone", true},
		{"can we consult next week", true},
		{"send a proposal", true},
		{"(price)", true},
		{"hello there", false},
		{"tell me about your portfolio", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasQuoteIntent(tt.in))
		})
	}
}

func TestClassifyCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want model.Category
	}{
		{"I need a new logo", model.CategoryBranding},
		{"A landing page for my cafe", model.CategoryWebsites},
		{"help me rank on Google", model.CategorySEO},
		{"ongoing maintenance", model.CategoryMaintenance},
		{"workflow templates", model.CategorySystemsDocs},
		{"a chatbot for support", model.CategoryAITools},
		{"GA4 setup", model.CategoryAnalytics},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ClassifyCategory(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyCategory_PriorityOrder(t *testing.T) {
	t.Parallel()

	// Branding outranks Websites, Websites outranks SEO, and so on.
	got, _ := ClassifyCategory("a website with a new logo")
	assert.Equal(t, model.CategoryBranding, got)

	got, _ = ClassifyCategory("seo for my site")
	assert.Equal(t, model.CategoryWebsites, got)

	got, _ = ClassifyCategory("analytics and ongoing updates")
	assert.Equal(t, model.CategoryMaintenance, got)

	got, _ = ClassifyCategory("chatbot with tracking events")
	assert.Equal(t, model.CategoryAITools, got)
}

func TestClassifyCategory_SubstringMatch(t *testing.T) {
	t.Parallel()

	// Plain substring matching: "email" contains "ai".
	got, ok := ClassifyCategory("my email")
	require.True(t, ok)
	assert.Equal(t, model.CategoryAITools, got)
}

func TestClassifyCategory_None(t *testing.T) {
	t.Parallel()
	_, ok := ClassifyCategory("hello there")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "how much", Normalize("  HOW Much\t"))
}

func TestQuoteResponse(t *testing.T) {
	t.Parallel()

	msg, ok := QuoteResponse(model.CategoryWebsites, false)
	require.True(t, ok)
	assert.Equal(t, model.RoleAssistant, msg.Role)
	assert.Equal(t, "Thanks for reaching out! For Websites, our rough range is $150–$2,000. Final pricing comes after a quick consult to confirm scope.", msg.Content)
	assert.Equal(t, []string{
		"Number of pages and sections",
		"Integrations (forms, booking, ecommerce)",
		"Content readiness",
	}, msg.Bullets)
	require.NotNil(t, msg.CTA)
	assert.Equal(t, model.ContactCTA, *msg.CTA)
}

func TestQuoteResponse_Exact(t *testing.T) {
	t.Parallel()
	msg, ok := QuoteResponse(model.CategorySEO, true)
	require.True(t, ok)
	assert.Equal(t, "Thanks for reaching out! For SEO, our rough range is $25–$100/month. Exact pricing depends on scope, so the final quote comes after a quick consult.", msg.Content)
}

func TestQuoteResponse_Unknown(t *testing.T) {
	t.Parallel()
	_, ok := QuoteResponse("Catering", false)
	assert.False(t, ok)
}

func TestHasPersonalInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"contact me at a@b.com", true},
		{"I live at 123 Main Street", true},
		{"office at 42 north lake shore dr", true},
		{"call +1 (555) 123-4567", true},
		{"my number is 555 123 4567", true},
		{"hello there", false},
		{"I need 3 pages", false},
		{"budget around $1500", false},
		{"a 10 step workflow", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasPersonalInfo(tt.in))
		})
	}
}

func TestGuard_MinPhoneDigits(t *testing.T) {
	t.Parallel()

	strict := NewGuard(WithMinPhoneDigits(11))
	assert.False(t, strict.HasPersonalInfo("555 123 4567"))
	assert.True(t, strict.HasPersonalInfo("+1 555 123 4567"))

	loose := NewGuard(WithMinPhoneDigits(0))
	assert.True(t, loose.HasPersonalInfo("12"))
}

func TestGuard_AddressSuffixes(t *testing.T) {
	t.Parallel()

	g := NewGuard(WithAddressSuffixes([]string{"way"}))
	assert.True(t, g.HasPersonalInfo("12 Harbor Way"))
	assert.False(t, g.HasPersonalInfo("12 Harbor Street"))
}

func TestIsExactPriceRequest(t *testing.T) {
	t.Parallel()

	assert.True(t, IsExactPriceRequest("what's the EXACT cost"))
	assert.True(t, IsExactPriceRequest("is that a fixed price?"))
	assert.True(t, IsExactPriceRequest("guaranteed total"))
	assert.False(t, IsExactPriceRequest("roughly how much"))

	g := NewGuard(WithExactPriceKeywords([]string{"To The Cent"}))
	assert.True(t, g.IsExactPriceRequest("price to the cent"))
	assert.False(t, g.IsExactPriceRequest("exact"))
}
