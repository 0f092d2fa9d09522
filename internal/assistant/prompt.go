package assistant

import (
	"fmt"
	"strings"

	"github.com/elevated-ai-works/assistant/internal/capture"
	"github.com/elevated-ai-works/assistant/internal/model"
)

// Lead sources.
const (
	LeadSourceExtractor = "extractor"
	LeadSourceCapture   = "capture"
	LeadSourceNone      = "none"
)

const persona = `You are the Elevated AI Works assistant. Keep responses concise, friendly, and helpful.
Never invent prices. You may ONLY mention the following ranges exactly:`

const consultNote = `If scope is unclear, provide the correct range and say "final quote after a quick consult."
Never ask the visitor for a phone number or street address; point them to the Contact page instead.`

// SystemPrompt renders the studio prompt. Price ranges come from the quote
// table. In capture mode the LEAD_CAPTURE instructions are appended.
func SystemPrompt(leadSource string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteByte('\n')
	for _, q := range model.Quotes() {
		suffix := ""
		if q.OneTime {
			suffix = " (one-time)"
		}
		fmt.Fprintf(&b, "- %s: %s%s\n", q.Category, q.Range, suffix)
	}
	b.WriteString(consultNote)
	if leadSource == LeadSourceCapture {
		b.WriteString("\n\n")
		b.WriteString(capture.Instructions())
	}
	return b.String()
}
