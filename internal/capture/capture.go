// Package capture parses the LEAD_CAPTURE block the model appends to a reply
// once it has collected a visitor's details.
//
// Wire format, after the user-visible text:
//
//	LEAD_CAPTURE:
//	name=...
//	email=...
//	business=...
//	service_interest=...
//	estimated_range=...
//	timeline=...
//	notes=...
//
// The block is produced by a language model, so parsing is lenient: missing
// keys default to empty and unknown keys are ignored.
package capture

import (
	"strings"
	"time"

	"github.com/elevated-ai-works/assistant/internal/intent"
	"github.com/elevated-ai-works/assistant/internal/model"
)

// Marker starts the structured block.
const Marker = "LEAD_CAPTURE:"

// Fields holds the fixed keys of a capture block.
type Fields struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Business        string `json:"business"`
	ServiceInterest string `json:"service_interest"`
	EstimatedRange  string `json:"estimated_range"`
	Timeline        string `json:"timeline"`
	Notes           string `json:"notes"`
}

// Result is a parsed reply.
type Result struct {
	// Display is the text to show the visitor.
	Display string
	// Lead is nil when no marker was present or the block had no known keys.
	Lead *Fields
	// Malformed is set when the marker was present but nothing parsed.
	Malformed bool
}

// Parse splits text on Marker. It never fails.
func Parse(text string) Result {
	idx := strings.Index(text, Marker)
	if idx < 0 {
		return Result{Display: text}
	}

	res := Result{Display: strings.TrimSpace(text[:idx])}

	var f Fields
	found := false
	for _, line := range strings.Split(text[idx+len(Marker):], "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if set(&f, strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(val)) {
			found = true
		}
	}

	if !found {
		res.Malformed = true
		return res
	}
	res.Lead = &f
	return res
}

func set(f *Fields, key, val string) bool {
	switch key {
	case "name":
		f.Name = val
	case "email":
		f.Email = val
	case "business":
		f.Business = val
	case "service_interest":
		f.ServiceInterest = val
	case "estimated_range":
		f.EstimatedRange = val
	case "timeline":
		f.Timeline = val
	case "notes":
		f.Notes = val
	default:
		return false
	}
	return true
}

// ToLead converts the block into a Lead. It returns false when the email is
// missing or not address-shaped, since a lead without a reachable address
// is useless to the studio.
func (f Fields) ToLead(now time.Time) (*model.Lead, bool) {
	email := intent.EmailPattern.FindString(f.Email)
	if email == "" {
		return nil, false
	}
	lead := &model.Lead{
		Name:      f.Name,
		Email:     email,
		Business:  f.Business,
		Budget:    f.EstimatedRange,
		Timeline:  f.Timeline,
		Notes:     f.Notes,
		Source:    model.LeadSource,
		CreatedAt: now.UTC(),
	}
	if c, ok := model.ParseCategory(f.ServiceInterest); ok {
		lead.Service = c
	} else if c, ok := intent.ClassifyCategory(f.ServiceInterest); ok {
		lead.Service = c
	}
	return lead, true
}

// Instructions is appended to the system prompt so the model emits the
// block in the format Parse expects.
func Instructions() string {
	return `When the visitor has shared their name and email and described their project, end your reply with this block exactly, one key per line, leaving unknown values empty:

` + Marker + `
name=...
email=...
business=...
service_interest=...
estimated_range=...
timeline=...
notes=...

Never mention the block to the visitor and never emit it before you have an email address.`
}
