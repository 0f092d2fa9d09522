// Package extract pulls a best-effort lead out of a chat transcript.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/elevated-ai-works/assistant/internal/intent"
	"github.com/elevated-ai-works/assistant/internal/model"
)

// Gate decides whether a transcript with an email address is worth
// emitting as a lead.
type Gate string

const (
	// GateEmailOnly emits a lead for any transcript with an email address.
	GateEmailOnly Gate = "email_only"
	// GateEmailAndIntent also requires a quote-intent keyword in user text.
	GateEmailAndIntent Gate = "email_and_intent"
	// GateSignalOrIntent requires at least one extracted field besides the
	// email, or quote intent.
	GateSignalOrIntent Gate = "signal_or_intent"
)

// DefaultGate is used when no gate is configured.
const DefaultGate = GateSignalOrIntent

// ParseGate validates a configured gate name. Empty selects DefaultGate.
func ParseGate(s string) (Gate, error) {
	switch g := Gate(strings.TrimSpace(s)); g {
	case "":
		return DefaultGate, nil
	case GateEmailOnly, GateEmailAndIntent, GateSignalOrIntent:
		return g, nil
	default:
		return "", eris.Errorf("extract: unknown lead gate %q", s)
	}
}

// Extractor scans user turns for lead fields. Safe for concurrent use.
type Extractor struct {
	gate Gate
	now  func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithGate sets the gating policy.
func WithGate(g Gate) Option {
	return func(e *Extractor) { e.gate = g }
}

// WithClock overrides the CreatedAt clock.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New returns an Extractor using DefaultGate unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{gate: DefaultGate, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Gate returns the configured policy.
func (e *Extractor) Gate() Gate { return e.gate }

// Extract returns a lead when the user turns contain an email address and
// pass the gate. Missing fields are left empty; extraction never fails.
func (e *Extractor) Extract(msgs []model.Message) (*model.Lead, bool) {
	text := model.UserText(msgs)

	emails := intent.EmailPattern.FindAllString(text, -1)
	if len(emails) == 0 {
		return nil, false
	}

	lead := &model.Lead{
		Email:  emails[len(emails)-1],
		Source: model.LeadSource,
	}
	for _, m := range msgs {
		if m.Role != model.RoleUser {
			continue
		}
		scan(m.Content, lead)
	}

	if !e.pass(lead, text) {
		return nil, false
	}
	lead.CreatedAt = e.now().UTC()
	return lead, true
}

func (e *Extractor) pass(lead *model.Lead, text string) bool {
	switch e.gate {
	case GateEmailOnly:
		return true
	case GateEmailAndIntent:
		return intent.HasQuoteIntent(text)
	default:
		return hasSignal(lead) || intent.HasQuoteIntent(text)
	}
}

func hasSignal(l *model.Lead) bool {
	return l.Name != "" || l.Business != "" || l.Service != "" ||
		l.Budget != "" || l.Timeline != "" || l.Notes != ""
}

// scan overwrites any field found in one message.
func scan(content string, lead *model.Lead) {
	if v := firstOf(content, nameLabel, nameFallback); v != "" {
		lead.Name = v
	}
	if v := labeledValue(content, businessLabel); v != "" {
		lead.Business = v
	}
	if c, ok := service(content); ok {
		lead.Service = c
	}
	if v := firstOf(content, budgetLabel, budgetFallback); v != "" {
		lead.Budget = v
	}
	if v := firstOf(content, timelineLabel, timelineFallback); v != "" {
		lead.Timeline = v
	} else if asapPattern.MatchString(content) {
		lead.Timeline = "ASAP"
	}
	if v := labeledValue(content, notesLabel); v != "" {
		lead.Notes = v
	}
}

// service prefers an explicit "service: ..." label, then keywords anywhere
// in the message.
func service(content string) (model.Category, bool) {
	if v := labeledValue(content, serviceLabel); v != "" {
		if c, ok := classifyService(v); ok {
			return c, true
		}
		if c, ok := model.ParseCategory(v); ok {
			return c, true
		}
	}
	return classifyService(content)
}

func firstOf(content string, label, fallback *regexp.Regexp) string {
	if v := labeledValue(content, label); v != "" {
		return v
	}
	m := fallback.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return cleanValue(m[len(m)-1])
}

func labeledValue(content string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return cleanValue(m[1])
}

// cleanValue cuts a labeled value at the next "label:" on the same line and
// trims trailing punctuation.
func cleanValue(v string) string {
	if loc := nextLabel.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	return strings.TrimRight(strings.TrimSpace(v), " .,;!?")
}
