package model

import (
	"strings"
	"time"
)

// LeadSource tags every lead produced by the assistant.
const LeadSource = "ai-assistant"

// Lead is a prospective client's contact and interest record pulled out of
// chat text. Email is always set; everything else is best effort.
type Lead struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Email     string    `json:"email" yaml:"email"`
	Business  string    `json:"business,omitempty" yaml:"business,omitempty"`
	Service   Category  `json:"service,omitempty" yaml:"service,omitempty"`
	Budget    string    `json:"budget,omitempty" yaml:"budget,omitempty"`
	Timeline  string    `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Source    string    `json:"source" yaml:"source"`
	PageURL   string    `json:"pageUrl,omitempty" yaml:"page_url,omitempty"`
	UserAgent string    `json:"userAgent,omitempty" yaml:"user_agent,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// DisplayName returns the lead's name, falling back to the email address.
func (l Lead) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Email
}

// RelayStatus tracks delivery of a stored lead to the relay sink.
type RelayStatus string

const (
	RelayPending RelayStatus = "pending"
	RelaySent    RelayStatus = "sent"
	RelayFailed  RelayStatus = "failed"
	RelaySkipped RelayStatus = "skipped"
)

// Valid reports whether s is a known relay status.
func (s RelayStatus) Valid() bool {
	switch s {
	case RelayPending, RelaySent, RelayFailed, RelaySkipped:
		return true
	}
	return false
}

// LeadRecord is a stored lead with its relay outcome.
type LeadRecord struct {
	Lead        `yaml:",inline"`
	RelayStatus RelayStatus `json:"relayStatus" yaml:"relay_status"`
	RelayError  string      `json:"relayError,omitempty" yaml:"relay_error,omitempty"`
	RelayedAt   *time.Time  `json:"relayedAt,omitempty" yaml:"relayed_at,omitempty"`
}

// MaskEmail hides the local part of an address for logging:
// "jane@example.com" becomes "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
