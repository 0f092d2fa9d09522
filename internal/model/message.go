package model

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// CTA is a call-to-action link rendered under an assistant message.
type CTA struct {
	Label string `json:"label"`
	To    string `json:"to"`
}

// ContactCTA points the visitor at the contact page.
var ContactCTA = CTA{Label: "Go to Contact", To: "/contact"}

// Message is a single chat turn. Messages are append-only within a session.
type Message struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Bullets []string `json:"bullets,omitempty"`
	CTA     *CTA     `json:"cta,omitempty"`
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// WithContact returns a copy of m carrying the contact CTA.
func (m Message) WithContact() Message {
	cta := ContactCTA
	m.CTA = &cta
	return m
}

// UserText joins the content of every user message with single spaces.
func UserText(msgs []Message) string {
	var n int
	for _, m := range msgs {
		if m.Role == RoleUser {
			n += len(m.Content) + 1
		}
	}
	buf := make([]byte, 0, n)
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if len(buf) > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, m.Content...)
	}
	return string(buf)
}
