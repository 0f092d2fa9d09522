package conversation

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/model"
)

// Storage keys.
const (
	HistoryKey       = "eaw_assistant_history"
	LeadSubmittedKey = "eaw_assistant_lead_submitted"
)

const greeting = "Hi! I'm the Elevated AI Works Assistant. How can I help you today?"

// Greeting returns the opening assistant message of a fresh session.
func Greeting() model.Message {
	return model.AssistantMessage(greeting)
}

// Store reads and writes one session's state.
type Store struct {
	kv KV
}

// NewStore wraps kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the saved history with malformed entries dropped. It never
// fails: unreadable or empty state yields a fresh greeting.
func (s *Store) Load(ctx context.Context) []model.Message {
	raw, ok, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		zap.L().Warn("conversation: read history", zap.Error(err))
		return []model.Message{Greeting()}
	}
	if !ok || raw == "" {
		return []model.Message{Greeting()}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		zap.L().Debug("conversation: discarding unparsable history", zap.Error(err))
		return []model.Message{Greeting()}
	}

	out := make([]model.Message, 0, len(items))
	for i, item := range items {
		m, ok := sanitize(item)
		if !ok {
			zap.L().Debug("conversation: dropping malformed message", zap.Int("index", i))
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return []model.Message{Greeting()}
	}
	return out
}

// Save replaces the stored history.
func (s *Store) Save(ctx context.Context, msgs []model.Message) error {
	b, err := json.Marshal(msgs)
	if err != nil {
		return eris.Wrap(err, "conversation: marshal history")
	}
	if err := s.kv.Set(ctx, HistoryKey, string(b)); err != nil {
		return eris.Wrap(err, "conversation: save history")
	}
	return nil
}

// Clear forgets the history and returns the fresh-session messages. The
// lead-submitted flag survives a clear.
func (s *Store) Clear(ctx context.Context) ([]model.Message, error) {
	if err := s.kv.Remove(ctx, HistoryKey); err != nil {
		return nil, eris.Wrap(err, "conversation: clear history")
	}
	return []model.Message{Greeting()}, nil
}

// LeadSubmitted reports whether a lead was already relayed in this session.
// Read errors count as not submitted.
func (s *Store) LeadSubmitted(ctx context.Context) bool {
	v, ok, err := s.kv.Get(ctx, LeadSubmittedKey)
	if err != nil {
		zap.L().Warn("conversation: read lead flag", zap.Error(err))
		return false
	}
	return ok && v == "true"
}

// MarkLeadSubmitted sets the lead-submitted flag.
func (s *Store) MarkLeadSubmitted(ctx context.Context) error {
	if err := s.kv.Set(ctx, LeadSubmittedKey, "true"); err != nil {
		return eris.Wrap(err, "conversation: mark lead submitted")
	}
	return nil
}

type storedMessage struct {
	Role    json.RawMessage `json:"role"`
	Content json.RawMessage `json:"content"`
	Bullets json.RawMessage `json:"bullets"`
	CTA     json.RawMessage `json:"cta"`
}

type storedCTA struct {
	Label json.RawMessage `json:"label"`
	To    json.RawMessage `json:"to"`
}

// sanitize accepts only user/assistant messages with string content,
// all-string bullets and a complete CTA.
func sanitize(item json.RawMessage) (model.Message, bool) {
	var sm storedMessage
	if err := json.Unmarshal(item, &sm); err != nil {
		return model.Message{}, false
	}

	role, ok := str(sm.Role)
	if !ok || (model.Role(role) != model.RoleUser && model.Role(role) != model.RoleAssistant) {
		return model.Message{}, false
	}
	content, ok := str(sm.Content)
	if !ok {
		return model.Message{}, false
	}
	m := model.Message{Role: model.Role(role), Content: content}

	if present(sm.Bullets) {
		var raws []json.RawMessage
		if err := json.Unmarshal(sm.Bullets, &raws); err != nil {
			return model.Message{}, false
		}
		for _, r := range raws {
			b, ok := str(r)
			if !ok {
				return model.Message{}, false
			}
			m.Bullets = append(m.Bullets, b)
		}
	}

	if present(sm.CTA) {
		var c storedCTA
		if err := json.Unmarshal(sm.CTA, &c); err != nil {
			return model.Message{}, false
		}
		label, okLabel := str(c.Label)
		to, okTo := str(c.To)
		if !okLabel || !okTo {
			return model.Message{}, false
		}
		m.CTA = &model.CTA{Label: label, To: to}
	}
	return m, true
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// str decodes raw only if it is a JSON string.
func str(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
