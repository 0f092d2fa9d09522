package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/capture"
	"github.com/elevated-ai-works/assistant/internal/conversation"
	"github.com/elevated-ai-works/assistant/internal/intent"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/relay"
)

// Visitor-facing replies produced without calling the assistant.
const (
	PrivacyReply      = "For privacy, please use our Contact form to share personal details."
	NeedCategoryReply = "Thanks! I can share a range once I know the service category. For a precise quote, please use our Contact form."
	CategoryQuestion  = "Which are you looking for — a Website, Branding, SEO, Maintenance, Systems & Docs, AI Tools, or Analytics?"
	LeadSentReply     = "✅ Got it — I’ve sent your details to Elevated AI Works. We’ll reach out shortly."
	LeadFailedReply   = "I couldn’t send your details automatically. Please use the Contact page."

	UnavailableText = "Assistant unavailable right now."
	TimeoutText     = "Sorry, the assistant is taking too long. Please try again."
	FallbackText    = "Sorry, the assistant is unavailable right now. Please try again soon."
)

var (
	// ErrEmptyInput is returned for blank input.
	ErrEmptyInput = eris.New("widget: empty input")
	// ErrBusy is returned while another send is in flight.
	ErrBusy = eris.New("widget: a message is already being sent")
)

// ErrorText maps a Send error to the banner shown to the visitor.
func ErrorText(err error) string {
	var serverErr *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errNoAssistant):
		return UnavailableText
	case errors.Is(err, ErrTimeout):
		return TimeoutText
	case errors.As(err, &serverErr):
		return serverErr.Error()
	default:
		return FallbackText
	}
}

// errNoAssistant is returned when the session has no assistant at all.
var errNoAssistant = eris.Wrap(ErrUnavailable, "widget: not configured")

// Session is one visitor's chat. At most one Send runs at a time; history
// is saved after every transition.
type Session struct {
	store     *conversation.Store
	assistant Assistant
	guard     *intent.Guard
	pageURL   string
	relay     relay.Relayer
	now       func() time.Time

	mu      sync.Mutex
	busy    bool
	history []model.Message
	pending bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGuard replaces the default personal-info and exact-price guard.
func WithGuard(g *intent.Guard) SessionOption {
	return func(s *Session) { s.guard = g }
}

// WithPageURL sets the page reported with each assistant call.
func WithPageURL(u string) SessionOption {
	return func(s *Session) { s.pageURL = u }
}

// WithRelay relays leads parsed from LEAD_CAPTURE blocks in replies, at
// most once per session.
func WithRelay(r relay.Relayer) SessionOption {
	return func(s *Session) { s.relay = r }
}

// WithClock overrides the clock used for captured leads.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession restores the session from store. assistant may be nil, in
// which case only local replies are available.
func NewSession(ctx context.Context, store *conversation.Store, assistant Assistant, opts ...SessionOption) *Session {
	s := &Session{
		store:     store,
		assistant: assistant,
		guard:     intent.NewGuard(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.relay != nil {
		s.relay = relay.NewOnce(s.relay, store)
	}
	s.history = store.Load(ctx)
	return s
}

// Messages returns a copy of the history.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.history...)
}

// Busy reports whether a send is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// PendingCategory reports whether the last reply asked for a service
// category.
func (s *Session) PendingCategory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Available reports whether an assistant is configured.
func (s *Session) Available() bool { return s.assistant != nil }

// Send handles one visitor message and returns the messages it appended,
// the visitor's own message first. A non-nil error is a failed assistant
// call; the returned messages are still part of the history.
func (s *Session) Send(ctx context.Context, input string) ([]model.Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	start := len(s.history)
	s.history = append(s.history, model.UserMessage(input))

	if reply, ok := s.localReply(input); ok {
		s.history = append(s.history, reply)
		added := s.finishLocked(ctx, start)
		s.mu.Unlock()
		return added, nil
	}

	if s.assistant == nil {
		added := s.finishLocked(ctx, start)
		s.mu.Unlock()
		return added, errNoAssistant
	}

	history := append([]model.Message(nil), s.history...)
	s.save(ctx, history)
	s.mu.Unlock()

	replies, err := s.ask(ctx, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, replies...)
	return s.finishLocked(ctx, start), err
}

// localReply answers privacy and pricing questions without the assistant.
// It must be called with mu held.
func (s *Session) localReply(input string) (model.Message, bool) {
	if s.guard.HasPersonalInfo(input) {
		s.pending = false
		return model.AssistantMessage(PrivacyReply).WithContact(), true
	}

	exact := s.guard.IsExactPriceRequest(input)
	if s.pending {
		s.pending = false
		if c, ok := intent.ClassifyCategory(input); ok {
			if msg, ok := intent.QuoteResponse(c, exact); ok {
				return msg, true
			}
		}
		return model.AssistantMessage(NeedCategoryReply).WithContact(), true
	}

	if intent.HasQuoteIntent(input) {
		if c, ok := intent.ClassifyCategory(input); ok {
			if msg, ok := intent.QuoteResponse(c, exact); ok {
				return msg, true
			}
		}
		s.pending = true
		return model.AssistantMessage(CategoryQuestion), true
	}
	return model.Message{}, false
}

// ask calls the assistant and builds the replies to append.
func (s *Session) ask(ctx context.Context, history []model.Message) ([]model.Message, error) {
	resp, err := s.assistant.Ask(ctx, history, s.pageURL)
	if err != nil {
		zap.L().Warn("widget: assistant call failed", zap.Error(err))
		return nil, err
	}

	parsed := capture.Parse(resp.Text)
	var replies []model.Message
	if text := strings.TrimSpace(parsed.Display); text != "" {
		replies = append(replies, model.AssistantMessage(text))
	}

	leadSent, leadErr := resp.LeadSent, resp.LeadError
	if leadSent == nil && parsed.Lead != nil && s.relay != nil {
		leadSent, leadErr = s.relayCaptured(ctx, *parsed.Lead)
	}

	switch {
	case leadSent != nil && *leadSent:
		replies = append(replies, model.AssistantMessage(LeadSentReply))
	case leadSent != nil && leadErr != "":
		replies = append(replies, model.AssistantMessage(LeadFailedReply))
	}
	return replies, nil
}

func (s *Session) relayCaptured(ctx context.Context, f capture.Fields) (*bool, string) {
	lead, ok := f.ToLead(s.now())
	if !ok {
		zap.L().Debug("widget: capture block has no usable email")
		return nil, ""
	}
	lead.PageURL = s.pageURL

	sent := false
	err := s.relay.SendLead(ctx, *lead)
	switch {
	case err == nil:
		sent = true
		return &sent, ""
	case errors.Is(err, relay.ErrAlreadySubmitted):
		return nil, ""
	default:
		zap.L().Warn("widget: lead relay failed",
			zap.String("email", model.MaskEmail(lead.Email)),
			zap.Error(err),
		)
		return &sent, err.Error()
	}
}

// finishLocked saves the history, clears busy and returns the messages
// appended since start. It must be called with mu held.
func (s *Session) finishLocked(ctx context.Context, start int) []model.Message {
	s.busy = false
	s.save(ctx, s.history)
	return append([]model.Message(nil), s.history[start:]...)
}

func (s *Session) save(ctx context.Context, history []model.Message) {
	if err := s.store.Save(ctx, history); err != nil {
		zap.L().Warn("widget: save history", zap.Error(err))
	}
}

// Clear resets the conversation to the greeting.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	fresh, err := s.store.Clear(ctx)
	if err != nil {
		return err
	}
	s.history = fresh
	s.pending = false
	return nil
}
