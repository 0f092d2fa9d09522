// Package assistant forwards a visitor's conversation to a hosted chat model
// under the studio prompt and turns any lead in the exchange into a relay.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/capture"
	"github.com/elevated-ai-works/assistant/internal/extract"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/relay"
	"github.com/elevated-ai-works/assistant/internal/resilience"
)

var (
	// ErrNotConfigured means no provider credential is set.
	ErrNotConfigured = eris.New("assistant: provider not configured")
	// ErrTimeout means the provider did not answer before the turn deadline.
	ErrTimeout = eris.New("assistant: provider timed out")
	// ErrUpstream covers every other provider failure.
	ErrUpstream = eris.New("assistant: provider failed")
)

// Visitor-facing strings for failed turns.
const (
	TimeoutMessage     = "Sorry, the assistant is taking too long. Please try again."
	UnavailableMessage = "Sorry, the assistant is unavailable right now. Please try again soon."

	leadErrorMessage = "Lead could not be delivered."
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxHistory = 40
)

// UserMessage maps a Reply error to the text shown to the visitor. Provider
// error text is never included.
func UserMessage(err error) string {
	if errors.Is(err, ErrTimeout) {
		return TimeoutMessage
	}
	return UnavailableMessage
}

// LeadStore persists leads and their relay outcome.
type LeadStore interface {
	SaveLead(ctx context.Context, lead model.Lead) (string, error)
	MarkRelay(ctx context.Context, id string, status model.RelayStatus, relayErr string) error
}

// Meta carries request details that are not part of the JSON body.
type Meta struct {
	UserAgent string
}

// Proxy answers one chat turn per Reply call. It holds no per-visitor
// state and is safe for concurrent use.
type Proxy struct {
	provider   Provider
	relay      relay.Relayer
	store      LeadStore
	extractor  *extract.Extractor
	leadSource string
	timeout    time.Duration
	breaker    *resilience.Breaker
	maxHistory int
	debug      bool
	now        func() time.Time
	prompt     string
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithRelay sets the lead sink. Without one leads are stored as skipped.
func WithRelay(r relay.Relayer) Option {
	return func(p *Proxy) { p.relay = r }
}

// WithLeadStore persists every lead before relay.
func WithLeadStore(s LeadStore) Option {
	return func(p *Proxy) { p.store = s }
}

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Proxy) { p.extractor = e }
}

// WithLeadSource selects where leads come from: "extractor", "capture" or
// "none".
func WithLeadSource(src string) Option {
	return func(p *Proxy) { p.leadSource = src }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBreaker guards the provider with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(p *Proxy) { p.breaker = b }
}

// WithMaxHistory keeps only the last n client messages.
func WithMaxHistory(n int) Option {
	return func(p *Proxy) {
		if n > 0 {
			p.maxHistory = n
		}
	}
}

// WithDebug surfaces relay error text in responses.
func WithDebug(debug bool) Option {
	return func(p *Proxy) { p.debug = debug }
}

// WithClock overrides the clock used for captured leads.
func WithClock(now func() time.Time) Option {
	return func(p *Proxy) { p.now = now }
}

// NewProxy builds a proxy over provider. A nil provider yields a proxy that
// reports itself unavailable.
func NewProxy(provider Provider, opts ...Option) *Proxy {
	p := &Proxy{
		provider:   provider,
		relay:      relay.Noop{},
		extractor:  extract.New(),
		leadSource: LeadSourceExtractor,
		timeout:    defaultTimeout,
		maxHistory: defaultMaxHistory,
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.breaker == nil {
		p.breaker = resilience.NewBreaker("assistant", resilience.DefaultBreakerConfig())
	}
	p.prompt = SystemPrompt(p.leadSource)
	return p
}

// Available reports whether a provider is configured.
func (p *Proxy) Available() bool { return p.provider != nil }

// LeadSource returns the configured lead source.
func (p *Proxy) LeadSource() string { return p.leadSource }

// Reply runs one turn: it sends the filtered history to the provider under
// the studio prompt, then handles any lead. Lead delivery problems are
// reported in the response and never fail the turn.
func (p *Proxy) Reply(ctx context.Context, req model.AssistantRequest, meta Meta) (*model.AssistantResponse, error) {
	if !p.Available() {
		return nil, ErrNotConfigured
	}

	history := p.history(req.Messages)
	msgs := make([]model.Message, 0, len(history)+1)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: p.prompt})
	msgs = append(msgs, history...)

	text, err := p.complete(ctx, msgs)
	if err != nil {
		return nil, err
	}

	resp := &model.AssistantResponse{OK: true, Text: text}

	var lead *model.Lead
	switch p.leadSource {
	case LeadSourceCapture:
		parsed := capture.Parse(text)
		resp.Text = parsed.Display
		if parsed.Malformed {
			zap.L().Warn("assistant: malformed lead capture block")
		}
		if parsed.Lead != nil {
			if l, ok := parsed.Lead.ToLead(p.now()); ok {
				lead = l
			}
		}
	case LeadSourceExtractor:
		if l, ok := p.extractor.Extract(history); ok {
			lead = l
		}
	}

	if lead != nil {
		lead.PageURL = req.PageURL
		lead.UserAgent = meta.UserAgent
		p.handleLead(ctx, lead, resp)
	}
	return resp, nil
}

func (p *Proxy) history(in []model.Message) []model.Message {
	out := make([]model.Message, 0, len(in))
	for _, m := range in {
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, model.Message{Role: m.Role, Content: m.Content})
	}
	if len(out) > p.maxHistory {
		out = out[len(out)-p.maxHistory:]
	}
	return out
}

func (p *Proxy) complete(ctx context.Context, msgs []model.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := resilience.Call(callCtx, p.breaker, func(ctx context.Context) (string, error) {
		return p.provider.Complete(ctx, msgs)
	})
	if err == nil {
		zap.L().Info("assistant: turn complete",
			zap.String("provider", p.provider.Name()),
			zap.Int("messages", len(msgs)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return text, nil
	}

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		zap.L().Warn("assistant: provider timed out",
			zap.String("provider", p.provider.Name()),
			zap.Duration("timeout", p.timeout),
		)
		return "", eris.Wrap(err, ErrTimeout.Error())
	}
	zap.L().Error("assistant: provider failed",
		zap.String("provider", p.provider.Name()),
		zap.Error(err),
	)
	return "", eris.Wrap(err, ErrUpstream.Error())
}

// handleLead stores the lead, attempts exactly one relay and records the
// outcome on resp.
func (p *Proxy) handleLead(ctx context.Context, lead *model.Lead, resp *model.AssistantResponse) {
	log := zap.L().With(
		zap.String("email", model.MaskEmail(lead.Email)),
		zap.String("relay", p.relay.Name()),
	)

	if p.store != nil {
		id, err := p.store.SaveLead(ctx, *lead)
		if err != nil {
			log.Error("assistant: save lead failed", zap.Error(err))
		} else {
			lead.ID = id
		}
	}

	resp.Lead = lead
	sent := false
	resp.LeadSent = &sent

	status := model.RelaySent
	relayErr := p.relay.SendLead(ctx, *lead)
	switch {
	case relayErr == nil:
		sent = true
		log.Info("assistant: lead relayed")
	case errors.Is(relayErr, relay.ErrNotConfigured):
		status = model.RelaySkipped
		log.Info("assistant: lead captured, relay not configured")
	default:
		status = model.RelayFailed
		log.Warn("assistant: lead relay failed", zap.Error(relayErr))
	}

	if relayErr != nil {
		resp.LeadError = leadErrorMessage
		if p.debug {
			resp.LeadError = relayErr.Error()
		}
	}

	if p.store != nil && lead.ID != "" {
		errText := ""
		if relayErr != nil {
			errText = relayErr.Error()
		}
		if err := p.store.MarkRelay(ctx, lead.ID, status, errText); err != nil {
			log.Error("assistant: record relay status failed", zap.Error(err))
		}
	}
}
