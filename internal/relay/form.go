package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/resilience"
)

const defaultFormTimeout = 10 * time.Second

// FormPayload is the JSON body posted to the form-relay endpoint. Both the
// extractor field names (business, budget) and the capture field names
// (service_interest, estimated_range) are sent so either form schema works.
type FormPayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Business        string `json:"business"`
	ServiceInterest string `json:"service_interest"`
	Budget          string `json:"budget"`
	EstimatedRange  string `json:"estimated_range"`
	Timeline        string `json:"timeline"`
	Notes           string `json:"notes"`
	PageURL         string `json:"pageUrl"`
	UserAgent       string `json:"userAgent"`
	Source          string `json:"source"`
	Subject         string `json:"_subject"`
}

// NewFormPayload maps a lead onto the relay body.
func NewFormPayload(lead model.Lead) FormPayload {
	return FormPayload{
		Name:            lead.Name,
		Email:           lead.Email,
		Business:        lead.Business,
		ServiceInterest: string(lead.Service),
		Budget:          lead.Budget,
		EstimatedRange:  lead.Budget,
		Timeline:        lead.Timeline,
		Notes:           lead.Notes,
		PageURL:         lead.PageURL,
		UserAgent:       lead.UserAgent,
		Source:          lead.Source,
		Subject:         "New assistant lead: " + lead.DisplayName(),
	}
}

// FormRelay posts leads as JSON to a form-submission service.
type FormRelay struct {
	url     string
	http    *http.Client
	timeout time.Duration
}

// FormOption configures a FormRelay.
type FormOption func(*FormRelay)

// WithHTTPClient sets the HTTP client used for relay requests.
func WithHTTPClient(c *http.Client) FormOption {
	return func(r *FormRelay) {
		if c != nil {
			r.http = c
		}
	}
}

// WithTimeout bounds each relay request.
func WithTimeout(d time.Duration) FormOption {
	return func(r *FormRelay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewFormRelay creates a relay that posts to url.
func NewFormRelay(url string, opts ...FormOption) *FormRelay {
	r := &FormRelay{
		url:     url,
		http:    &http.Client{},
		timeout: defaultFormTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *FormRelay) Name() string { return "form" }

// SendLead performs exactly one POST. Any 2xx is success.
func (r *FormRelay) SendLead(ctx context.Context, lead model.Lead) error {
	body, err := json.Marshal(NewFormPayload(lead))
	if err != nil {
		return eris.Wrap(err, "relay: marshal form payload")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "relay: build form request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "relay: post form")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse("relay", resp); err != nil {
		zap.L().Warn("relay: form rejected lead",
			zap.Int("status", resp.StatusCode),
			zap.Bool("transient", resilience.IsTransient(err)),
		)
		return err
	}

	zap.L().Info("relay: lead sent",
		zap.String("relay", r.Name()),
		zap.String("email", model.MaskEmail(lead.Email)),
	)
	return nil
}
