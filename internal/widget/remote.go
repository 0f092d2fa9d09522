// Package widget is the visitor-side chat: local quote and privacy
// handling, the remote assistant call, and the session state machine that
// ties them to persisted history.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/model"
)

const (
	defaultAskTimeout = 30 * time.Second
	maxResponseBody   = 1 << 20
)

var (
	// ErrTimeout means the assistant did not answer within the ask timeout.
	ErrTimeout = eris.New("widget: assistant timed out")
	// ErrUnavailable covers a missing assistant and any transport or server
	// failure.
	ErrUnavailable = eris.New("widget: assistant unavailable")
)

// ServerError is an ok:false reply delivered with a success status.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "Assistant error"
	}
	return e.Message
}

// Assistant answers one turn for the visitor's history.
type Assistant interface {
	Ask(ctx context.Context, history []model.Message, pageURL string) (*model.AssistantResponse, error)
}

// RemoteAssistant calls the proxy's /api/assistant endpoint.
type RemoteAssistant struct {
	url     string
	http    *http.Client
	timeout time.Duration
}

// RemoteOption configures a RemoteAssistant.
type RemoteOption func(*RemoteAssistant)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(r *RemoteAssistant) {
		if hc != nil {
			r.http = hc
		}
	}
}

// WithAskTimeout overrides the 30 second turn timeout.
func WithAskTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteAssistant) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRemoteAssistant targets the proxy at serverURL.
func NewRemoteAssistant(serverURL string, opts ...RemoteOption) *RemoteAssistant {
	r := &RemoteAssistant{
		url:     strings.TrimRight(serverURL, "/") + "/api/assistant",
		http:    &http.Client{},
		timeout: defaultAskTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Ask posts history and returns the proxy's reply. The call is abandoned
// after the ask timeout and never retried.
func (r *RemoteAssistant) Ask(ctx context.Context, history []model.Message, pageURL string) (*model.AssistantResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msgs := make([]model.Message, len(history))
	for i, m := range history {
		msgs[i] = model.Message{Role: m.Role, Content: m.Content}
	}
	body, err := json.Marshal(model.AssistantRequest{Messages: msgs, PageURL: pageURL})
	if err != nil {
		return nil, eris.Wrap(err, "widget: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "widget: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		zap.L().Debug("widget: assistant request failed", zap.Error(err))
		return nil, ErrUnavailable
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrUnavailable
	}

	// The proxy answers 504 when its own upstream call ran out of time.
	if resp.StatusCode == http.StatusGatewayTimeout {
		return nil, ErrTimeout
	}
	if resp.StatusCode/100 != 2 {
		zap.L().Debug("widget: assistant returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return nil, ErrUnavailable
	}

	var out model.AssistantResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		zap.L().Debug("widget: assistant returned non-JSON body", zap.Error(err))
		return nil, ErrUnavailable
	}
	if !out.OK {
		return nil, &ServerError{Message: out.Error}
	}
	return &out, nil
}
