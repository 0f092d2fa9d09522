// Package notion files captured leads as pages in a Notion database.
package notion

import (
	"context"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultRateLimit matches Notion's published average of 3 requests/s per
// integration.
const DefaultRateLimit = 3.0

// Client is the single Notion call a lead relay makes.
type Client interface {
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type options struct {
	rps     float64
	timeout time.Duration
	http    *http.Client
}

// Option configures NewClient.
type Option func(*options)

// WithRateLimit throttles page creation to rps. Zero or less disables it.
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.rps = rps }
}

// WithTimeout bounds each request. Ignored when WithHTTPClient is set.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient replaces the HTTP client the SDK uses.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

type leadClient struct {
	pages   notionapi.PageService
	limiter *rate.Limiter
}

// NewClient builds a client for an integration token.
//
// A lead is offered to Notion once per chat turn, so the SDK's 429 retry
// loop is limited to the first attempt and a throttled create surfaces as
// a relay failure.
func NewClient(token string, opts ...Option) Client {
	o := options{rps: DefaultRateLimit}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.http
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}

	// notionapi counts failed attempts before comparing, so 1 means no retry.
	api := notionapi.NewClient(notionapi.Token(token),
		notionapi.WithHTTPClient(hc),
		notionapi.WithRetry(1),
	)

	c := &leadClient{pages: api.Page}
	if o.rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.rps), max(int(o.rps), 1))
	}
	return c
}

func (c *leadClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "notion: wait for rate limit")
		}
	}
	page, err := c.pages.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}
