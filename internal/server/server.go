// Package server exposes the assistant proxy over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elevated-ai-works/assistant/internal/assistant"
	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/model"
)

// Assistant answers chat turns.
type Assistant interface {
	Reply(ctx context.Context, req model.AssistantRequest, meta assistant.Meta) (*model.AssistantResponse, error)
	Available() bool
	LeadSource() string
}

// allowedHeaders matches what browser clients of the hosted function send.
var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// Server is the HTTP front of the assistant proxy.
type Server struct {
	cfg        config.ServerConfig
	chat       Assistant
	missingKey string
	limiter    *ipLimiter
	router     chi.Router
}

// New builds the router. provider names the credential reported when the
// assistant is unavailable.
func New(cfg config.ServerConfig, provider string, a Assistant) *Server {
	s := &Server{
		cfg:        cfg,
		chat:       a,
		missingKey: missingKeyName(provider),
		limiter:    newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: allowedHeaders,
		MaxAge:         300,
	}))

	r.MethodNotAllowed(s.handleMethodNotAllowed)
	r.Get("/health", s.handleHealth)
	r.Get("/api/quotes", s.handleQuotes)
	r.Get("/api/config", s.handleConfig)
	r.Options("/api/assistant", s.handlePreflight)
	r.With(s.limiter.middleware).Post("/api/assistant", s.handleAssistant)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("server: listening",
			zap.Int("port", s.cfg.Port),
			zap.Bool("assistant_available", s.chat.Available()),
			zap.String("lead_source", s.chat.LeadSource()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("server: shutting down")

		timeout := time.Duration(s.cfg.ShutdownTimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
	})
	return g.Wait()
}

func missingKeyName(provider string) string {
	return "ASSISTANT_" + strings.ToUpper(provider) + "_KEY"
}

// requestLogger logs one line per request through zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
