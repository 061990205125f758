// Package httpapi exposes the pipeline and its supporting services over a
// JSON HTTP surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/maestroia/maestro-go/billing"
	"github.com/maestroia/maestro-go/maestro"
	"github.com/maestroia/maestro-go/social"
	"github.com/maestroia/maestro-go/store"
	"github.com/maestroia/maestro-go/tokenstore"
)

// Runner executes one pipeline run. The concrete pipeline satisfies it; tests
// substitute a stub.
type Runner interface {
	Run(ctx context.Context, initial *maestro.CampaignState) (*maestro.CampaignState, error)
	Descriptors() []maestro.StageDescriptor
}

// History persists and lists campaign runs.
type History interface {
	SaveRun(ctx context.Context, userKey string, final *maestro.CampaignState) (int64, error)
	ListRuns(ctx context.Context, userKey string) ([]store.Run, error)
	CountRuns(ctx context.Context, userKey string) (int, error)
}

// TokenSaver persists OAuth tokens from the callback flow.
type TokenSaver interface {
	Save(ctx context.Context, provider, userKey string, token tokenstore.Token) error
}

// Server is the HTTP front for the pipeline.
type Server struct {
	runner  Runner
	history History
	tokens  TokenSaver
	meta    *social.MetaClient
	billing *billing.Processor

	metaRedirectURI string
	maxRunsPerUser  int
	logger          *slog.Logger
	mux             *http.ServeMux
	server          *http.Server
	mu              sync.Mutex
}

// Options carries the optional collaborators; any may be nil and its
// endpoints respond 503.
type Options struct {
	History         History
	Tokens          TokenSaver
	Meta            *social.MetaClient
	Billing         *billing.Processor
	MetaRedirectURI string

	// MaxRunsPerUser caps stored campaign runs per user key; zero means no
	// cap. Enforced only when History is configured.
	MaxRunsPerUser int

	Logger *slog.Logger
}

// NewServer creates the server on addr.
func NewServer(addr string, runner Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		runner:          runner,
		history:         opts.History,
		tokens:          opts.Tokens,
		meta:            opts.Meta,
		billing:         opts.Billing,
		metaRedirectURI: opts.MetaRedirectURI,
		maxRunsPerUser:  opts.MaxRunsPerUser,
		logger:          opts.Logger,
		mux:             mux,
		server:          &http.Server{Addr: addr, Handler: mux},
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /pipeline", s.handlePipeline)
	mux.HandleFunc("POST /campaign/run", s.handleRun)
	mux.HandleFunc("GET /campaign/history", s.handleHistory)
	mux.HandleFunc("POST /webhook/payments", s.handlePaymentWebhook)
	mux.HandleFunc("GET /auth/meta/start", s.handleMetaStart)
	mux.HandleFunc("GET /auth/meta/callback", s.handleMetaCallback)

	return s
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("http api listening", "addr", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{"stages": s.runner.Descriptors()})
}

func userKey(r *http.Request) string {
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return "anonymous"
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	initial := &maestro.CampaignState{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, initial); err != nil {
			s.sendError(w, http.StatusBadRequest, "invalid campaign state payload")
			return
		}
	}

	if s.history != nil && s.maxRunsPerUser > 0 {
		count, err := s.history.CountRuns(r.Context(), userKey(r))
		if err != nil {
			s.logger.ErrorContext(r.Context(), "failed to count runs", "error", err)
			s.sendError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if count >= s.maxRunsPerUser {
			s.sendError(w, http.StatusTooManyRequests, "campaign limit reached for this user")
			return
		}
	}

	final, err := s.runner.Run(r.Context(), initial)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "pipeline run failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if s.history != nil {
		if _, err := s.history.SaveRun(r.Context(), userKey(r), final); err != nil {
			// History is best-effort; the run result still goes out.
			s.logger.ErrorContext(r.Context(), "failed to save run", "error", err)
		}
	}

	s.sendJSON(w, http.StatusOK, final)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.sendError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}
	runs, err := s.history.ListRuns(r.Context(), userKey(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list runs", "error", err)
		s.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"history": runs})
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		s.sendError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "failed to read webhook payload")
		return
	}
	defer r.Body.Close()

	status, err := s.billing.Process(r.Context(), payload)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "webhook processing failed", "error", err)
		s.sendError(w, http.StatusBadRequest, "webhook processing failed")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleMetaStart(w http.ResponseWriter, r *http.Request) {
	if s.meta == nil {
		s.sendError(w, http.StatusServiceUnavailable, "meta integration is not configured")
		return
	}
	url := s.meta.AuthURL(s.metaRedirectURI, r.URL.Query().Get("scope"))
	s.sendJSON(w, http.StatusOK, map[string]string{"auth_url": url})
}

func (s *Server) handleMetaCallback(w http.ResponseWriter, r *http.Request) {
	if s.meta == nil || s.tokens == nil {
		s.sendError(w, http.StatusServiceUnavailable, "meta integration is not configured")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		s.sendError(w, http.StatusBadRequest, "missing authorization code")
		return
	}
	user := r.URL.Query().Get("state")
	if user == "" {
		user = "anonymous"
	}

	token, err := s.meta.ExchangeCode(r.Context(), code, s.metaRedirectURI)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "code exchange failed", "error", err)
		s.sendError(w, http.StatusBadGateway, "code exchange failed")
		return
	}
	if err := s.tokens.Save(r.Context(), "meta", user, *token); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to persist token", "error", err)
		s.sendError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok", "user": user})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, msg string) {
	s.sendJSON(w, status, map[string]string{"error": msg})
}
