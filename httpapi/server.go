// Package httpapi exposes the gateway over JSON HTTP endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/gateway"
	"github.com/shillcollin/reportgate/sanitize"
	"github.com/shillcollin/reportgate/session"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	// SessionIDHeader optionally names the chat session.
	SessionIDHeader = "X-Session-ID"

	maxBodyBytes = 8 << 20
)

// Server exposes HTTP endpoints for report generation and chat.
type Server struct {
	gw     *gateway.Gateway
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for session identity buckets.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer constructs a Server over gw.
func NewServer(gw *gateway.Gateway, opts ...Option) *Server {
	s := &Server{gw: gw, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register wires the server endpoints onto the provided mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/extended_analysis", s.handleExtended)
	mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the endpoints wrapped with request id and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.withRequestID(mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := s.now()
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", s.now().Sub(start)))
	})
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Identity core.Identity `json:"identity"`
	Payload  core.Payload  `json:"payload"`
}

type analyzeResponse struct {
	ReportText   string `json:"report_text"`
	Degraded     bool   `json:"degraded"`
	LLMAvailable bool   `json:"llm_available"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query    string `json:"query"`
	Context  string `json:"context"`
	UserName string `json:"user_name"`
}

type chatResponse struct {
	Reply         string `json:"reply"`
	SessionID     string `json:"session_id"`
	QuestionsUsed int    `json:"questions_used"`
	Limit         int    `json:"limit"`
	Limited       bool   `json:"limited"`
	Degraded      bool   `json:"degraded"`
}

// ExtendedRequest is the body of POST /extended_analysis.
type ExtendedRequest struct {
	BaseReport      string `json:"base_report"`
	AttachmentsText string `json:"attachments_text"`
	UserName        string `json:"user_name"`
}

type extendedResponse struct {
	Extended string `json:"extended"`
	Degraded bool   `json:"degraded"`
}

type healthResponse struct {
	Status         string `json:"status"`
	LLMAvailable   bool   `json:"llm_available"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	ActiveSessions int    `json:"active_sessions"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.gw.GenerateReport(r.Context(), req.Payload, req.Identity)
	if err != nil {
		if core.IsPayload(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		ReportText:   sanitize.DisplayText(resp.ReportText, 0),
		Degraded:     resp.Degraded,
		LLMAvailable: s.gw.Health().ProviderAvailable,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req ChatRequest
	if !decode(w, r, &req) {
		return
	}
	id := session.ResolveID(r.Header.Get(SessionIDHeader), req.UserName, r.RemoteAddr, s.now())
	resp := s.gw.Chat(r.Context(), id, req.Context, req.Query)
	writeJSON(w, http.StatusOK, chatResponse{
		Reply:         sanitize.DisplayText(resp.Reply, 0),
		SessionID:     resp.SessionID,
		QuestionsUsed: resp.QuestionsUsed,
		Limit:         resp.Limit,
		Limited:       resp.Limited,
		Degraded:      resp.Degraded,
	})
}

func (s *Server) handleExtended(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req ExtendedRequest
	if !decode(w, r, &req) {
		return
	}
	resp := s.gw.ExtendedAnalysis(r.Context(), req.BaseReport, req.AttachmentsText, req.UserName)
	writeJSON(w, http.StatusOK, extendedResponse{
		Extended: sanitize.DisplayText(resp.Text, 0),
		Degraded: resp.Degraded,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	h := s.gw.Health()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		LLMAvailable:   h.ProviderAvailable,
		Provider:       string(h.Provider),
		Model:          h.Model,
		ActiveSessions: h.ActiveSessions,
	})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
