// Package gateway is the request boundary: it resolves quotas, calls the
// orchestrator and shapes responses. Only payload errors escape it.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/obs"
	"github.com/shillcollin/reportgate/orchestrator"
	"github.com/shillcollin/reportgate/session"
)

// DefaultQuestionLimit is the per-session chat quota.
const DefaultQuestionLimit = 15

// Analyst is the orchestrator surface the gateway depends on.
type Analyst interface {
	Available() bool
	Capabilities() core.Capabilities
	GenerateReport(ctx context.Context, payload core.Payload, id core.Identity) (orchestrator.Report, error)
	Chat(ctx context.Context, reportContext, question string) orchestrator.ChatReply
	ExtendedAnalysis(ctx context.Context, baseReport, attachments, userName string) orchestrator.Report
}

// ReportResponse is returned by GenerateReport.
type ReportResponse struct {
	ReportText string
	Degraded   bool
}

// ChatResponse is returned by Chat. Limited is true when the session had
// already used its quota; QuestionsUsed is then unchanged.
type ChatResponse struct {
	Reply         string
	SessionID     string
	QuestionsUsed int
	Limit         int
	Limited       bool
	Degraded      bool
}

// ExtendedResponse is returned by ExtendedAnalysis.
type ExtendedResponse struct {
	Text     string
	Degraded bool
}

// Health describes the gateway state.
type Health struct {
	ProviderAvailable bool
	Provider          core.Kind
	Model             string
	ActiveSessions    int
}

// Gateway serves report, chat and extended analysis calls.
type Gateway struct {
	analyst  Analyst
	sessions *session.Store
	limit    int
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithQuestionLimit sets the per-session chat quota.
func WithQuestionLimit(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.limit = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides time.Now for session sweeps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// New builds a gateway over analyst and a session store owned by the caller.
func New(analyst Analyst, sessions *session.Store, opts ...Option) *Gateway {
	g := &Gateway{
		analyst:  analyst,
		sessions: sessions,
		limit:    DefaultQuestionLimit,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sessions == nil {
		g.sessions = session.NewStore(session.WithClock(g.now))
	}
	return g
}

// Limit returns the per-session chat quota.
func (g *Gateway) Limit() int { return g.limit }

// RefusalText is the reply for a session that has used its quota.
func RefusalText(limit int) string {
	return fmt.Sprintf("The limit of %d questions for this session has been reached. To continue, clear the chat history or start a new session.", limit)
}

// GenerateReport produces report text for payload. The error is non-nil only
// for an unusable payload.
func (g *Gateway) GenerateReport(ctx context.Context, payload core.Payload, id core.Identity) (ReportResponse, error) {
	rep, err := g.analyst.GenerateReport(ctx, payload, id)
	if err != nil {
		g.logger.Info("report rejected", slog.Any("error", err))
		return ReportResponse{}, err
	}
	g.logger.Info("report generated",
		slog.Bool("degraded", rep.Degraded),
		slog.Int("attempts", rep.Attempts),
		slog.Int("chars", len(rep.Text)))
	return ReportResponse{ReportText: rep.Text, Degraded: rep.Degraded}, nil
}

// Chat answers a follow-up question under the session quota. Quota is only
// charged immediately before the orchestrator is called.
func (g *Gateway) Chat(ctx context.Context, sessionID, reportContext, question string) ChatResponse {
	if removed := g.sessions.SweepExpired(g.now()); removed > 0 {
		g.logger.Debug("expired sessions swept", slog.Int("removed", removed))
	}
	resp := ChatResponse{SessionID: sessionID, Limit: g.limit}

	if !g.analyst.Available() {
		resp.Reply = orchestrator.ChatUnavailable
		resp.Degraded = true
		resp.QuestionsUsed = g.sessions.CurrentCount(sessionID)
		return resp
	}
	if ctx.Err() != nil {
		resp.Reply = orchestrator.ChatApology
		resp.Degraded = true
		resp.QuestionsUsed = g.sessions.CurrentCount(sessionID)
		return resp
	}

	count, ok := g.sessions.Acquire(sessionID, g.limit)
	resp.QuestionsUsed = count
	if !ok {
		obs.RecordLimited(attribute.Int("limit", g.limit))
		g.logger.Info("chat quota exhausted", slog.String("session_id", sessionID), slog.Int("used", count))
		resp.Reply = RefusalText(g.limit)
		resp.Limited = true
		return resp
	}

	g.logger.Info("chat dispatched",
		slog.String("session_id", sessionID),
		slog.Int("used", count),
		slog.Int("context_chars", len(reportContext)),
		slog.Int("question_chars", len(question)))
	reply := g.analyst.Chat(ctx, reportContext, question)
	resp.Reply = reply.Text
	resp.Degraded = reply.Degraded
	return resp
}

// ExtendedAnalysis produces recommendations from a base report and
// attachment text.
func (g *Gateway) ExtendedAnalysis(ctx context.Context, baseReport, attachments, userName string) ExtendedResponse {
	rep := g.analyst.ExtendedAnalysis(ctx, baseReport, attachments, userName)
	return ExtendedResponse{Text: rep.Text, Degraded: rep.Degraded}
}

// Health reports provider availability and session usage.
func (g *Gateway) Health() Health {
	caps := g.analyst.Capabilities()
	return Health{
		ProviderAvailable: g.analyst.Available(),
		Provider:          caps.Provider,
		Model:             caps.Model,
		ActiveSessions:    g.sessions.Len(),
	}
}
