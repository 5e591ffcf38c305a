// Package orchestrator turns analysis payloads and follow-up questions into
// model requests, applying per-operation retry policies and falling back to
// locally assembled text when the backend cannot answer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/internal/tokens"
	"github.com/shillcollin/reportgate/obs"
	"github.com/shillcollin/reportgate/prompts"
	"github.com/shillcollin/reportgate/retry"
	"github.com/shillcollin/reportgate/sanitize"
)

// Fixed user-facing texts for degraded outcomes.
const (
	ChatUnavailable     = "The language model is unavailable."
	ChatApology         = "Sorry, a technical problem occurred. Please try asking your question differently."
	ExtendedUnavailable = "The language model is unavailable."
)

const (
	opReport   = "report"
	opChat     = "chat"
	opExtended = "extended_analysis"
)

// Report is the outcome of report generation or extended analysis.
type Report struct {
	Text string
	// Degraded is true when Text was assembled locally instead of by the model.
	Degraded bool
	Attempts int
	Model    string
}

// ChatReply is the outcome of one follow-up question.
type ChatReply struct {
	Text     string
	Degraded bool
}

// Orchestrator owns the selected provider and the system instructions.
type Orchestrator struct {
	provider core.Provider
	opts     options
}

// New builds an orchestrator. A nil provider yields an orchestrator whose
// operations always degrade.
func New(provider core.Provider, opts ...Option) (*Orchestrator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.prompts == nil {
		reg, err := prompts.Default()
		if err != nil {
			return nil, fmt.Errorf("load builtin prompts: %w", err)
		}
		o.prompts = reg
	}
	return &Orchestrator{provider: provider, opts: o}, nil
}

// Available reports whether a provider is configured.
func (o *Orchestrator) Available() bool { return o.provider != nil }

// Capabilities returns the provider's capabilities, or the zero value when
// unavailable.
func (o *Orchestrator) Capabilities() core.Capabilities {
	if o.provider == nil {
		return core.Capabilities{}
	}
	return o.provider.Capabilities()
}

// GenerateReport renders the payload and asks the model for a report. Only
// payload validation errors are returned; every provider failure degrades to
// the fallback summary.
func (o *Orchestrator) GenerateReport(ctx context.Context, payload core.Payload, id core.Identity) (Report, error) {
	if err := payload.Validate(); err != nil {
		return Report{}, err
	}
	fallback := func() Report {
		obs.RecordDegraded(opReport)
		return Report{Text: FallbackSummary(payload, id), Degraded: true}
	}
	if o.provider == nil {
		return fallback(), nil
	}

	system, _, err := o.opts.prompts.Render(ctx, prompts.Report, "", map[string]any{"Name": id.DisplayName()})
	if err != nil {
		o.opts.logger.Error("render report instructions", slog.Any("error", err))
		return fallback(), nil
	}
	req := core.Request{
		System: system,
		Turns:  []core.Turn{core.UserTurn(RenderPayload(payload, id))},
	}
	res, err := o.complete(ctx, opReport, o.opts.reportPolicy, req)
	if err != nil {
		r := fallback()
		r.Attempts = res.attempts
		return r, nil
	}
	return Report{Text: res.text, Attempts: res.attempts, Model: res.model}, nil
}

// Chat answers one question about a previously generated report. It makes a
// single attempt under the chat policy and never returns an error.
func (o *Orchestrator) Chat(ctx context.Context, reportContext, question string) ChatReply {
	if o.provider == nil {
		obs.RecordDegraded(opChat)
		return ChatReply{Text: ChatUnavailable, Degraded: true}
	}
	system, _, err := o.opts.prompts.Render(ctx, prompts.Chat, "", nil)
	if err != nil {
		o.opts.logger.Error("render chat instructions", slog.Any("error", err))
		obs.RecordDegraded(opChat)
		return ChatReply{Text: ChatApology, Degraded: true}
	}

	reportContext = sanitize.Truncate(strings.TrimSpace(reportContext), o.opts.contextLimit)
	question = strings.TrimSpace(question)
	req := core.Request{System: system, MaxTokens: o.opts.chatMaxTokens}
	if o.provider.Capabilities().Variant == core.VariantSinglePrompt {
		req.Turns = []core.Turn{core.UserTurn("REPORT CONTEXT:\n" + reportContext + "\n\nCLIENT QUESTION: " + question)}
	} else {
		req.Turns = []core.Turn{
			core.AssistantTurn("Here is your report: " + reportContext),
			core.UserTurn(question),
		}
	}

	res, err := o.complete(ctx, opChat, o.opts.chatPolicy, req)
	if err != nil {
		obs.RecordDegraded(opChat)
		return ChatReply{Text: ChatApology, Degraded: true}
	}
	return ChatReply{Text: res.text}
}

// ExtendedAnalysis produces growth recommendations from a base report and
// extracted attachment text under the report retry policy.
func (o *Orchestrator) ExtendedAnalysis(ctx context.Context, baseReport, attachments, userName string) Report {
	degraded := func(attempts int) Report {
		obs.RecordDegraded(opExtended)
		return Report{Text: ExtendedUnavailable, Degraded: true, Attempts: attempts}
	}
	if o.provider == nil {
		return degraded(0)
	}
	system, _, err := o.opts.prompts.Render(ctx, prompts.Extended, "", map[string]any{"UserName": strings.TrimSpace(userName)})
	if err != nil {
		o.opts.logger.Error("render extended instructions", slog.Any("error", err))
		return degraded(0)
	}
	content := "BASE REPORT:\n" + strings.TrimSpace(baseReport) +
		"\n\nADDITIONAL DATA:\n" + strings.TrimSpace(attachments)
	req := core.Request{System: system, Turns: []core.Turn{core.UserTurn(content)}}

	res, err := o.complete(ctx, opExtended, o.opts.reportPolicy, req)
	if err != nil {
		return degraded(res.attempts)
	}
	return Report{Text: res.text, Attempts: res.attempts, Model: res.model}
}

type result struct {
	text     string
	model    string
	attempts int
}

var errEmptyAfterClean = core.NewError(core.ErrProviderError, "response empty after sanitizing")

// complete runs req under policy, giving each attempt its own call timeout.
// Text is sanitized before it is accepted, so an answer made only of markup
// counts as a failed attempt.
func (o *Orchestrator) complete(ctx context.Context, op string, policy retry.Policy, req core.Request) (result, error) {
	requestID := uuid.NewString()
	logger := o.opts.logger.With(slog.String("operation", op), slog.String("request_id", requestID))
	start := o.opts.now()

	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		obs.RecordRetry(op, attribute.String("ai.provider", string(o.provider.Capabilities().Provider)))
		logger.Warn("provider attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err))
	}

	var out result
	var last *core.Completion
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.callTimeout)
		defer cancel()
		c, err := o.provider.Complete(callCtx, req)
		if err != nil {
			return err
		}
		last = c
		text := sanitize.Clean(c.Text)
		if text == "" {
			return errEmptyAfterClean
		}
		out.text = text
		out.model = c.Model
		return nil
	})
	out.attempts = attempts

	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) || core.IsCanceled(err) {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "provider call failed",
			slog.Int("attempts", attempts),
			slog.Any("error", err))
	}
	o.logCompletion(ctx, op, requestID, req, out, last, err, start)
	return out, err
}

func (o *Orchestrator) logCompletion(ctx context.Context, op, requestID string, req core.Request, res result, c *core.Completion, err error, start time.Time) {
	caps := o.provider.Capabilities()
	record := obs.Completion{
		Operation:    op,
		Provider:     string(caps.Provider),
		Model:        caps.Model,
		RequestID:    requestID,
		Input:        obs.MessagesFromRequest(req),
		Output:       obs.AssistantMessage(res.text),
		LatencyMS:    o.opts.now().Sub(start).Milliseconds(),
		Attempts:     res.attempts,
		Degraded:     err != nil,
		CreatedAtUTC: obs.NowMillis(),
	}
	if c != nil {
		usage, estimated := tokens.FillUsage(c.Usage, req, c.Text)
		record.Usage = obs.UsageFromCore(usage)
		if estimated {
			record.Metadata = map[string]any{"usage_estimated": true}
		}
		if c.Model != "" {
			record.Model = c.Model
		}
	}
	if err != nil {
		record.Error = err.Error()
	}
	obs.LogCompletion(context.WithoutCancel(ctx), record)
}
