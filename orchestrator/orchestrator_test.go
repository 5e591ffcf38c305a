package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/internal/testutil"
	"github.com/shillcollin/reportgate/obs"
	"github.com/shillcollin/reportgate/retry"
)

var testPayload = core.NewPayload(
	core.Nested("strengths", core.F("focus", 8), core.F("empathy", 6)),
	core.Flat("summary", "steady and curious"),
	core.Nested("risks", core.F("burnout", "medium")),
)

func newTestOrchestrator(t *testing.T, p core.Provider, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{
		WithReportPolicy(retry.Constant(3, 0)),
		WithLogger(obs.Discard()),
	}, opts...)
	o, err := New(p, opts...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestGenerateReportSanitizesOutput(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Text = "## Foundations\n\n**Anna** is *steady*.\n\n\n\n- keep `going`"
	o := newTestOrchestrator(t, mock)

	rep, err := o.GenerateReport(context.Background(), testPayload, core.Identity{Name: "Anna"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.Degraded || rep.Attempts != 1 || rep.Model != "mock-model" {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Text != "Foundations\n\nAnna is steady.\n\nkeep going" {
		t.Fatalf("unexpected text %q", rep.Text)
	}

	req, _ := mock.LastCall()
	if !strings.Contains(req.System, "(Anna)") {
		t.Fatalf("system instructions should address the client: %q", req.System)
	}
	if len(req.Turns) != 1 || req.Turns[0].Role != core.User {
		t.Fatalf("payload should travel as one user turn: %+v", req.Turns)
	}
}

func TestGenerateReportEchoKeepsEverySection(t *testing.T) {
	o := newTestOrchestrator(t, testutil.Echo())
	rep, err := o.GenerateReport(context.Background(), testPayload, core.Identity{Name: "Anna"})
	if err != nil || rep.Degraded {
		t.Fatalf("unexpected result %+v, %v", rep, err)
	}
	for _, key := range testPayload.Keys() {
		if !strings.Contains(rep.Text, "["+strings.ToUpper(key)+"]") {
			t.Fatalf("section %s missing from prompt:\n%s", key, rep.Text)
		}
	}
	if strings.ContainsAny(rep.Text, "#*`") {
		t.Fatalf("report must be sanitized: %q", rep.Text)
	}
}

func TestGenerateReportDegradesAfterRetries(t *testing.T) {
	mock := testutil.Failing(core.NewError(core.ErrProviderError, "boom"))
	o := newTestOrchestrator(t, mock)

	rep, err := o.GenerateReport(context.Background(), testPayload, core.Identity{Name: "Anna"})
	if err != nil {
		t.Fatalf("provider failures must not surface: %v", err)
	}
	if !rep.Degraded || rep.Attempts != 3 || mock.CallCount() != 3 {
		t.Fatalf("expected three attempts then fallback, got %+v after %d calls", rep, mock.CallCount())
	}
	if !strings.Contains(rep.Text, "Analysis summary for Anna") || !strings.Contains(rep.Text, "STRENGTHS:") {
		t.Fatalf("fallback should be derived from the payload: %q", rep.Text)
	}
}

func TestGenerateReportStopsOnNonRetryableError(t *testing.T) {
	mock := testutil.Failing(core.NewError(core.ErrBadRequest, "unknown model"))
	o := newTestOrchestrator(t, mock)
	rep, _ := o.GenerateReport(context.Background(), testPayload, core.Identity{})
	if !rep.Degraded || mock.CallCount() != 1 {
		t.Fatalf("bad request should not be retried: %+v, calls %d", rep, mock.CallCount())
	}
}

func TestGenerateReportRetriesMarkupOnlyAnswer(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Script = []testutil.Step{{Text: "*** ###"}, {Text: "Plain answer"}}
	o := newTestOrchestrator(t, mock)
	rep, _ := o.GenerateReport(context.Background(), testPayload, core.Identity{})
	if rep.Degraded || rep.Attempts != 2 || rep.Text != "Plain answer" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestGenerateReportPayloadError(t *testing.T) {
	mock := testutil.NewMockProvider()
	o := newTestOrchestrator(t, mock)
	_, err := o.GenerateReport(context.Background(), core.Payload{}, core.Identity{})
	if !core.IsPayload(err) {
		t.Fatalf("expected payload error, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatalf("invalid payload must not reach the provider")
	}
}

func TestUnavailableOrchestrator(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	if o.Available() {
		t.Fatalf("nil provider should be unavailable")
	}
	rep, err := o.GenerateReport(context.Background(), testPayload, core.Identity{Name: "Anna"})
	if err != nil || !rep.Degraded || rep.Text == "" {
		t.Fatalf("unexpected report %+v, %v", rep, err)
	}
	if reply := o.Chat(context.Background(), "report", "why?"); !reply.Degraded || reply.Text != ChatUnavailable {
		t.Fatalf("unexpected chat reply %+v", reply)
	}
	if ext := o.ExtendedAnalysis(context.Background(), "base", "cv", "Anna"); !ext.Degraded || ext.Text != ExtendedUnavailable {
		t.Fatalf("unexpected extended result %+v", ext)
	}
}

func TestChatMessageListLayout(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Text = "**Because** you focus."
	o := newTestOrchestrator(t, mock, WithContextLimit(10))

	reply := o.Chat(context.Background(), "0123456789ABCDEF", "  why?  ")
	if reply.Degraded || reply.Text != "Because you focus." {
		t.Fatalf("unexpected reply %+v", reply)
	}
	req, _ := mock.LastCall()
	if req.MaxTokens != DefaultChatMaxTokens {
		t.Fatalf("chat should bound output tokens, got %d", req.MaxTokens)
	}
	if len(req.Turns) != 2 || req.Turns[0].Role != core.Assistant || req.Turns[1].Role != core.User {
		t.Fatalf("unexpected turns %+v", req.Turns)
	}
	if req.Turns[0].Text != "Here is your report: 0123456789" || req.Turns[1].Text != "why?" {
		t.Fatalf("context should be truncated and question trimmed: %+v", req.Turns)
	}
	if !strings.Contains(req.System, "same consultant") {
		t.Fatalf("chat should use its own instructions: %q", req.System)
	}
}

func TestChatSinglePromptLayout(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Caps.Variant = core.VariantSinglePrompt
	o := newTestOrchestrator(t, mock)
	o.Chat(context.Background(), "the report", "why?")
	req, _ := mock.LastCall()
	if len(req.Turns) != 1 || req.Turns[0].Text != "REPORT CONTEXT:\nthe report\n\nCLIENT QUESTION: why?" {
		t.Fatalf("unexpected single prompt turns %+v", req.Turns)
	}
}

func TestChatFailureIsSingleShotApology(t *testing.T) {
	mock := testutil.Failing(core.NewError(core.ErrRateLimited, "slow down"))
	o := newTestOrchestrator(t, mock)
	reply := o.Chat(context.Background(), "report", "why?")
	if !reply.Degraded || reply.Text != ChatApology {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("chat must not retry, got %d calls", mock.CallCount())
	}
}

func TestExtendedAnalysis(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.Text = "Strengths first."
	o := newTestOrchestrator(t, mock)
	rep := o.ExtendedAnalysis(context.Background(), "base text", "cv text", "Anna")
	if rep.Degraded || rep.Text != "Strengths first." {
		t.Fatalf("unexpected result %+v", rep)
	}
	req, _ := mock.LastCall()
	if !strings.Contains(req.System, "for Anna") {
		t.Fatalf("extended instructions should name the user: %q", req.System)
	}
	if req.Turns[0].Text != "BASE REPORT:\nbase text\n\nADDITIONAL DATA:\ncv text" {
		t.Fatalf("unexpected content %q", req.Turns[0].Text)
	}

	failing := testutil.Failing(core.NewError(core.ErrProviderError, "down"))
	rep = newTestOrchestrator(t, failing).ExtendedAnalysis(context.Background(), "b", "a", "")
	if !rep.Degraded || rep.Text != ExtendedUnavailable || rep.Attempts != 3 {
		t.Fatalf("unexpected degraded result %+v", rep)
	}
}

func TestCallTimeoutBoundsEachAttempt(t *testing.T) {
	mock := testutil.NewMockProvider()
	mock.OnComplete = func(ctx context.Context, req core.Request) (*core.Completion, error) {
		<-ctx.Done()
		return nil, core.TransportError(core.KindOpenAI, ctx.Err())
	}
	o := newTestOrchestrator(t, mock, WithCallTimeout(20*time.Millisecond), WithReportPolicy(retry.Once))

	start := time.Now()
	rep, _ := o.GenerateReport(context.Background(), testPayload, core.Identity{})
	if !rep.Degraded {
		t.Fatalf("stalled backend should degrade")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("call timeout not applied, took %s", elapsed)
	}
}
