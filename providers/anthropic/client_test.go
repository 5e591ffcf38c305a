package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shillcollin/reportgate/core"
)

type roundTrip func(*http.Request) (*http.Response, error)

func (r roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return r(req)
}

func reply(status int, body any) *http.Response {
	buf, _ := json.Marshal(body)
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(buf)), Header: http.Header{"Content-Type": []string{"application/json"}}}
}

func TestCompleteUsesSystemField(t *testing.T) {
	var payload map[string]any
	transport := roundTrip(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.Header.Get("X-API-Key") != "key" {
			t.Fatalf("missing api key header")
		}
		if req.Header.Get("anthropic-version") != APIVersion {
			t.Fatalf("missing version header")
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return reply(200, messagesResponse{
			ID:         "msg_123",
			Model:      "claude-3-7-sonnet-20250219",
			Content:    []anthropicContent{{Type: "text", Text: " Hello "}},
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 12, OutputTokens: 4},
		}), nil
	})

	client := New(
		WithAPIKey("key"),
		WithTemperature(core.Float(0.7)),
		WithHTTPClient(&http.Client{Transport: transport}),
	)

	res, err := client.Complete(context.Background(), core.Request{
		System: "write plainly",
		Turns:  []core.Turn{core.UserTurn("Name: Anna")},
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if res.Text != "Hello" || res.Usage.TotalTokens != 16 || res.FinishReason != "end_turn" {
		t.Fatalf("unexpected completion %+v", res)
	}
	if payload["system"] != "write plainly" || payload["model"] != DefaultModel {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if payload["max_tokens"] != float64(DefaultMaxTokens) || payload["temperature"] != 0.7 {
		t.Fatalf("unexpected sampling parameters %#v", payload)
	}
	msgs := payload["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["role"] != "user" {
		t.Fatalf("system must not be sent as a message: %#v", msgs)
	}
}

func TestBuildPayloadLeadingAssistantTurn(t *testing.T) {
	client := New(WithAPIKey("key"))
	payload := client.buildPayload(core.Request{
		System:    "answer briefly",
		Turns:     []core.Turn{core.AssistantTurn("Here is your report: r"), core.UserTurn("why?"), core.UserTurn("and how?")},
		MaxTokens: 1000,
	})
	if !strings.HasSuffix(payload.System, "\n\nHere is your report: r") {
		t.Fatalf("leading assistant turn should move into system: %q", payload.System)
	}
	if len(payload.Messages) != 1 || payload.Messages[0].Role != "user" || payload.Messages[0].Content != "why?\n\nand how?" {
		t.Fatalf("unexpected messages %+v", payload.Messages)
	}
	if payload.MaxTokens != 1000 || payload.Temperature != nil {
		t.Fatalf("unexpected bounds %+v", payload)
	}
}

func TestCompleteErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   any
		check  func(error) bool
		retry  bool
	}{
		{"overloaded", 529, map[string]any{"type": "error", "error": map[string]any{"type": "overloaded_error", "message": "Overloaded"}}, core.IsProviderError, true},
		{"rate limit", 429, map[string]any{"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow"}}, core.IsRateLimited, true},
		{"invalid", 400, map[string]any{"type": "error", "error": map[string]any{"type": "invalid_request_error", "message": "max_tokens too large"}}, core.IsBadRequest, false},
		{"empty", 200, messagesResponse{Content: []anthropicContent{{Type: "text", Text: "  "}}}, core.IsProviderError, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := New(WithAPIKey("key"), WithHTTPClient(&http.Client{Transport: roundTrip(func(*http.Request) (*http.Response, error) {
				return reply(tc.status, tc.body), nil
			})}))
			_, err := client.Complete(context.Background(), core.Request{Turns: []core.Turn{core.UserTurn("q")}})
			if !tc.check(err) || core.IsRetryable(err) != tc.retry {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestFactoryDefaults(t *testing.T) {
	f := &Factory{}
	cfg := f.Defaults(func(k string) string {
		switch k {
		case "ANTHROPIC_API_KEY":
			return "sk-ant"
		case "ANTHROPIC_MODEL":
			return "claude-sonnet-4-0"
		}
		return ""
	})
	if cfg.Model != "claude-sonnet-4-0" || cfg.MaxOutputTokens != DefaultMaxTokens || *cfg.Temperature != DefaultTemperature {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	p, err := f.New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if caps := p.Capabilities(); caps.Provider != core.KindAnthropic || caps.Variant != core.VariantMessageList {
		t.Fatalf("unexpected capabilities %+v", caps)
	}
}
