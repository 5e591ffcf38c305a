package compat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/shillcollin/reportgate/core"
)

type roundTrip func(*http.Request) (*http.Response, error)

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req)
}

func TestCompatComplete(t *testing.T) {
	var captured map[string]any
	transport := roundTrip(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "https://compat.example.com/v1/chat/completions" {
			t.Fatalf("unexpected url %s", req.URL)
		}
		if req.Header.Get("X-Extra") != "1" {
			t.Fatalf("custom header missing")
		}
		_ = json.NewDecoder(req.Body).Decode(&captured)
		resp := map[string]any{
			"id":    "chatcmpl",
			"model": "compat-model",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "Compat"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		}
		buf, _ := json.Marshal(resp)
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(buf)), Header: http.Header{"Content-Type": []string{"application/json"}}}, nil
	})

	client := New(CompatOpts{
		Kind:        core.KindPerplexity,
		BaseURL:     "https://compat.example.com/v1",
		APIKey:      "key",
		Model:       "o3-looking-name",
		Temperature: core.Float(0.6),
		MaxTokens:   8000,
		Headers:     map[string]string{"X-Extra": "1"},
		HTTPClient:  &http.Client{Transport: transport},
	})

	res, err := client.Complete(context.Background(), core.Request{Turns: []core.Turn{core.UserTurn("hello")}})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if res.Text != "Compat" || res.Provider != core.KindPerplexity {
		t.Fatalf("unexpected completion: %+v", res)
	}
	if captured["temperature"] != 0.6 || captured["max_tokens"] != float64(8000) {
		t.Fatalf("compat backends use the default profile: %#v", captured)
	}
	if caps := client.Capabilities(); caps.Provider != core.KindPerplexity || !caps.SupportsTemperature {
		t.Fatalf("unexpected capabilities %+v", caps)
	}
}

func TestCompatErrorsCarryKind(t *testing.T) {
	client := New(CompatOpts{
		Kind:    core.KindGroq,
		BaseURL: "https://compat.example.com/v1",
		APIKey:  "key",
		Model:   "m",
		HTTPClient: &http.Client{Transport: roundTrip(func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: 503, Body: io.NopCloser(bytes.NewReader([]byte("overloaded")))}, nil
		})},
	})
	_, err := client.Complete(context.Background(), core.Request{Turns: []core.Turn{core.UserTurn("hello")}})
	ai, ok := err.(*core.AIError)
	if !ok || ai.Provider != core.KindGroq || !ai.Retryable {
		t.Fatalf("unexpected error %#v", err)
	}
}
