package perplexity

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/shillcollin/reportgate/core"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestFactoryBuildsPerplexityClient(t *testing.T) {
	f := &Factory{}
	cfg := f.Defaults(func(k string) string {
		if k == "PERPLEXITY_API_KEY" {
			return "pplx"
		}
		return ""
	})
	if cfg.Model != DefaultModel || *cfg.Temperature != DefaultTemperature || cfg.MaxOutputTokens != DefaultMaxTokens {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	cfg.HTTPClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.String() != DefaultBaseURL+"/chat/completions" {
			t.Fatalf("unexpected url %s", r.URL)
		}
		body := `{"model":"sonar-pro","choices":[{"message":{"role":"assistant","content":"answer"},"finish_reason":"stop"}]}`
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
	})}
	p, err := f.New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := p.Complete(context.Background(), core.Request{Turns: []core.Turn{core.UserTurn("q")}})
	if err != nil || res.Text != "answer" || res.Provider != core.KindPerplexity {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
}

func TestFactoryRequiresKey(t *testing.T) {
	f := &Factory{}
	if _, err := f.New(f.Defaults(func(string) string { return "" })); !core.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
