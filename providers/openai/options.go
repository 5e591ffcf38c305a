package openai

import (
	"net/http"
	"time"

	"github.com/shillcollin/reportgate/core"
)

type Option func(*options)

type options struct {
	kind        core.Kind
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
	headers     map[string]string
	timeout     time.Duration
	profile     func(model string) ModelProfile
}

func defaultOptions() options {
	return options{
		kind:      core.KindOpenAI,
		baseURL:   "https://api.openai.com/v1",
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		headers:   map[string]string{},
		profile:   ProfileForModel,
	}
}

// WithAPIKey configures the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithTemperature sets the sampling temperature. It is dropped for models
// whose profile disallows it.
func WithTemperature(t *float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithMaxTokens sets the configured output bound.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithHeader adds a static request header.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// WithTimeout customizes the client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithKind labels the backend family for errors and telemetry. Used by
// OpenAI-compatible backends.
func WithKind(kind core.Kind) Option {
	return func(o *options) { o.kind = kind }
}

// WithProfile replaces the model capability lookup.
func WithProfile(fn func(model string) ModelProfile) Option {
	return func(o *options) {
		if fn != nil {
			o.profile = fn
		}
	}
}
