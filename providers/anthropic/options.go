package anthropic

import (
	"net/http"
	"time"
)

// APIVersion is sent as the anthropic-version header unless overridden.
const APIVersion = "2023-06-01"

type Option func(*options)

type options struct {
	apiKey      string
	model       string
	baseURL     string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
	headers     map[string]string
	timeout     time.Duration
}

func defaultOptions() options {
	return options{
		baseURL:   "https://api.anthropic.com/v1",
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		headers:   map[string]string{},
	}
}

func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

func WithTemperature(t *float64) Option {
	return func(o *options) { o.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}
