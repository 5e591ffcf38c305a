package gemini

import (
	"net/http"
	"time"
)

type Option func(*options)

type options struct {
	apiKey      string
	model       string
	baseURL     string
	temperature *float64
	maxTokens   int
	httpClient  *http.Client
	timeout     time.Duration
}

func defaultOptions() options {
	return options{
		baseURL:   "https://generativelanguage.googleapis.com/v1beta",
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
}

func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

func WithModel(model string) Option {
	return func(o *options) { o.model = model }
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

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}
