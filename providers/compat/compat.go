// Package compat adapts OpenAI-compatible chat completion APIs.
package compat

import (
	"context"
	"net/http"
	"time"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/providers/openai"
)

// CompatOpts configures the OpenAI-compatible client.
type CompatOpts struct {
	Kind        core.Kind
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float64
	MaxTokens   int
	Headers     map[string]string
	HTTPClient  *http.Client
	Timeout     time.Duration
	// Profile reports model capabilities. Nil means every model accepts a
	// temperature and uses max_tokens.
	Profile func(model string) openai.ModelProfile
}

// Client delegates to the OpenAI chat completions adapter.
type Client struct {
	inner *openai.Client
}

// New constructs a provider targeting an OpenAI-compatible API surface.
func New(opts CompatOpts) *Client {
	profile := opts.Profile
	if profile == nil {
		profile = func(string) openai.ModelProfile { return openai.DefaultProfile() }
	}
	options := []openai.Option{
		openai.WithKind(opts.Kind),
		openai.WithBaseURL(opts.BaseURL),
		openai.WithAPIKey(opts.APIKey),
		openai.WithModel(opts.Model),
		openai.WithTemperature(opts.Temperature),
		openai.WithMaxTokens(opts.MaxTokens),
		openai.WithTimeout(opts.Timeout),
		openai.WithProfile(profile),
	}
	if opts.HTTPClient != nil {
		options = append(options, openai.WithHTTPClient(opts.HTTPClient))
	}
	for k, v := range opts.Headers {
		options = append(options, openai.WithHeader(k, v))
	}
	return &Client{inner: openai.New(options...)}
}

// FromConfig builds a client from a resolved configuration, using baseURL
// when the configuration does not name one.
func FromConfig(cfg core.ProviderConfig, baseURL string, profile func(string) openai.ModelProfile) *Client {
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	return New(CompatOpts{
		Kind:        cfg.Kind,
		BaseURL:     baseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxOutputTokens,
		Headers:     cfg.Headers,
		HTTPClient:  cfg.HTTPClient,
		Timeout:     cfg.Timeout,
		Profile:     profile,
	})
}

func (c *Client) Complete(ctx context.Context, req core.Request) (*core.Completion, error) {
	return c.inner.Complete(ctx, req)
}

func (c *Client) Capabilities() core.Capabilities {
	return c.inner.Capabilities()
}
