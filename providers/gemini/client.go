package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/internal/httpclient"
	"github.com/shillcollin/reportgate/obs"
)

// Client implements core.Provider for the Gemini generateContent API. The
// system instructions and every turn are sent as one user prompt.
type Client struct {
	httpClient *http.Client
	opts       options
}

// New constructs a Gemini client.
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		httpClient: httpclient.Ensure(o.httpClient, o.timeout),
		opts:       o,
	}
}

// Capabilities reports the resolved model behaviour.
func (c *Client) Capabilities() core.Capabilities {
	return core.Capabilities{
		Provider:            core.KindGemini,
		Variant:             core.VariantSinglePrompt,
		Model:               c.opts.model,
		SupportsTemperature: true,
		MaxOutputTokens:     c.opts.maxTokens,
	}
}

// Complete sends one generateContent request. It never retries.
func (c *Client) Complete(ctx context.Context, req core.Request) (_ *core.Completion, err error) {
	ctx, recorder := obs.StartRequest(ctx, "providers.gemini.Complete",
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.operation", "generateContent"),
		attribute.String("ai.model", c.opts.model),
	)
	var usageTokens obs.UsageTokens
	defer func() { recorder.End(err, usageTokens) }()

	payload := c.buildPayload(req)

	var resp geminiResponse
	if err := c.doRequest(ctx, payload, &resp); err != nil {
		return nil, err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, core.NewError(core.ErrBadRequest, "prompt blocked: "+resp.PromptFeedback.BlockReason, core.WithProvider(core.KindGemini))
	}
	text := strings.TrimSpace(resp.JoinText())
	if text == "" {
		return nil, core.NewError(core.ErrProviderError, "empty response text", core.WithProvider(core.KindGemini))
	}
	usage := resp.UsageMetadata.toCore()
	usageTokens = obs.UsageFromCore(usage)

	model := resp.ModelVersion
	if model == "" {
		model = c.opts.model
	}
	return &core.Completion{
		Text:         text,
		Model:        model,
		Provider:     core.KindGemini,
		FinishReason: resp.Candidates[0].FinishReason,
		Usage:        usage,
	}, nil
}

func (c *Client) buildPayload(req core.Request) *geminiRequest {
	payload := &geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt()}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: core.ChooseMaxTokens(req.MaxTokens, c.opts.maxTokens),
		},
	}
	if c.opts.temperature != nil {
		t := *c.opts.temperature
		payload.GenerationConfig.Temperature = &t
	}
	return payload
}

func (c *Client) doRequest(ctx context.Context, payload *geminiRequest, out *geminiResponse) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return core.NewError(core.ErrProviderError, "marshal payload", core.WithProvider(core.KindGemini), core.WithWrapped(err), core.WithRetryable(false))
	}
	endpoint := "/models/" + url.PathEscape(c.opts.model) + ":generateContent"
	fullURL := strings.TrimRight(c.opts.baseURL, "/") + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, buf)
	if err != nil {
		return core.NewError(core.ErrConfiguration, "build request", core.WithProvider(core.KindGemini), core.WithWrapped(err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.opts.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.TransportError(core.KindGemini, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return core.StatusError(core.KindGemini, resp.StatusCode, errorMessage(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewError(core.ErrProviderError, "decode gemini response", core.WithProvider(core.KindGemini), core.WithWrapped(err))
	}
	return nil
}

func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}
