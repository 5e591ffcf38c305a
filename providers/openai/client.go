package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/internal/httpclient"
	"github.com/shillcollin/reportgate/obs"
)

// Client implements core.Provider for OpenAI's chat completions API and
// OpenAI-compatible backends.
type Client struct {
	httpClient *http.Client
	opts       options
	profile    ModelProfile
}

// New constructs a new OpenAI client.
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	profile := o.profile(o.model)
	if !profile.AllowTemperature {
		o.temperature = nil
	}
	return &Client{
		httpClient: httpclient.Ensure(o.httpClient, o.timeout),
		opts:       o,
		profile:    profile,
	}
}

// Capabilities reports the resolved model behaviour.
func (c *Client) Capabilities() core.Capabilities {
	return core.Capabilities{
		Provider:            c.opts.kind,
		Variant:             core.VariantMessageList,
		Model:               c.opts.model,
		SupportsTemperature: c.profile.AllowTemperature,
		MaxOutputTokens:     c.opts.maxTokens,
	}
}

// Complete sends one chat completion request. It never retries.
func (c *Client) Complete(ctx context.Context, req core.Request) (_ *core.Completion, err error) {
	ctx, recorder := obs.StartRequest(ctx, "providers."+string(c.opts.kind)+".Complete",
		attribute.String("ai.provider", string(c.opts.kind)),
		attribute.String("ai.operation", "chat.completions"),
		attribute.String("ai.model", c.opts.model),
	)
	var usageTokens obs.UsageTokens
	defer func() { recorder.End(err, usageTokens) }()

	payload := c.buildChatPayload(req)

	var resp chatCompletionResponse
	if err := c.doRequest(ctx, "/chat/completions", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewError(core.ErrProviderError, "empty choices", core.WithProvider(c.opts.kind))
	}
	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return nil, core.NewError(core.ErrProviderError, "empty response text", core.WithProvider(c.opts.kind))
	}
	usage := resp.Usage.toCore()
	usageTokens = obs.UsageFromCore(usage)

	model := resp.Model
	if model == "" {
		model = payload.Model
	}
	return &core.Completion{
		Text:         text,
		Model:        model,
		Provider:     c.opts.kind,
		FinishReason: choice.FinishReason,
		Usage:        usage,
	}, nil
}

func (c *Client) buildChatPayload(req core.Request) *chatCompletionRequest {
	messages := make([]openAIMessage, 0, len(req.Turns)+1)
	if s := strings.TrimSpace(req.System); s != "" {
		messages = append(messages, openAIMessage{Role: string(core.System), Content: s})
	}
	for _, turn := range req.Turns {
		messages = append(messages, openAIMessage{Role: roleString(turn.Role), Content: turn.Text})
	}

	payload := &chatCompletionRequest{
		Model:    c.opts.model,
		Messages: messages,
	}
	maxTokens := core.ChooseMaxTokens(req.MaxTokens, c.opts.maxTokens)
	if c.profile.UseMaxCompletionTokens {
		payload.MaxCompletionTokens = maxTokens
	} else {
		payload.MaxTokens = maxTokens
	}
	if c.profile.AllowTemperature && c.opts.temperature != nil {
		t := *c.opts.temperature
		payload.Temperature = &t
	}
	return payload
}

func (c *Client) doRequest(ctx context.Context, path string, payload, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return core.NewError(core.ErrProviderError, "marshal payload", core.WithProvider(c.opts.kind), core.WithWrapped(err), core.WithRetryable(false))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.opts.baseURL, "/")+path, buf)
	if err != nil {
		return core.NewError(core.ErrConfiguration, "build request", core.WithProvider(c.opts.kind), core.WithWrapped(err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.apiKey)
	}
	for k, v := range c.opts.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.TransportError(c.opts.kind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return core.StatusError(c.opts.kind, resp.StatusCode, errorMessage(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewError(core.ErrProviderError, fmt.Sprintf("decode %s response", c.opts.kind), core.WithProvider(c.opts.kind), core.WithWrapped(err))
	}
	return nil
}

// errorMessage extracts error.message from an API error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func roleString(role core.Role) string {
	switch role {
	case core.Assistant:
		return "assistant"
	case core.System:
		return "system"
	default:
		return "user"
	}
}
