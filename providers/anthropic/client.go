package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/internal/httpclient"
	"github.com/shillcollin/reportgate/obs"
)

// Client implements core.Provider for Anthropic's Messages API.
type Client struct {
	opts       options
	httpClient *http.Client
}

// New constructs a new Anthropic client.
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if _, ok := o.headers["anthropic-version"]; !ok {
		o.headers["anthropic-version"] = APIVersion
	}
	return &Client{opts: o, httpClient: httpclient.Ensure(o.httpClient, o.timeout)}
}

func (c *Client) Capabilities() core.Capabilities {
	return core.Capabilities{
		Provider:            core.KindAnthropic,
		Variant:             core.VariantMessageList,
		Model:               c.opts.model,
		SupportsTemperature: true,
		MaxOutputTokens:     c.opts.maxTokens,
	}
}

// Complete sends one Messages request. It never retries.
func (c *Client) Complete(ctx context.Context, req core.Request) (_ *core.Completion, err error) {
	ctx, recorder := obs.StartRequest(ctx, "providers.anthropic.Complete",
		attribute.String("ai.provider", "anthropic"),
		attribute.String("ai.operation", "messages"),
		attribute.String("ai.model", c.opts.model),
	)
	var usageTokens obs.UsageTokens
	defer func() {
		recorder.End(err, usageTokens)
	}()

	payload := c.buildPayload(req)
	var resp messagesResponse
	if err := c.doRequest(ctx, payload, &resp); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.JoinText())
	if text == "" {
		return nil, core.NewError(core.ErrProviderError, "empty response text", core.WithProvider(core.KindAnthropic))
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
		Provider:     core.KindAnthropic,
		FinishReason: resp.StopReason,
		Usage:        usage,
	}, nil
}

// buildPayload moves instructions into the top-level system field. The API
// requires the first message to come from the user, so leading assistant
// turns are appended to the system text. Consecutive turns from the same role
// are merged.
func (c *Client) buildPayload(req core.Request) *messagesRequest {
	system := strings.TrimSpace(req.System)
	turns := req.Turns
	for len(turns) > 0 && turns[0].Role != core.User {
		if t := strings.TrimSpace(turns[0].Text); t != "" {
			system = joinBlocks(system, t)
		}
		turns = turns[1:]
	}

	messages := make([]anthropicMessage, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == core.Assistant {
			role = "assistant"
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = joinBlocks(messages[n-1].Content, turn.Text)
			continue
		}
		messages = append(messages, anthropicMessage{Role: role, Content: turn.Text})
	}

	payload := &messagesRequest{
		Model:     c.opts.model,
		System:    system,
		Messages:  messages,
		MaxTokens: core.ChooseMaxTokens(req.MaxTokens, c.opts.maxTokens),
	}
	if c.opts.temperature != nil {
		t := *c.opts.temperature
		payload.Temperature = &t
	}
	return payload
}

func joinBlocks(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}

func (c *Client) doRequest(ctx context.Context, payload *messagesRequest, out *messagesResponse) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return core.NewError(core.ErrProviderError, "marshal payload", core.WithProvider(core.KindAnthropic), core.WithWrapped(err), core.WithRetryable(false))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.opts.baseURL, "/")+"/messages", buf)
	if err != nil {
		return core.NewError(core.ErrConfiguration, "build request", core.WithProvider(core.KindAnthropic), core.WithWrapped(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.opts.apiKey)
	for k, v := range c.opts.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.TransportError(core.KindAnthropic, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewError(core.ErrProviderError, "decode anthropic response", core.WithProvider(core.KindAnthropic), core.WithWrapped(err))
	}
	return nil
}

// statusError maps API failures. Anthropic reports overload as 529, which
// falls through to a retryable provider error.
func statusError(status int, body []byte) *core.AIError {
	var env errorEnvelope
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		msg = env.Error.Type + ": " + env.Error.Message
	}
	return core.StatusError(core.KindAnthropic, status, msg)
}
