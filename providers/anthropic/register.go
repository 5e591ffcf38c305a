package anthropic

import (
	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/core"
)

const (
	DefaultModel       = "claude-3-7-sonnet-latest"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8000
)

func init() {
	reportgate.RegisterProvider(core.KindAnthropic, &Factory{})
}

// Factory creates Anthropic provider instances.
type Factory struct{}

// New creates a new Anthropic provider with the given configuration.
func (f *Factory) New(cfg core.ProviderConfig) (core.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := []Option{
		WithAPIKey(cfg.APIKey),
		WithModel(cfg.Model),
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxOutputTokens),
		WithTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, WithHeader(k, v))
	}
	return New(opts...), nil
}

// Defaults returns configuration from ANTHROPIC_* environment variables.
func (f *Factory) Defaults(getenv func(string) string) core.ProviderConfig {
	return core.ProviderConfig{
		Kind:                core.KindAnthropic,
		Model:               core.EnvString(getenv, DefaultModel, "ANTHROPIC_MODEL"),
		SupportsTemperature: true,
		Temperature:         core.Float(core.EnvFloat(getenv, "ANTHROPIC_TEMPERATURE", DefaultTemperature)),
		MaxOutputTokens:     core.EnvInt(getenv, "ANTHROPIC_MAX_TOKENS", DefaultMaxTokens),
		APIKey:              core.EnvString(getenv, "", "ANTHROPIC_API_KEY"),
		BaseURL:             core.EnvString(getenv, "", "ANTHROPIC_BASE_URL"),
	}
}

func (f *Factory) SupportsTemperature(string) bool { return true }
