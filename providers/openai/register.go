package openai

import (
	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/core"
)

// Defaults used when neither overrides nor the environment name a value.
const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4000
)

func init() {
	reportgate.RegisterProvider(core.KindOpenAI, &Factory{})
}

// Factory creates OpenAI provider instances.
type Factory struct{}

// New validates cfg and creates an OpenAI client.
func (f *Factory) New(cfg core.ProviderConfig) (core.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(OptionsFromConfig(cfg)...), nil
}

// Defaults reads OPENAI_* variables.
func (f *Factory) Defaults(getenv func(string) string) core.ProviderConfig {
	model := core.EnvString(getenv, DefaultModel, "OPENAI_MODEL")
	// Temperature is filled even for reasoning models so an override that
	// selects a chat model still gets a default. Resolve drops it otherwise.
	return core.ProviderConfig{
		Kind:                core.KindOpenAI,
		Model:               model,
		Temperature:         core.Float(core.EnvFloat(getenv, "OPENAI_TEMPERATURE", DefaultTemperature)),
		SupportsTemperature: f.SupportsTemperature(model),
		MaxOutputTokens:     core.EnvInt(getenv, "OPENAI_MAX_COMPLETION_TOKENS", DefaultMaxTokens),
		APIKey:              core.EnvString(getenv, "", "OPENAI_API_KEY"),
		BaseURL:             core.EnvString(getenv, "", "OPENAI_BASE_URL"),
	}
}

// SupportsTemperature is false for reasoning models (o1, o3, o4, gpt-5).
func (f *Factory) SupportsTemperature(model string) bool {
	return ProfileForModel(model).AllowTemperature
}

// OptionsFromConfig translates a resolved configuration into client options.
func OptionsFromConfig(cfg core.ProviderConfig) []Option {
	opts := []Option{
		WithKind(cfg.Kind),
		WithAPIKey(cfg.APIKey),
		WithModel(cfg.Model),
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxOutputTokens),
		WithTimeout(cfg.Timeout),
	}
	if cfg.Kind == "" {
		opts[0] = WithKind(core.KindOpenAI)
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
	return opts
}
