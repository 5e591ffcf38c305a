// Package groq registers the Groq backend, an OpenAI-compatible chat
// completions API.
package groq

import (
	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/providers/compat"
)

// Defaults used when neither overrides nor the environment name a value.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 8000
)

func init() {
	reportgate.RegisterProvider(core.KindGroq, &Factory{})
}

// Factory creates Groq provider instances.
type Factory struct{}

// New validates cfg and creates a Groq client.
func (f *Factory) New(cfg core.ProviderConfig) (core.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Kind = core.KindGroq
	return compat.FromConfig(cfg, DefaultBaseURL, profileForModel), nil
}

// Defaults reads GROQ_* variables.
func (f *Factory) Defaults(getenv func(string) string) core.ProviderConfig {
	return core.ProviderConfig{
		Kind:                core.KindGroq,
		Model:               core.EnvString(getenv, DefaultModel, "GROQ_MODEL"),
		SupportsTemperature: true,
		Temperature:         core.Float(core.EnvFloat(getenv, "GROQ_TEMPERATURE", DefaultTemperature)),
		MaxOutputTokens:     core.EnvInt(getenv, "GROQ_MAX_TOKENS", DefaultMaxTokens),
		APIKey:              core.EnvString(getenv, "", "GROQ_API_KEY"),
		BaseURL:             core.EnvString(getenv, "", "GROQ_BASE_URL"),
	}
}

// SupportsTemperature is true for every Groq model.
func (f *Factory) SupportsTemperature(model string) bool {
	return profileForModel(model).AllowTemperature
}
