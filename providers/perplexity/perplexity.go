// Package perplexity registers the Perplexity backend, an OpenAI-compatible
// chat completions API.
package perplexity

import (
	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/providers/compat"
)

// Defaults used when neither overrides nor the environment name a value.
const (
	DefaultBaseURL     = "https://api.perplexity.ai"
	DefaultModel       = "sonar-pro"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8000
)

func init() {
	reportgate.RegisterProvider(core.KindPerplexity, &Factory{})
}

// Factory creates Perplexity provider instances.
type Factory struct{}

// New validates cfg and creates a Perplexity client.
func (f *Factory) New(cfg core.ProviderConfig) (core.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Kind = core.KindPerplexity
	return compat.FromConfig(cfg, DefaultBaseURL, nil), nil
}

// Defaults reads PERPLEXITY_* variables.
func (f *Factory) Defaults(getenv func(string) string) core.ProviderConfig {
	return core.ProviderConfig{
		Kind:                core.KindPerplexity,
		Model:               core.EnvString(getenv, DefaultModel, "PERPLEXITY_MODEL"),
		SupportsTemperature: true,
		Temperature:         core.Float(core.EnvFloat(getenv, "PERPLEXITY_TEMPERATURE", DefaultTemperature)),
		MaxOutputTokens:     core.EnvInt(getenv, "PERPLEXITY_MAX_TOKENS", DefaultMaxTokens),
		APIKey:              core.EnvString(getenv, "", "PERPLEXITY_API_KEY"),
		BaseURL:             core.EnvString(getenv, "", "PERPLEXITY_BASE_URL"),
	}
}

// SupportsTemperature is true for every Sonar model.
func (f *Factory) SupportsTemperature(string) bool { return true }
