package gemini

import (
	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/core"
)

// Defaults used when neither overrides nor the environment name a value.
const (
	DefaultModel       = "gemini-2.5-pro"
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 8000
)

func init() {
	reportgate.RegisterProvider(core.KindGemini, &Factory{})
}

// Factory creates Gemini provider instances.
type Factory struct{}

// New validates cfg and creates a Gemini client.
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
	return New(opts...), nil
}

// Defaults reads GEMINI_* variables. The credential comes from GOOGLE_API_KEY,
// falling back to GEMINI_API_KEY.
func (f *Factory) Defaults(getenv func(string) string) core.ProviderConfig {
	return core.ProviderConfig{
		Kind:                core.KindGemini,
		Model:               core.EnvString(getenv, DefaultModel, "GEMINI_MODEL"),
		SupportsTemperature: true,
		Temperature:         core.Float(core.EnvFloat(getenv, "GEMINI_TEMPERATURE", DefaultTemperature)),
		MaxOutputTokens:     core.EnvInt(getenv, "GEMINI_MAX_TOKENS", DefaultMaxTokens),
		APIKey:              core.EnvString(getenv, "", "GOOGLE_API_KEY", "GEMINI_API_KEY"),
		BaseURL:             core.EnvString(getenv, "", "GEMINI_BASE_URL"),
	}
}

// SupportsTemperature is true for every Gemini model.
func (f *Factory) SupportsTemperature(string) bool { return true }
