package core

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProviderConfig identifies one resolved backend configuration.
type ProviderConfig struct {
	Kind                Kind
	Model               string
	SupportsTemperature bool
	// Temperature is nil whenever SupportsTemperature is false.
	Temperature     *float64
	MaxOutputTokens int

	APIKey     string `json:"-"`
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client `json:"-"`
	Headers    map[string]string
}

// Overrides carries explicit configuration that wins over environment defaults.
type Overrides struct {
	Model           string
	Temperature     *float64
	MaxOutputTokens int
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
}

// Apply merges explicit overrides onto a defaulted configuration.
func (c ProviderConfig) Apply(o Overrides) ProviderConfig {
	if m := strings.TrimSpace(o.Model); m != "" {
		c.Model = m
	}
	if o.Temperature != nil {
		t := *o.Temperature
		c.Temperature = &t
	}
	if o.MaxOutputTokens > 0 {
		c.MaxOutputTokens = o.MaxOutputTokens
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}
	return c
}

// Validate checks the invariants every adapter relies on.
func (c ProviderConfig) Validate() error {
	if c.Model == "" {
		return NewError(ErrConfiguration, fmt.Sprintf("%s: model not resolved", c.Kind))
	}
	if c.MaxOutputTokens <= 0 {
		return NewError(ErrConfiguration, fmt.Sprintf("%s: max output tokens must be positive", c.Kind))
	}
	if !c.SupportsTemperature && c.Temperature != nil {
		return NewError(ErrConfiguration, fmt.Sprintf("%s: temperature set for model %s which does not accept it", c.Kind, c.Model))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return NewError(ErrConfiguration, fmt.Sprintf("%s: credential missing", c.Kind))
	}
	return nil
}

// Float returns a pointer to v, for optional temperature values.
func Float(v float64) *float64 { return &v }
