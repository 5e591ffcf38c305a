// Package config loads gateway settings from an optional file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/obs"
	"github.com/shillcollin/reportgate/retry"
)

// EnvPrefix prefixes every environment key, with dots replaced by
// underscores: llm.provider is read from REPORTGATE_LLM_PROVIDER.
const EnvPrefix = "REPORTGATE"

// Config is the full gateway configuration.
type Config struct {
	LLM     LLM     `mapstructure:"llm"`
	Retry   Retry   `mapstructure:"retry"`
	Session Session `mapstructure:"session"`
	Chat    Chat    `mapstructure:"chat"`
	HTTP    HTTP    `mapstructure:"http"`
	Prompts Prompts `mapstructure:"prompts"`
	Log     Log     `mapstructure:"log"`
	Obs     Obs     `mapstructure:"obs"`
}

// LLM selects the backend. Empty fields fall through to the provider's
// own environment variables and defaults.
type LLM struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Temperature *float64      `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type Retry struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type Session struct {
	TTL          time.Duration `mapstructure:"ttl"`
	MaxQuestions int           `mapstructure:"max_questions"`
}

type Chat struct {
	ContextLimit int `mapstructure:"context_limit"`
	MaxTokens    int `mapstructure:"max_tokens"`
}

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Prompts struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Obs struct {
	Exporter       string     `mapstructure:"exporter"`
	Endpoint       string     `mapstructure:"endpoint"`
	Insecure       bool       `mapstructure:"insecure"`
	SampleRatio    float64    `mapstructure:"sample_ratio"`
	Environment    string     `mapstructure:"environment"`
	LogCompletions bool       `mapstructure:"log_completions"`
	Braintrust     Braintrust `mapstructure:"braintrust"`
}

type Braintrust struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	Project   string `mapstructure:"project"`
	ProjectID string `mapstructure:"project_id"`
	Dataset   string `mapstructure:"dataset"`
	BaseURL   string `mapstructure:"base_url"`
}

var defaults = map[string]any{
	"llm.provider":              "openai",
	"llm.timeout":               "45s",
	"retry.attempts":            3,
	"retry.delay":               "2s",
	"session.ttl":               "24h",
	"session.max_questions":     15,
	"chat.context_limit":        15000,
	"chat.max_tokens":           1000,
	"http.addr":                 ":8000",
	"prompts.dir":               "",
	"prompts.watch":             false,
	"log.level":                 "info",
	"log.format":                "json",
	"obs.exporter":              "none",
	"obs.endpoint":              "",
	"obs.insecure":              false,
	"obs.sample_ratio":          1.0,
	"obs.environment":           "",
	"obs.log_completions":       false,
	"obs.braintrust.enabled":    false,
	"obs.braintrust.project":    "",
	"obs.braintrust.project_id": "",
	"obs.braintrust.dataset":    "",
	"obs.braintrust.base_url":   "",
}

// Keys without a default still need an explicit env binding for Unmarshal.
var boundOnly = []string{
	"llm.model",
	"llm.temperature",
	"llm.max_tokens",
	"llm.api_key",
	"llm.base_url",
	"obs.braintrust.api_key",
}

// Load reads path (YAML, JSON or TOML by extension) when non-empty, then
// applies environment overrides. getenv supplies fallbacks that are not
// prefixed, such as BRAINTRUST_API_KEY; nil disables them.
func Load(path string, getenv func(string) string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range boundOnly {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if getenv != nil && cfg.Obs.Braintrust.APIKey == "" {
		cfg.Obs.Braintrust.APIKey = getenv("BRAINTRUST_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := core.ParseKind(c.LLM.Provider); err != nil {
		errs = append(errs, err)
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts))
	}
	if c.Retry.Delay < 0 {
		errs = append(errs, errors.New("retry.delay must not be negative"))
	}
	if c.Session.MaxQuestions < 1 {
		errs = append(errs, fmt.Errorf("session.max_questions must be at least 1, got %d", c.Session.MaxQuestions))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	if c.Obs.SampleRatio < 0 || c.Obs.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("obs.sample_ratio must be within [0,1], got %v", c.Obs.SampleRatio))
	}
	switch obs.ExporterType(c.Obs.Exporter) {
	case obs.ExporterNone, obs.ExporterStdout, obs.ExporterOTLP, "":
	default:
		errs = append(errs, fmt.Errorf("obs.exporter %q is not one of none, stdout, otlp", c.Obs.Exporter))
	}
	return errors.Join(errs...)
}

// Kind returns the configured backend family.
func (c Config) Kind() (core.Kind, error) {
	return core.ParseKind(c.LLM.Provider)
}

// Overrides returns the explicit provider settings.
func (c Config) Overrides() core.Overrides {
	o := core.Overrides{
		Model:           c.LLM.Model,
		MaxOutputTokens: c.LLM.MaxTokens,
		APIKey:          c.LLM.APIKey,
		BaseURL:         c.LLM.BaseURL,
		Timeout:         c.LLM.Timeout,
	}
	if c.LLM.Temperature != nil {
		o.Temperature = core.Float(*c.LLM.Temperature)
	}
	return o
}

// ReportPolicy returns the retry policy for report generation.
func (c Config) ReportPolicy() retry.Policy {
	return retry.Constant(c.Retry.Attempts, c.Retry.Delay)
}

// ObsOptions maps observability settings onto obs.Options.
func (c Config) ObsOptions(version string) obs.Options {
	o := obs.DefaultOptions()
	o.Version = version
	o.Environment = c.Obs.Environment
	if c.Obs.Exporter != "" {
		o.Exporter = obs.ExporterType(c.Obs.Exporter)
	}
	o.Endpoint = c.Obs.Endpoint
	o.Insecure = c.Obs.Insecure
	if c.Obs.SampleRatio > 0 {
		o.SampleRatio = c.Obs.SampleRatio
	}
	o.LogCompletions = c.Obs.LogCompletions
	o.Braintrust.Enabled = c.Obs.Braintrust.Enabled
	o.Braintrust.APIKey = c.Obs.Braintrust.APIKey
	o.Braintrust.Project = c.Obs.Braintrust.Project
	o.Braintrust.ProjectID = c.Obs.Braintrust.ProjectID
	o.Braintrust.Dataset = c.Obs.Braintrust.Dataset
	o.Braintrust.BaseURL = c.Obs.Braintrust.BaseURL
	return o
}
