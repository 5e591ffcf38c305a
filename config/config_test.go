package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/obs"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Timeout != 45*time.Second {
		t.Fatalf("unexpected llm defaults %+v", cfg.LLM)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Delay != 2*time.Second {
		t.Fatalf("unexpected retry defaults %+v", cfg.Retry)
	}
	if cfg.Session.TTL != 24*time.Hour || cfg.Session.MaxQuestions != 15 {
		t.Fatalf("unexpected session defaults %+v", cfg.Session)
	}
	if cfg.Chat.ContextLimit != 15000 || cfg.Chat.MaxTokens != 1000 || cfg.HTTP.Addr != ":8000" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LLM.Temperature != nil {
		t.Fatalf("temperature should stay unset unless configured")
	}
	if o := cfg.Overrides(); o.Model != "" || o.Temperature != nil || o.Timeout != 45*time.Second {
		t.Fatalf("unexpected overrides %+v", o)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reportgate.yaml")
	data := strings.Join([]string{
		"llm:",
		"  provider: gemini",
		"  model: gemini-2.5-flash",
		"retry:",
		"  attempts: 5",
		"  delay: 500ms",
		"obs:",
		"  exporter: stdout",
		"  braintrust:",
		"    enabled: true",
		"    project: reports",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REPORTGATE_LLM_MODEL", "gemini-2.5-pro")
	t.Setenv("REPORTGATE_LLM_TEMPERATURE", "0.3")
	t.Setenv("REPORTGATE_SESSION_MAX_QUESTIONS", "5")

	cfg, err := Load(path, func(k string) string {
		if k == "BRAINTRUST_API_KEY" {
			return "bt-key"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	kind, err := cfg.Kind()
	if err != nil || kind != core.KindGemini {
		t.Fatalf("unexpected kind %q, %v", kind, err)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Fatalf("environment should win over file, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0.3 {
		t.Fatalf("temperature from env not applied: %v", cfg.LLM.Temperature)
	}
	if cfg.Session.MaxQuestions != 5 {
		t.Fatalf("env int not applied: %d", cfg.Session.MaxQuestions)
	}
	p := cfg.ReportPolicy()
	if p.Attempts() != 5 || p.Delay != 500*time.Millisecond {
		t.Fatalf("unexpected policy %+v", p)
	}
	o := cfg.ObsOptions("v1.2.3")
	if o.Exporter != obs.ExporterStdout || !o.Braintrust.Enabled || o.Braintrust.APIKey != "bt-key" || o.Braintrust.Project != "reports" || o.Version != "v1.2.3" {
		t.Fatalf("unexpected obs options %+v", o)
	}
	if o.Braintrust.BatchSize == 0 {
		t.Fatalf("obs defaults should be preserved")
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("REPORTGATE_LLM_PROVIDER", "mistral")
	t.Setenv("REPORTGATE_RETRY_ATTEMPTS", "0")
	t.Setenv("REPORTGATE_OBS_EXPORTER", "zipkin")
	_, err := Load("", nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"mistral", "retry.attempts", "zipkin"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error should mention %q: %v", want, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
