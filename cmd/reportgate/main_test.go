package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	if out := run(t, "version", "-o", "short"); strings.TrimSpace(out) == "" || strings.Contains(out, "\n\n") {
		t.Fatalf("unexpected short version %q", out)
	}
	if out := run(t, "version", "-o", "json"); !strings.Contains(out, `"gitVersion"`) {
		t.Fatalf("unexpected json version %q", out)
	}
	if out := run(t, "version"); !strings.Contains(out, "goVersion:") {
		t.Fatalf("unexpected text version %q", out)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"version", "-o", "yaml"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown output format")
	}
}

func TestProvidersCommandListsEveryBackend(t *testing.T) {
	out := run(t, "providers")
	for _, kind := range []string{"anthropic", "gemini", "groq", "openai", "perplexity"} {
		if !strings.Contains(out, kind) {
			t.Fatalf("providers output missing %q:\n%s", kind, out)
		}
	}
	if !strings.Contains(out, "single_prompt") || !strings.Contains(out, "message_list") {
		t.Fatalf("providers output should show wire variants:\n%s", out)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("REPORTGATE_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REPORTGATE_TEST_DOTENV", "")
	os.Unsetenv("REPORTGATE_TEST_DOTENV")
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("REPORTGATE_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestReadPayloadKeepsOrder(t *testing.T) {
	payload, err := readPayload("-", strings.NewReader(`{"zeta":1,"alpha":{"b":2,"a":3}}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	keys := payload.Keys()
	if len(keys) != 2 || keys[0] != "zeta" || keys[1] != "alpha" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if _, err := readPayload("-", strings.NewReader(`[1]`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
