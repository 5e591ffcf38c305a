package prompts

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func TestRegistryRender(t *testing.T) {
	fs := fstest.MapFS{
		"summary@1.0.0.tmpl": {Data: []byte("Summary: {{.Text}}")},
		"summary@1.1.0.tmpl": {Data: []byte("Summary v1.1: {{.Text}}")},
	}
	reg := NewRegistry(fs)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	out, id, err := reg.Render(context.Background(), "summary", "1.1.0", map[string]any{"Text": "hello"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Summary v1.1: hello" {
		t.Fatalf("unexpected output: %s", out)
	}
	if id.Name != "summary" || id.Version != "1.1.0" || id.Fingerprint == "" {
		t.Fatalf("unexpected prompt id: %+v", id)
	}
}

func TestRegistryLatestVersionUsesSemverOrder(t *testing.T) {
	fs := fstest.MapFS{
		"demo@1.2.0.tmpl":  {Data: []byte("v1.2")},
		"demo@1.10.0.tmpl": {Data: []byte("v1.10")},
		"demo@1.9.0.tmpl":  {Data: []byte("v1.9")},
	}
	reg := NewRegistry(fs)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	out, _, err := reg.Render(context.Background(), "demo", "", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "v1.10" {
		t.Fatalf("expected latest semantic version, got %s", out)
	}
	if got, want := reg.ListVersions("demo"), []string{"1.2.0", "1.9.0", "1.10.0"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("versions = %v, want %v", got, want)
	}
}

func TestRegistryManifestPinsVersion(t *testing.T) {
	fs := fstest.MapFS{
		"demo@1.0.0.tmpl": {Data: []byte("stable")},
		"demo@2.0.0.tmpl": {Data: []byte("preview")},
		ManifestFile:      {Data: []byte("prompts:\n  demo:\n    description: Demo prompt\n    version: 1.0.0\n")},
	}
	reg := NewRegistry(fs)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	out, id, err := reg.Render(context.Background(), "demo", "", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "stable" || id.Version != "1.0.0" {
		t.Fatalf("expected pinned version, got %q (%s)", out, id.Version)
	}
	if reg.Describe("demo") != "Demo prompt" {
		t.Fatalf("unexpected description %q", reg.Describe("demo"))
	}
}

func TestRegistryRejectsBadNames(t *testing.T) {
	cases := []fstest.MapFS{
		{"noversion.tmpl": {Data: []byte("x")}},
		{"demo@latest.tmpl": {Data: []byte("x")}},
		{"demo@1.0.0.tmpl": {Data: []byte("x")}, ManifestFile: {Data: []byte("prompts:\n  demo:\n    version: nope\n")}},
	}
	for i, fs := range cases {
		if err := NewRegistry(fs).Reload(); err == nil {
			t.Fatalf("case %d: expected reload error", i)
		}
	}
}

func TestRegistryOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "chat@1.0.0.tmpl"), []byte("overridden"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	reg, err := Default(WithOverrideDir(dir))
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	out, _, err := reg.Render(context.Background(), Chat, "", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "overridden" {
		t.Fatalf("override not applied, got %q", out)
	}
	if reg.HasOverride(Chat) == "" {
		t.Fatalf("expected override path")
	}
	if reg.HasOverride(Report) != "" {
		t.Fatalf("report should not be overridden")
	}
}

func TestRegistryMissingOverrideDirIgnored(t *testing.T) {
	if _, err := Default(WithOverrideDir(filepath.Join(t.TempDir(), "missing"))); err != nil {
		t.Fatalf("missing override dir should be ignored: %v", err)
	}
}

func TestBuiltinPrompts(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if got, want := reg.Names(), []string{Chat, Extended, Report}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	report, _, err := reg.Render(context.Background(), Report, "", map[string]any{"Name": "Anna"})
	if err != nil {
		t.Fatalf("render report: %v", err)
	}
	if !strings.Contains(report, "Anna") {
		t.Fatalf("report instructions should personalise the name")
	}
	chat, _, err := reg.Render(context.Background(), Chat, "", nil)
	if err != nil {
		t.Fatalf("render chat: %v", err)
	}
	if chat == report || chat == "" {
		t.Fatalf("chat instructions should be distinct and non-empty")
	}
	for _, name := range reg.Names() {
		if reg.Describe(name) == "" {
			t.Fatalf("prompt %s lacks a manifest description", name)
		}
	}
}

func TestRenderHonoursContext(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := reg.Render(ctx, Chat, "", nil); err == nil {
		t.Fatalf("expected context error")
	}
}
