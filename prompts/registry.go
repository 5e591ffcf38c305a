package prompts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/semver/v3"
)

// Registry holds versioned system-instruction templates. Files are named
// name@version.tmpl where version is a semantic version.
type Registry struct {
	fs          fs.FS
	overrideDir string
	helpers     template.FuncMap

	mu       sync.RWMutex
	prompts  map[string]map[string]*templateEntry
	manifest *Manifest
}

type templateEntry struct {
	tmpl        *template.Template
	version     *semver.Version
	fingerprint string
	source      string
}

// PromptID identifies a prompt version at render time.
type PromptID struct {
	Name        string
	Version     string
	Fingerprint string
}

// RegistryOption customises registry behaviour.
type RegistryOption func(*Registry)

// WithOverrideDir enables runtime overrides from a local directory. A file in
// the override directory replaces an embedded file with the same name and
// version.
func WithOverrideDir(dir string) RegistryOption {
	return func(r *Registry) { r.overrideDir = dir }
}

// WithHelpers registers template helper functions.
func WithHelpers(funcs template.FuncMap) RegistryOption {
	return func(r *Registry) {
		for k, v := range funcs {
			r.helpers[k] = v
		}
	}
}

// NewRegistry constructs a prompt registry. Call Reload before rendering.
func NewRegistry(promptFS fs.FS, opts ...RegistryOption) *Registry {
	r := &Registry{fs: promptFS, helpers: template.FuncMap{"upper": strings.ToUpper}}
	for _, opt := range opts {
		opt(r)
	}
	r.prompts = map[string]map[string]*templateEntry{}
	return r
}

// Reload parses templates and the optional manifest from the underlying
// filesystem and override directory.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prompts := map[string]map[string]*templateEntry{}

	if err := fs.WalkDir(r.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		data, err := fs.ReadFile(r.fs, path)
		if err != nil {
			return err
		}
		return r.add(prompts, path, data)
	}); err != nil {
		return err
	}

	manifest, err := readManifest(r.fs)
	if err != nil {
		return err
	}

	if r.overrideDir != "" {
		if err := filepath.WalkDir(r.overrideDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return r.add(prompts, path, data)
		}); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	r.prompts = prompts
	r.manifest = manifest
	return nil
}

func (r *Registry) add(store map[string]map[string]*templateEntry, path string, data []byte) error {
	name, version, err := parseFilename(path)
	if err != nil {
		return fmt.Errorf("parse prompt filename %s: %w", path, err)
	}
	tmpl, err := template.New(name).Funcs(r.helpers).Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse prompt %s: %w", path, err)
	}
	sha := sha256.Sum256(data)
	versions, ok := store[name]
	if !ok {
		versions = map[string]*templateEntry{}
		store[name] = versions
	}
	versions[version.Original()] = &templateEntry{
		tmpl:        tmpl,
		version:     version,
		fingerprint: hex.EncodeToString(sha[:]),
		source:      path,
	}
	return nil
}

// Render executes the selected prompt template. An empty version selects the
// version pinned in the manifest, or the highest semantic version.
func (r *Registry) Render(ctx context.Context, name, version string, data any) (string, PromptID, error) {
	if err := ctx.Err(); err != nil {
		return "", PromptID{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[name]
	if !ok || len(versions) == 0 {
		return "", PromptID{}, fmt.Errorf("prompt %s not found", name)
	}
	if version == "" {
		version = r.manifest.Pinned(name)
	}
	if version == "" {
		version = latestVersion(versions)
	}
	entry, ok := versions[version]
	if !ok {
		return "", PromptID{}, fmt.Errorf("prompt %s@%s not found", name, version)
	}

	buf := &bytes.Buffer{}
	if err := entry.tmpl.Execute(buf, data); err != nil {
		return "", PromptID{}, fmt.Errorf("render prompt %s@%s: %w", name, version, err)
	}

	return strings.TrimSpace(buf.String()), PromptID{Name: name, Version: version, Fingerprint: entry.fingerprint}, nil
}

// ListVersions returns versions for the prompt in ascending semantic order.
func (r *Registry) ListVersions(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedVersions(r.prompts[name])
}

// Names returns every registered prompt name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe returns the manifest description for a prompt, if any.
func (r *Registry) Describe(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifest.Entry(name).Description
}

// HasOverride returns the override path for a prompt if present.
func (r *Registry) HasOverride(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.overrideDir == "" {
		return ""
	}
	for _, entry := range r.prompts[name] {
		if strings.HasPrefix(entry.source, r.overrideDir) {
			return entry.source
		}
	}
	return ""
}

func sortedVersions(versions map[string]*templateEntry) []string {
	if len(versions) == 0 {
		return nil
	}
	entries := make([]*templateEntry, 0, len(versions))
	for _, e := range versions {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].version.LessThan(entries[j].version) })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.version.Original()
	}
	return out
}

func latestVersion(versions map[string]*templateEntry) string {
	sorted := sortedVersions(versions)
	return sorted[len(sorted)-1]
}

func parseFilename(filename string) (string, *semver.Version, error) {
	base := strings.TrimSuffix(filepath.Base(filename), ".tmpl")
	parts := strings.Split(base, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", nil, fmt.Errorf("invalid prompt filename: %s", filename)
	}
	v, err := semver.NewVersion(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid prompt version %q: %w", parts[1], err)
	}
	return parts[0], v, nil
}
