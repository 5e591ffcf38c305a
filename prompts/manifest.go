package prompts

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional catalog file at the root of a prompt filesystem.
const ManifestFile = "prompts.yaml"

// Manifest describes the prompts shipped in a filesystem.
type Manifest struct {
	Prompts map[string]ManifestEntry `yaml:"prompts"`
}

// ManifestEntry documents one prompt and optionally pins the version used
// when callers do not ask for one.
type ManifestEntry struct {
	Description string `yaml:"description"`
	Version     string `yaml:"version,omitempty"`
}

// Entry returns the manifest entry for name, or a zero entry.
func (m *Manifest) Entry(name string) ManifestEntry {
	if m == nil {
		return ManifestEntry{}
	}
	return m.Prompts[name]
}

// Pinned returns the pinned version for name, or "".
func (m *Manifest) Pinned(name string) string {
	return m.Entry(name).Version
}

// Validate checks that every pinned version parses.
func (m *Manifest) Validate() error {
	if m == nil {
		return nil
	}
	for name, entry := range m.Prompts {
		if entry.Version == "" {
			continue
		}
		if _, err := semver.NewVersion(entry.Version); err != nil {
			return fmt.Errorf("prompts: manifest entry %s: invalid version: %w", name, err)
		}
	}
	return nil
}

func readManifest(fsys fs.FS) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prompts: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("prompts: decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
