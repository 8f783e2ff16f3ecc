// Package manifest reads and writes the release manifest kept at the
// changelog root. The manifest is the source of truth for which versions
// have been cut from the fragment tree.
package manifest

import (
	"fmt"
	"os"

	"github.com/relnote-labs/relnote/pkg/core"
	"gopkg.in/yaml.v3"
)

// FileName is the manifest file name inside the changelog directory.
const FileName = "releases.yaml"

// Manifest is the ordered list of cut releases, newest last.
type Manifest struct {
	Releases []core.Release `yaml:"releases"`
}

// Load reads the manifest at path. A missing file yields an empty manifest,
// since a fresh changelog tree has no releases yet.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from project config
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: manifest is project documentation
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Versions returns all recorded versions in manifest order.
func (m *Manifest) Versions() []string {
	out := make([]string, 0, len(m.Releases))
	for _, r := range m.Releases {
		out = append(out, r.Version)
	}
	return out
}

// Has reports whether the version is already recorded.
func (m *Manifest) Has(version string) bool {
	for _, r := range m.Releases {
		if r.Version == version {
			return true
		}
	}
	return false
}

// Add appends a release to the manifest.
func (m *Manifest) Add(rel core.Release) {
	m.Releases = append(m.Releases, rel)
}
