// Package dataset loads instance manifests, YAML files that pin the exact
// benchmark instances an evaluation run is expected to cover.
package dataset

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/openbench/swe-eval-orchestrator/internal/domain"
)

// Manifest is a validated instance manifest. Instances holds only the ids
// that parsed; everything malformed lands in Warnings.
type Manifest struct {
	Name      string
	Dataset   string
	Split     string
	Instances []domain.InstanceID
	Warnings  []string
}

type rawManifest struct {
	Name      string   `yaml:"name"`
	Dataset   string   `yaml:"dataset"`
	Split     string   `yaml:"split"`
	Instances []string `yaml:"instances"`
}

// LoadManifest reads and validates a manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest validates manifest YAML. Malformed instance ids are
// reported as warnings rather than errors so one bad entry does not sink
// the whole manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(raw.Instances) == 0 {
		return nil, fmt.Errorf("manifest lists no instances")
	}

	m := &Manifest{
		Name:    raw.Name,
		Dataset: raw.Dataset,
		Split:   raw.Split,
	}

	seen := make(map[string]bool)
	for _, s := range raw.Instances {
		if seen[s] {
			m.Warnings = append(m.Warnings, fmt.Sprintf("duplicate instance %q", s))
			continue
		}
		seen[s] = true

		id, err := domain.ParseInstanceID(s)
		if err != nil {
			m.Warnings = append(m.Warnings, fmt.Sprintf("skipping instance %q: %v", s, err))
			continue
		}
		m.Instances = append(m.Instances, id)
	}

	return m, nil
}

// Repos returns the distinct repositories covered by the manifest, sorted
func (m *Manifest) Repos() []string {
	set := make(map[string]bool)
	for _, id := range m.Instances {
		set[id.RepoFullName()] = true
	}
	repos := make([]string, 0, len(set))
	for r := range set {
		repos = append(repos, r)
	}
	sort.Strings(repos)
	return repos
}

// Contains reports whether the manifest lists the given instance id
func (m *Manifest) Contains(instanceID string) bool {
	for _, id := range m.Instances {
		if id.String() == instanceID {
			return true
		}
	}
	return false
}
