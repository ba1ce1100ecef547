package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed facts/*.yaml
var factsFS embed.FS

// DefaultDatasetVersion names the facts file loaded when none is configured.
const DefaultDatasetVersion = "summer-1976-2008"

// Facts is the versioned domain knowledge about the medals dataset: closed
// vocabularies, the host-city list and historical caveats.
type Facts struct {
	Version        string            `yaml:"version"`
	Table          string            `yaml:"table"`
	FirstYear      int               `yaml:"first_year"`
	LastYear       int               `yaml:"last_year"`
	Medals         []string          `yaml:"medals"`
	Genders        []string          `yaml:"genders"`
	EventGenders   map[string]string `yaml:"event_genders"`
	HostCities     []HostCity        `yaml:"host_cities"`
	Sports         []Named           `yaml:"sports"`
	Countries      []Named           `yaml:"countries"`
	PhraseMappings []PhraseMapping   `yaml:"phrase_mappings"`
	Notes          []string          `yaml:"notes"`
}

type HostCity struct {
	City    string   `yaml:"city"`
	Year    int      `yaml:"year"`
	Aliases []string `yaml:"aliases"`
}

// Named is a dataset value plus the ways users refer to it.
type Named struct {
	Name    string   `yaml:"name"`
	Code    string   `yaml:"code,omitempty"`
	Aliases []string `yaml:"aliases"`
}

type PhraseMapping struct {
	Phrase string `yaml:"phrase"`
	Filter string `yaml:"filter"`
}

var (
	factsMu    sync.Mutex
	factsCache = map[string]*Facts{}
)

// LoadFacts returns the parsed facts for a dataset version. Results are
// cached and must not be modified by callers.
func LoadFacts(version string) (*Facts, error) {
	if version == "" {
		version = DefaultDatasetVersion
	}

	factsMu.Lock()
	defer factsMu.Unlock()
	if f, ok := factsCache[version]; ok {
		return f, nil
	}

	data, err := factsFS.ReadFile("facts/" + version + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown dataset version %q: %w", version, err)
	}

	var f Facts
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse facts %s: %w", version, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("facts %s: %w", version, err)
	}

	factsCache[version] = &f
	return &f, nil
}

// MustDefaultFacts loads the embedded default facts and panics if they are
// malformed.
func MustDefaultFacts() *Facts {
	f, err := LoadFacts(DefaultDatasetVersion)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Facts) validate() error {
	switch {
	case f.Table == "":
		return fmt.Errorf("table is required")
	case f.FirstYear == 0 || f.LastYear < f.FirstYear:
		return fmt.Errorf("invalid year range %d-%d", f.FirstYear, f.LastYear)
	case len(f.Medals) == 0 || len(f.Genders) == 0:
		return fmt.Errorf("medal and gender vocabularies are required")
	}
	return nil
}

// CityList renders host cities as "Montreal (1976), Moscow (1980), ...".
func (f *Facts) CityList() string {
	parts := make([]string, len(f.HostCities))
	for i, c := range f.HostCities {
		parts[i] = fmt.Sprintf("%s (%d)", c.City, c.Year)
	}
	return strings.Join(parts, ", ")
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
