// Package profiles manages YAML-based delimiter profile configuration.
// A profile gives a memorable name to a word delimiter so API clients can
// say "kebab" instead of "-".
package profiles

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Profile describes a named word delimiter.
type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Delimiter   string `yaml:"delimiter" json:"delimiter"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Config is the top-level YAML structure.
type Config struct {
	Profiles []Profile `yaml:"profiles"`
}

// Registry holds loaded profiles, keyed by name.
type Registry struct {
	byName map[string]*Profile
	order  []string // preserves definition order
}

// Defaults returns the built-in profile registry.
func Defaults() *Registry {
	r := newRegistry()
	r.add(&Profile{Name: "snake", Delimiter: "_", Description: "underscore-separated words"})
	r.add(&Profile{Name: "kebab", Delimiter: "-", Description: "hyphen-separated words"})
	r.add(&Profile{Name: "dot", Delimiter: ".", Description: "dot-separated words"})
	return r
}

// Load reads the YAML file at path and returns a Registry. If the file does
// not exist, Load returns the built-in defaults (not an error). Every loaded
// profile must carry a single-character delimiter.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	r := newRegistry()
	for i := range cfg.Profiles {
		p := &cfg.Profiles[i]
		if p.Name == "" {
			return nil, fmt.Errorf("profiles: profile %d has no name", i)
		}
		if utf8.RuneCountInString(p.Delimiter) != 1 {
			return nil, fmt.Errorf("profiles: profile %q: delimiter must be a single character", p.Name)
		}
		r.add(p)
	}
	return r, nil
}

func newRegistry() *Registry {
	return &Registry{byName: make(map[string]*Profile)}
}

func (r *Registry) add(p *Profile) {
	if _, exists := r.byName[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	r.byName[p.Name] = p
}

// Get returns a profile by name. Returns (nil, false) if not found.
func (r *Registry) Get(name string) (*Profile, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns all profiles in definition order.
func (r *Registry) All() []*Profile {
	result := make([]*Profile, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.byName[name])
	}
	return result
}
