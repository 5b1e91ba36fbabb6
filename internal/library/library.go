// Package library loads the curated protocol templates seeded on startup.
package library

import (
	_ "embed"
	"fmt"
	"os"

	"alcyxob/wellness-app/internal/domain"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed protocols.yaml
var defaultLibrary []byte

type file struct {
	Protocols []domain.Protocol `yaml:"protocols"`
}

// Default returns the curated library shipped with the binary.
func Default() ([]domain.Protocol, error) {
	return Parse(defaultLibrary)
}

// Load reads a library file. An empty path means the built-in library.
func Load(path string) ([]domain.Protocol, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol library: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a library document. Every invalid protocol is
// reported, not just the first one.
func Parse(data []byte) ([]domain.Protocol, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode protocol library: %w", err)
	}

	var errs error
	seen := make(map[string]struct{}, len(f.Protocols))
	for i := range f.Protocols {
		p := &f.Protocols[i]
		if p.Slug == "" {
			errs = multierr.Append(errs, fmt.Errorf("protocol %d (%s): missing slug", i, p.Name))
			continue
		}
		if _, dup := seen[p.Slug]; dup {
			errs = multierr.Append(errs, fmt.Errorf("protocol %s: duplicate slug", p.Slug))
			continue
		}
		seen[p.Slug] = struct{}{}
		if p.SchemaVersion == 0 {
			p.SchemaVersion = domain.CurrentSchemaVersion
		}
		if err := p.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("protocol %s: %w", p.Slug, err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return f.Protocols, nil
}

// LoadTemplate reads a single protocol document, as used by offline tooling.
func LoadTemplate(path string) (*domain.Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol template: %w", err)
	}
	var p domain.Protocol
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode protocol template: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
