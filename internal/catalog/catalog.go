// Package catalog materializes named datasets from local files or HTTP
// sources for offline validation.
package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"go-data-sentinel/internal/model"
	"go-data-sentinel/internal/validation"
)

// Source describes where one dataset's materialized form lives.
type Source struct {
	Type string `yaml:"type"` // csv, json
	Path string `yaml:"path"` // file path or http(s) URL
}

// File is the on-disk shape of a catalog configuration.
type File struct {
	Datasets map[string]Source `yaml:"datasets"`
}

// Catalog maps dataset names to their sources. It implements
// validation.DataProvider so it plugs directly into the OfflineRunner.
type Catalog map[string]validation.DataProvider

var _ validation.DataProvider = Catalog{}

// Materialize loads the named dataset, failing for unknown names so the
// Validator can turn the miss into a synthetic failing outcome.
func (c Catalog) Materialize(ctx context.Context, name string) ([]model.GenericRecord, error) {
	provider, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q is not in the catalog", name)
	}
	return provider.Materialize(ctx, name)
}

// Load reads a catalog configuration file and builds file providers.
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(file.Datasets) == 0 {
		return nil, fmt.Errorf("catalog %q defines no datasets", path)
	}

	cat := make(Catalog, len(file.Datasets))
	for name, src := range file.Datasets {
		provider, err := NewFileProvider(src)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		cat[name] = provider
	}
	return cat, nil
}
