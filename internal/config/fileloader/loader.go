// Package fileloader loads the adapter catalog from a YAML file on disk.
package fileloader

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironhive/provisiond/internal/config"
)

// FileLoader loads the adapter catalog from a file on disk. It implements the
// Loader interface to provide file-based catalog management.
type FileLoader struct {
	// path is the filesystem path to the catalog file.
	path string
}

// NewFileLoader creates a new FileLoader that will load the catalog from the
// specified file path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and parses the catalog file specified in FileLoader.path.
// It returns the parsed catalog or an error if reading or parsing fails.
func (l *FileLoader) Load(_ context.Context) (*config.Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog config.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	cat, err := config.NewCatalog(catalog.OSes, catalog.Adapters)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}
