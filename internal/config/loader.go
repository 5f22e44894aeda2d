package config

import "context"

// Loader provides catalog loading capabilities. It abstracts the source of
// the catalog to allow for different implementations like files or remote
// configuration services.
type Loader interface {
	// Load retrieves and parses the catalog from the underlying source.
	// It returns the parsed catalog or an error if loading fails.
	Load(ctx context.Context) (*Catalog, error)
}
