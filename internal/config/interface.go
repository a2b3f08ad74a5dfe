package config

import "context"

// Loader is the interface for a format-specific sweep file loader.
type Loader interface {
	// Load reads the sweep file at path, applies defaults, resolves relative
	// paths against the file's directory and validates the result.
	Load(ctx context.Context, path string) (*Sweep, error)
}
