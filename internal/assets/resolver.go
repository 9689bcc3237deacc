package assets

import (
	"errors"
	"os"
)

// Resolver combines a directory loader and the built-ins with fallback
// logic: the directory is tried first, the built-ins are used when the file
// is not found there.
type Resolver struct {
	custom   Loader // nil if no usable directory
	embedded Loader
}

// NewResolver creates a Resolver.
// An empty or missing customBasePath means only built-ins are used. A path
// that exists but is not a directory is an error.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}

	if customBasePath == "" {
		return r, nil
	}

	fsLoader, err := NewFilesystemLoader(customBasePath)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	r.custom = fsLoader
	return r, nil
}

// Load reads name from the directory, falling back to the built-ins.
func (r *Resolver) Load(name string) (string, error) {
	content, _, err := r.LoadWithSource(name)
	return content, err
}

// LoadWithSource is Load that also reports whether the content came from
// the directory (true) or the built-ins (false).
func (r *Resolver) LoadWithSource(name string) (string, bool, error) {
	if r.custom != nil {
		content, err := r.custom.Load(name)
		if err == nil {
			return content, true, nil
		}
		// Only fall back for "not found" errors, not validation or I/O errors
		if !errors.Is(err, ErrAssetNotFound) {
			return "", false, err
		}
	}

	content, err := r.embedded.Load(name)
	return content, false, err
}

// HasCustomLoader returns true if a directory loader is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ Loader = (*Resolver)(nil)
