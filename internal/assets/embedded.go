package assets

import (
	"embed"
	"fmt"
)

//go:embed scaffold/*
var scaffold embed.FS

// EmbeddedLoader loads the built-in starter files.
// Implements Loader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// Load reads a built-in file by name.
func (e *EmbeddedLoader) Load(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := scaffold.ReadFile("scaffold/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrAssetNotFound, name)
	}

	return string(content), nil
}

// Compile-time interface check.
var _ Loader = (*EmbeddedLoader)(nil)
