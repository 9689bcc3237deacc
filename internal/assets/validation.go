package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that an asset name is a plain file name.
// Returns ErrInvalidAssetName if the name is empty, hidden, or contains
// path separators or "..".
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
