package cvgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-cvgen/internal/fileutil"
)

// OutputFileName is the deterministic name of a rendered document.
func OutputFileName(person, variant, lang string) string {
	return fmt.Sprintf("%s_%s_%s.pdf", person, variant, lang)
}

// OutputManager places compiled documents under the output root.
type OutputManager struct{}

// Path is where req's document ends up.
func (m *OutputManager) Path(req Request) string {
	return filepath.Join(req.Dirs.Output, OutputFileName(req.Person, req.Variant.Name, req.Lang))
}

// Finalize checks that produced exists and moves it to Path(req), replacing
// any earlier document. A zero exit status alone is not trusted.
func (m *OutputManager) Finalize(produced string, req Request) (*Result, error) {
	if !fileutil.FileExists(produced) {
		return nil, fmt.Errorf("%w: %s", ErrOutputMissing, produced)
	}
	if err := os.MkdirAll(req.Dirs.Output, fileutil.DirPermissions); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	dst := m.Path(req)
	if err := fileutil.MoveFile(produced, dst); err != nil {
		return nil, fmt.Errorf("moving output: %w", err)
	}

	return &Result{
		Path:    dst,
		Person:  req.Person,
		Variant: req.Variant.Name,
		Lang:    req.Lang,
	}, nil
}
