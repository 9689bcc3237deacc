package cvgen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/fileutil"
)

// MaxPersonFileBytes caps a person file written through the store.
const MaxPersonFileBytes = 1 << 20

// editableExts are the person files the store reads and writes: profile data
// and typst content. Images go through SaveProfileImage.
var editableExts = []string{".toml", ".typ"}

// PersonFile describes an editable file in a person directory.
type PersonFile struct {
	// Path is relative to the person directory, with forward slashes.
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Files lists the person's .toml and .typ files, sorted by path. Hidden
// entries and symlinks are skipped.
func (s *PersonStore) Files(person string) ([]PersonFile, error) {
	dir, err := s.personDir(person)
	if err != nil {
		return nil, err
	}

	files := []PersonFile{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !slices.Contains(editableExts, filepath.Ext(d.Name())) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, PersonFile{
			Path:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing files of %s: %w", person, err)
	}
	return files, nil
}

// ReadFile returns the content of a .toml or .typ file of the person. rel is
// relative to the person directory and may not leave it.
func (s *PersonStore) ReadFile(person, rel string) (string, error) {
	path, err := s.personFile(person, rel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, rel)
	case err != nil:
		return "", fmt.Errorf("reading %s: %w", rel, err)
	case !info.Mode().IsRegular():
		return "", fmt.Errorf("%w: %s is not a file", ErrInvalidPath, rel)
	case info.Size() > MaxPersonFileBytes:
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, rel, info.Size(), MaxPersonFileBytes)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- contained in the person directory
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), nil
}

// WriteFile replaces (or creates) a .toml or .typ file of the person with
// the content of r, creating parent directories inside the person directory.
// The write is atomic; content over MaxPersonFileBytes leaves the file
// untouched. It returns the absolute path written.
func (s *PersonStore) WriteFile(person, rel string, r io.Reader) (string, error) {
	path, err := s.personFile(person, rel)
	if err != nil {
		return "", err
	}
	if fileutil.DirExists(path) {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), fileutil.DirPermissions); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", rel, err)
	}

	n, err := fileutil.WriteFileAtomic(path, r, MaxPersonFileBytes)
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", rel, err)
	}
	if n > MaxPersonFileBytes {
		return "", fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, MaxPersonFileBytes)
	}

	s.log.Info("person file saved", zap.String("person", person), zap.String("file", rel), zap.Int64("bytes", n))
	return path, nil
}

// personFile validates rel and returns its absolute path inside the
// person directory.
func (s *PersonStore) personFile(person, rel string) (string, error) {
	dir, err := s.personDir(person)
	if err != nil {
		return "", err
	}
	if !slices.Contains(editableExts, filepath.Ext(rel)) {
		return "", fmt.Errorf("%w: %q: only %s files", ErrInvalidPath, rel, strings.Join(editableExts, " and "))
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != ".." {
			return "", fmt.Errorf("%w: %q: hidden entries are not editable", ErrInvalidPath, rel)
		}
	}

	path, err := fileutil.ContainedPath(dir, rel)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return path, nil
}
