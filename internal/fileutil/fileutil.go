// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrNameEmpty         = errors.New("name cannot be empty")
	ErrNameInvalid       = errors.New("name contains invalid characters")
	ErrSourceIsDirectory = errors.New("source is a directory")
	ErrOutsideBase       = errors.New("path escapes base directory")
)

// File permission constants.
const (
	DirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	FilePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// validName allows letters, digits, hyphen and underscore, starting with
// a letter or digit. Dots and separators are rejected so a name can never
// address anything outside its parent directory.
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateName checks that s is safe to use as a single path segment.
func ValidateName(s string) error {
	if s == "" {
		return ErrNameEmpty
	}
	if !validName.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrNameInvalid, s)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CopyFile copies src to dst, truncating dst if it exists.
// The copy is synced before returning so a subprocess started right after
// sees the full content.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- caller-resolved path
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceIsDirectory, src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FilePermissions) // #nosec G304 -- caller-resolved path
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("syncing destination: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return nil
}

// MoveFile moves src to dst, replacing dst. It tries a rename first and
// falls back to copy+remove when src and dst are on different devices.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Copy next to dst then rename, so readers never observe a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := CopyFile(src, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	_ = os.Remove(src)
	return nil
}

// WriteFileAtomic writes r to path through a temp file in the same directory.
// If r holds more than limit bytes, path is left untouched and the returned
// count is greater than limit.
func WriteFileAtomic(path string, r io.Reader, limit int64) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	n, err := io.Copy(tmp, io.LimitReader(r, limit+1))
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return n, fmt.Errorf("writing temp file: %w", err)
	}
	if n > limit {
		_ = tmp.Close()
		cleanup()
		return n, nil
	}
	if err := tmp.Chmod(FilePermissions); err != nil {
		_ = tmp.Close()
		cleanup()
		return n, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return n, fmt.Errorf("renaming into place: %w", err)
	}
	return n, nil
}

// ContainedPath joins the slash-separated relative path rel onto base and
// checks that the result stays inside base. Symlinks are followed for the
// part of the path that exists, so a link cannot lead outside base either.
// base must exist.
func ContainedPath(base, rel string) (string, error) {
	if rel == "" {
		return "", ErrNameEmpty
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.ContainsAny(rel, "\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || escapes(clean) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, rel)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base: %w", err)
	}
	realBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return "", fmt.Errorf("resolving base: %w", err)
	}

	target := filepath.Join(realBase, clean)
	resolved, err := resolveExisting(target)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rel, err)
	}
	inside, err := filepath.Rel(realBase, resolved)
	if err != nil || inside == "." || escapes(inside) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, rel)
	}
	return target, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks on the longest existing prefix of p and
// appends the missing remainder unchanged.
func resolveExisting(p string) (string, error) {
	var missing []string
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{real}, missing...)...), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p, nil
		}
		missing = append([]string{filepath.Base(p)}, missing...)
		p = parent
	}
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "production" -> false (name)
//   - "./cvgen.yaml" -> true (relative path)
//   - "/etc/cvgen/cvgen.yaml" -> true (absolute)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
