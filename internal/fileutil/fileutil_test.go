package fileutil_test

// Notes:
// - MoveFile cross-device fallback: a real EXDEV needs two filesystems, so the
//   copy branch is only reached through the missing destination directory case.
// - Sync and Close error branches in CopyFile are not tested because triggering
//   disk write failures is platform-specific.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-cvgen/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateName - Path segment validation
// ---------------------------------------------------------------------------

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple name", "alice", nil},
		{"hyphenated name", "mohamed-bennekrouf", nil},
		{"underscore and digits", "jane_doe2", nil},
		{"empty", "", fileutil.ErrNameEmpty},
		{"parent traversal", "..", fileutil.ErrNameInvalid},
		{"forward slash", "a/b", fileutil.ErrNameInvalid},
		{"backslash", "a\\b", fileutil.ErrNameInvalid},
		{"dot", "a.b", fileutil.ErrNameInvalid},
		{"leading hyphen", "-rf", fileutil.ErrNameInvalid},
		{"null byte", "a\x00b", fileutil.ErrNameInvalid},
		{"space", "john doe", fileutil.ErrNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFileExists / TestDirExists - Existence checks
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false, want true")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if fileutil.FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists(missing) = true, want false")
	}
}

func TestDirExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if !fileutil.DirExists(dir) {
		t.Error("DirExists(dir) = false, want true")
	}
	if fileutil.DirExists(file) {
		t.Error("DirExists(file) = true, want false")
	}
}

// ---------------------------------------------------------------------------
// TestCopyFile - Content copy semantics
// ---------------------------------------------------------------------------

func TestCopyFile(t *testing.T) {
	t.Parallel()

	t.Run("copies content and leaves source intact", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := filepath.Join(dir, "src.toml")
		dst := filepath.Join(dir, "dst.toml")
		if err := os.WriteFile(src, []byte("name = \"alice\""), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		if err := fileutil.CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile() error = %v", err)
		}

		got, err := os.ReadFile(dst)
		if err != nil {
			t.Fatalf("reading dst: %v", err)
		}
		if string(got) != "name = \"alice\"" {
			t.Errorf("dst content = %q", got)
		}
		if !fileutil.FileExists(src) {
			t.Error("source was removed by CopyFile")
		}
	})

	t.Run("truncates existing destination", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := filepath.Join(dir, "src")
		dst := filepath.Join(dir, "dst")
		if err := os.WriteFile(src, []byte("short"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(dst, []byte("a much longer previous content"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		if err := fileutil.CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile() error = %v", err)
		}
		got, _ := os.ReadFile(dst)
		if string(got) != "short" {
			t.Errorf("dst content = %q, want %q", got, "short")
		}
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := fileutil.CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("CopyFile() error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("directory source", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := fileutil.CopyFile(dir, filepath.Join(dir, "dst"))
		if !errors.Is(err, fileutil.ErrSourceIsDirectory) {
			t.Errorf("CopyFile() error = %v, want ErrSourceIsDirectory", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestMoveFile - Rename with replacement
// ---------------------------------------------------------------------------

func TestMoveFile(t *testing.T) {
	t.Parallel()

	t.Run("replaces destination", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := filepath.Join(dir, "new.pdf")
		dst := filepath.Join(dir, "out.pdf")
		if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		if err := fileutil.MoveFile(src, dst); err != nil {
			t.Fatalf("MoveFile() error = %v", err)
		}

		got, _ := os.ReadFile(dst)
		if string(got) != "new" {
			t.Errorf("dst content = %q, want %q", got, "new")
		}
		if fileutil.FileExists(src) {
			t.Error("source still exists after MoveFile")
		}
	})

	t.Run("missing destination directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := filepath.Join(dir, "new.pdf")
		if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		err := fileutil.MoveFile(src, filepath.Join(dir, "missing", "out.pdf"))
		if err == nil {
			t.Fatal("MoveFile() expected error for missing destination directory")
		}
	})
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Bounded atomic writes
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes within limit", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "profile.png")

		n, err := fileutil.WriteFileAtomic(path, strings.NewReader("image-bytes"), 1024)
		if err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}
		if n != int64(len("image-bytes")) {
			t.Errorf("n = %d, want %d", n, len("image-bytes"))
		}
		got, _ := os.ReadFile(path)
		if string(got) != "image-bytes" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("over limit leaves destination untouched", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "profile.png")
		if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		n, err := fileutil.WriteFileAtomic(path, strings.NewReader("0123456789"), 4)
		if err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}
		if n <= 4 {
			t.Errorf("n = %d, want > 4", n)
		}
		got, _ := os.ReadFile(path)
		if string(got) != "previous" {
			t.Errorf("content = %q, want previous content kept", got)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("dir has %d entries, want 1 (temp file not cleaned up)", len(entries))
		}
	})
}

// ---------------------------------------------------------------------------
// TestIsFilePath - Name vs path detection
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"production", false},
		{"my-config", false},
		{"./cvgen.yaml", true},
		{"/etc/cvgen/cvgen.yaml", true},
		{"C:\\cvgen\\cvgen.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsFilePath(tt.input); got != tt.want {
				t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestContainedPath - Relative paths that stay inside a base
// ---------------------------------------------------------------------------

func TestContainedPath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr error
	}{
		{"plain file", "cv_params.toml", filepath.Join(realBase, "cv_params.toml"), nil},
		{"nested missing file", "extra/notes.typ", filepath.Join(realBase, "extra", "notes.typ"), nil},
		{"inner dot segments", "extra/../cv_params.toml", filepath.Join(realBase, "cv_params.toml"), nil},
		{"empty", "", "", fileutil.ErrNameEmpty},
		{"base itself", ".", "", fileutil.ErrOutsideBase},
		{"parent", "..", "", fileutil.ErrOutsideBase},
		{"climbs out", "../other/cv_params.toml", "", fileutil.ErrOutsideBase},
		{"climbs out after descending", "a/../../x.toml", "", fileutil.ErrOutsideBase},
		{"absolute", "/etc/passwd", "", fileutil.ErrOutsideBase},
		{"backslash", "a\\b.toml", "", fileutil.ErrOutsideBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fileutil.ContainedPath(base, tt.rel)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ContainedPath(%q) error = %v, want %v", tt.rel, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ContainedPath(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}

	t.Run("symlink leading outside", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		outside := t.TempDir()
		if err := os.Symlink(outside, filepath.Join(base, "escape")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		if _, err := fileutil.ContainedPath(base, "escape/x.toml"); !errors.Is(err, fileutil.ErrOutsideBase) {
			t.Errorf("ContainedPath() through an outside link = %v, want ErrOutsideBase", err)
		}
	})
}
