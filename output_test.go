package cvgen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// TestOutputFileName - Deterministic naming
// ---------------------------------------------------------------------------

func TestOutputFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		person, variant, lang string
		want                  string
	}{
		{"mohamed-bennekrouf", "default", "en", "mohamed-bennekrouf_default_en.pdf"},
		{"jane_doe", "keyteo_full", "de", "jane_doe_keyteo_full_de.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := OutputFileName(tt.person, tt.variant, tt.lang); got != tt.want {
				t.Errorf("OutputFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOutputManager_Finalize - Verification and placement
// ---------------------------------------------------------------------------

func TestOutputManager_Finalize(t *testing.T) {
	t.Parallel()

	t.Run("missing output", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, testPerson, "en", "default", dirs)

		_, err := (&OutputManager{}).Finalize(filepath.Join(t.TempDir(), "never-written.pdf"), req)
		if !errors.Is(err, ErrOutputMissing) {
			t.Errorf("Finalize() error = %v, want ErrOutputMissing", err)
		}
	})

	t.Run("stale output does not mask a missing one", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, testPerson, "en", "default", dirs)
		m := &OutputManager{}
		writeFile(t, m.Path(req), "old pdf")

		_, err := m.Finalize(filepath.Join(t.TempDir(), "never-written.pdf"), req)
		if !errors.Is(err, ErrOutputMissing) {
			t.Errorf("Finalize() error = %v, want ErrOutputMissing", err)
		}
	})

	t.Run("moves and overwrites", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, testPerson, "fr", "keyteo", dirs)
		m := &OutputManager{}
		writeFile(t, m.Path(req), "previous")

		produced := filepath.Join(t.TempDir(), "render.pdf")
		writeFile(t, produced, "fresh")

		res, err := m.Finalize(produced, req)
		if err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		want := filepath.Join(dirs.Output, "mohamed-bennekrouf_keyteo_fr.pdf")
		if res.Path != want {
			t.Errorf("Path = %q, want %q", res.Path, want)
		}
		got, _ := os.ReadFile(res.Path)
		if string(got) != "fresh" {
			t.Errorf("content = %q, want fresh", got)
		}
		if _, err := os.Stat(produced); !errors.Is(err, os.ErrNotExist) {
			t.Error("produced file still present after Finalize")
		}
		if res.Person != testPerson || res.Variant != "keyteo" || res.Lang != "fr" {
			t.Errorf("Result = %+v", res)
		}
	})
}
