package cvgen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// TestResolver_Resolve - Existence checks in order
// ---------------------------------------------------------------------------

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("complete person", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, testPerson, "en", "default", dirs)

		a, err := NewResolver(nil).Resolve(req)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}

		personDir := req.PersonDir()
		want := map[string]string{
			"params":  filepath.Join(personDir, ParamsFile),
			"content": filepath.Join(personDir, "experiences_en.typ"),
			"primary": filepath.Join(req.Dirs.Templates, "cv.typ"),
			"base":    filepath.Join(req.Dirs.Templates, "template.typ"),
		}
		got := map[string]string{"params": a.Params, "content": a.Content, "primary": a.Primary, "base": a.Base}
		for k, w := range want {
			if got[k] != w {
				t.Errorf("%s = %q, want %q", k, got[k], w)
			}
			if !filepath.IsAbs(got[k]) {
				t.Errorf("%s = %q is not absolute", k, got[k])
			}
		}
		if a.ProfileImage != "" || a.Logo != "" {
			t.Errorf("optional assets = %q, %q, want none", a.ProfileImage, a.Logo)
		}
		if len(a.Sources()) != 4 {
			t.Errorf("Sources() = %v, want 4 paths", a.Sources())
		}
	})

	t.Run("person not found", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, "ghost", "en", "default", dirs)

		_, err := NewResolver(nil).Resolve(req)
		if !errors.Is(err, ErrPersonNotFound) {
			t.Errorf("Resolve() error = %v, want ErrPersonNotFound", err)
		}
	})

	t.Run("missing content for language", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, testPerson, "de", "default", dirs)

		_, err := NewResolver(nil).Resolve(req)
		var missing *MissingAssetError
		if !errors.As(err, &missing) {
			t.Fatalf("Resolve() error = %v, want *MissingAssetError", err)
		}
		if missing.Name != "experiences_de.typ" {
			t.Errorf("Name = %q, want experiences_de.typ", missing.Name)
		}
		if missing.Path != filepath.Join(req.PersonDir(), "experiences_de.typ") {
			t.Errorf("Path = %q", missing.Path)
		}
	})

	// Each required file is removed in turn; the error must name exactly it.
	for _, tt := range []struct {
		name    string
		missing func(Dirs) string
		asset   string
	}{
		{"params", func(d Dirs) string { return filepath.Join(d.Data, testPerson, ParamsFile) }, ParamsFile},
		{"content", func(d Dirs) string { return filepath.Join(d.Data, testPerson, "experiences_en.typ") }, "experiences_en.typ"},
		{"primary", func(d Dirs) string { return filepath.Join(d.Templates, "cv_keyteo.typ") }, "cv_keyteo.typ"},
		{"base", func(d Dirs) string { return filepath.Join(d.Templates, BaseTemplate) }, BaseTemplate},
	} {
		t.Run("missing "+tt.name, func(t *testing.T) {
			t.Parallel()

			dirs := newFixture(t)
			if err := os.Remove(tt.missing(dirs)); err != nil {
				t.Fatalf("setup: %v", err)
			}
			req := mustRequest(t, testPerson, "en", "keyteo", dirs)

			_, err := NewResolver(nil).Resolve(req)
			var missing *MissingAssetError
			if !errors.As(err, &missing) {
				t.Fatalf("Resolve() error = %v, want *MissingAssetError", err)
			}
			if missing.Name != tt.asset {
				t.Errorf("Name = %q, want %q", missing.Name, tt.asset)
			}
		})
	}

	t.Run("optional assets", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		personDir := filepath.Join(dirs.Data, testPerson)
		writeFile(t, filepath.Join(personDir, ProfileImageFile), string(pngBytes))

		req := mustRequest(t, testPerson, "en", "keyteo", dirs)
		a, err := NewResolver(nil).Resolve(req)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if a.ProfileImage != filepath.Join(req.PersonDir(), ProfileImageFile) {
			t.Errorf("ProfileImage = %q", a.ProfileImage)
		}
		if a.Logo != filepath.Join(req.Dirs.Templates, "keyteo_logo.png") {
			t.Errorf("Logo = %q, want variant logo", a.Logo)
		}
		if len(a.Sources()) != 6 {
			t.Errorf("Sources() = %v, want 6 paths", a.Sources())
		}
	})

	t.Run("person logo wins over variant logo", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		writeFile(t, filepath.Join(dirs.Data, testPerson, CompanyLogoFile), string(pngBytes))

		req := mustRequest(t, testPerson, "en", "keyteo", dirs)
		a, err := NewResolver(nil).Resolve(req)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if a.Logo != filepath.Join(req.PersonDir(), CompanyLogoFile) {
			t.Errorf("Logo = %q, want person logo", a.Logo)
		}
	})

	t.Run("invalid profile image is ignored", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		writeFile(t, filepath.Join(dirs.Data, testPerson, ProfileImageFile), "GIF89a not a png")

		req := mustRequest(t, testPerson, "en", "default", dirs)
		a, err := NewResolver(nil).Resolve(req)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if a.ProfileImage != "" {
			t.Errorf("ProfileImage = %q, want ignored", a.ProfileImage)
		}
	})

	t.Run("resolution writes nothing", func(t *testing.T) {
		t.Parallel()

		dirs := newFixture(t)
		req := mustRequest(t, testPerson, "en", "default", dirs)
		if _, err := NewResolver(nil).Resolve(req); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if _, err := os.Stat(dirs.Output); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("output root created during resolution: %v", err)
		}
	})
}
