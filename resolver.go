package cvgen

import (
	"fmt"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/fileutil"
)

// File names of the person directory contract.
const (
	ParamsFile       = "cv_params.toml"
	ProfileImageFile = "profile.png"
	CompanyLogoFile  = "company_logo.png"
)

// ContentFile is the person's content file for lang.
func ContentFile(lang string) string {
	return "experiences_" + lang + ".typ"
}

// ResolvedAssets holds absolute paths that existed when the request was
// resolved. ProfileImage and Logo are empty when absent.
type ResolvedAssets struct {
	Request      Request
	Params       string
	Content      string
	Primary      string
	Base         string
	ProfileImage string
	Logo         string
}

// Sources lists every resolved file, for watch mode.
func (a *ResolvedAssets) Sources() []string {
	out := []string{a.Params, a.Content, a.Primary, a.Base}
	if a.ProfileImage != "" {
		out = append(out, a.ProfileImage)
	}
	if a.Logo != "" {
		out = append(out, a.Logo)
	}
	return out
}

// WatchSources is Sources plus the person's optional profile.png and
// company_logo.png even when absent, so watch mode sees them appear.
func (a *ResolvedAssets) WatchSources() []string {
	out := a.Sources()
	personDir := a.Request.PersonDir()
	for _, name := range []string{ProfileImageFile, CompanyLogoFile} {
		p := filepath.Join(personDir, name)
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Resolver checks that every file a request needs is on disk. It never
// writes.
type Resolver struct {
	log *zap.Logger
}

// NewResolver creates a Resolver. A nil logger is replaced by a no-op one.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// Resolve checks, in order: person directory, profile data, content for the
// requested language, variant primary template, shared base template.
// The first missing file is reported as a *MissingAssetError.
func (r *Resolver) Resolve(req Request) (*ResolvedAssets, error) {
	personDir := req.PersonDir()
	if !fileutil.DirExists(personDir) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrPersonNotFound, req.Person, personDir)
	}

	a := &ResolvedAssets{Request: req}
	required := []struct {
		name string
		path string
		dst  *string
	}{
		{ParamsFile, filepath.Join(personDir, ParamsFile), &a.Params},
		{ContentFile(req.Lang), filepath.Join(personDir, ContentFile(req.Lang)), &a.Content},
		{req.Variant.Primary, filepath.Join(req.Dirs.Templates, req.Variant.Primary), &a.Primary},
		{BaseTemplate, filepath.Join(req.Dirs.Templates, BaseTemplate), &a.Base},
	}
	for _, f := range required {
		if !fileutil.FileExists(f.path) {
			return nil, &MissingAssetError{Name: f.name, Path: f.path}
		}
		*f.dst = f.path
	}

	if p := filepath.Join(personDir, ProfileImageFile); fileutil.FileExists(p) {
		if err := CheckImageFile(p); err != nil {
			r.log.Warn("ignoring profile image", zap.String("path", p), zap.Error(err))
		} else {
			a.ProfileImage = p
		}
	}

	a.Logo = r.resolveLogo(req, personDir)

	return a, nil
}

// resolveLogo prefers the person's own company logo over the variant's.
func (r *Resolver) resolveLogo(req Request, personDir string) string {
	if p := filepath.Join(personDir, CompanyLogoFile); fileutil.FileExists(p) {
		return p
	}
	if req.Variant.Logo == "" {
		return ""
	}
	p := filepath.Join(req.Dirs.Templates, req.Variant.Logo)
	if fileutil.FileExists(p) {
		return p
	}
	r.log.Debug("variant logo not found", zap.String("path", p))
	return ""
}
