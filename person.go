package cvgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/assets"
	"github.com/alnah/go-cvgen/internal/fileutil"
)

// Scaffolding templates looked up under the template root. Built-in
// versions are used when the root does not provide them.
const (
	PersonTemplateFile      = assets.PersonTemplate
	ExperiencesTemplateFile = assets.ExperiencesTemplate
	personReadme            = "README.md"
)

// PersonStore manages person directories under a data root.
type PersonStore struct {
	dirs Dirs
	log  *zap.Logger
}

// NewPersonStore creates a store. dirs.Output is unused.
func NewPersonStore(dirs Dirs, log *zap.Logger) *PersonStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PersonStore{dirs: dirs, log: log}
}

// CreatedPerson describes a scaffolded person directory.
type CreatedPerson struct {
	Person string   `json:"person"`
	Dir    string   `json:"dir"`
	Files  []string `json:"files"`
}

// Create scaffolds {data}/{person}. cv_params.toml is rendered from
// person_template.toml with {{name}} replaced by displayName (or person),
// and each supported language gets a copy of experiences_template.typ.
// On failure the partially scaffolded directory is removed, so a retry
// starts clean.
func (s *PersonStore) Create(person, displayName string) (_ *CreatedPerson, err error) {
	if err := ValidatePerson(person); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = person
	}

	scaffold, err := assets.NewResolver(s.dirs.Templates)
	if err != nil {
		return nil, fmt.Errorf("opening template directory: %w", err)
	}

	if err := os.MkdirAll(s.dirs.Data, fileutil.DirPermissions); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dir := filepath.Join(s.dirs.Data, person)
	if err := os.Mkdir(dir, fileutil.DirPermissions); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrPersonExists, person)
		}
		return nil, fmt.Errorf("creating person directory: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.log.Warn("removing partial person directory", zap.String("dir", dir), zap.Error(rmErr))
		}
	}()

	created := &CreatedPerson{Person: person, Dir: dir}
	write := func(name, content string) error {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), fileutil.FilePermissions); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		created.Files = append(created.Files, name)
		return nil
	}

	vars := map[string]string{"name": displayName}

	params, err := s.readTemplate(scaffold, PersonTemplateFile)
	if err != nil {
		return nil, err
	}
	if err := write(ParamsFile, fillPlaceholders(params, vars)); err != nil {
		return nil, err
	}

	experiences, err := s.readTemplate(scaffold, ExperiencesTemplateFile)
	if err != nil {
		return nil, err
	}
	for _, lang := range supportedLanguages {
		if err := write(ContentFile(lang), experiences); err != nil {
			return nil, err
		}
	}

	if err := write(personReadme, readmeFor(person)); err != nil {
		return nil, err
	}

	s.log.Info("person created", zap.String("person", person), zap.Strings("files", created.Files))
	return created, nil
}

func (s *PersonStore) readTemplate(r *assets.Resolver, name string) (string, error) {
	content, fromDir, err := r.LoadWithSource(name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if !fromDir {
		s.log.Debug("using built-in scaffolding", zap.String("file", name))
	}
	return content, nil
}

// fillPlaceholders replaces each {{key}} with its value.
func fillPlaceholders(s string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

func readmeFor(person string) string {
	return fmt.Sprintf(`# %s CV Data

Add your profile image as `+"`profile.png`"+` in this directory.
Add your company logo as `+"`company_logo.png`"+` (optional).

Edit the following files:
- `+"`cv_params.toml`"+` - Personal information, skills, and key insights
- `+"`experiences_*.typ`"+` - Work experience for each language (%s)
`, person, strings.Join(supportedLanguages, "/"))
}

// List returns the person identifiers under the data root, sorted.
// A missing data root yields an empty list.
func (s *PersonStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dirs.Data)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var persons []string
	for _, e := range entries {
		if e.IsDir() && fileutil.ValidateName(e.Name()) == nil {
			persons = append(persons, e.Name())
		}
	}
	return persons, nil
}

// SaveProfileImage stores r as the person's profile.png. The content must
// start with a PNG or JPEG signature and be at most limit bytes (limit <= 0
// means MaxImageBytes). The previous picture is only replaced on success.
func (s *PersonStore) SaveProfileImage(person string, r io.Reader, limit int64) (string, error) {
	dir, err := s.personDir(person)
	if err != nil {
		return "", err
	}
	if limit <= 0 {
		limit = MaxImageBytes
	}

	br := bufio.NewReader(r)
	header, err := br.Peek(len(pngSignature))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if len(header) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if ImageFormat(header) == "" {
		return "", ErrInvalidImage
	}

	dst := filepath.Join(dir, ProfileImageFile)
	n, err := fileutil.WriteFileAtomic(dst, br, limit)
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	if n > limit {
		return "", fmt.Errorf("%w: max %d bytes", ErrImageTooLarge, limit)
	}

	s.log.Info("profile image saved", zap.String("person", person), zap.Int64("bytes", n))
	return dst, nil
}

// ProfileImage returns the path of the person's profile picture.
func (s *PersonStore) ProfileImage(person string) (string, error) {
	dir, err := s.personDir(person)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, ProfileImageFile)
	if !fileutil.FileExists(p) {
		return "", fmt.Errorf("%w: %s has no %s", ErrFileNotFound, person, ProfileImageFile)
	}
	return p, nil
}

// Delete removes the person's directory and everything in it. PDFs already
// written to the output root are kept.
func (s *PersonStore) Delete(person string) error {
	dir, err := s.personDir(person)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting %s: %w", person, err)
	}
	s.log.Info("person deleted", zap.String("person", person))
	return nil
}

// personDir validates person and returns its existing directory.
func (s *PersonStore) personDir(person string) (string, error) {
	if err := ValidatePerson(person); err != nil {
		return "", err
	}
	dir := filepath.Join(s.dirs.Data, person)
	if !fileutil.DirExists(dir) {
		return "", fmt.Errorf("%w: %s", ErrPersonNotFound, person)
	}
	return dir, nil
}
