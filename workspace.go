package cvgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/fileutil"
	"github.com/alnah/go-cvgen/internal/metrics"
)

// WorkspacePrefix starts every workspace directory name.
const WorkspacePrefix = "cvgen-job-"

// StagedContentFile is the language-neutral name the templates import.
const StagedContentFile = "experiences.typ"

// WorkspaceManager allocates one private directory per job under root.
// Safe for concurrent use: directories are uuid-named and never shared.
type WorkspaceManager struct {
	root    string
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewWorkspaceManager creates a manager. Empty root means os.TempDir().
func NewWorkspaceManager(root string, log *zap.Logger, rec *metrics.Recorder) *WorkspaceManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkspaceManager{root: root, log: log, metrics: rec}
}

// Root returns the absolute parent directory of workspaces.
func (m *WorkspaceManager) Root() (string, error) {
	root := m.root
	if root == "" {
		root = os.TempDir()
	}
	return filepath.Abs(root)
}

// Workspace is a staged job directory. Release removes it.
type Workspace struct {
	ID     string
	Dir    string
	Assets *ResolvedAssets

	// HasPicture and HasLogo report which optional files were staged.
	HasPicture bool
	HasLogo    bool

	// Skipped lists optional files that could not be staged.
	Skipped []string

	staged     map[string]string // absolute source -> staged name
	superseded map[string]bool   // sources replaced by a later arrival
	mgr        *WorkspaceManager
	release sync.Once
}

type stagedFile struct {
	src      string
	name     string
	required bool
}

func stagingPlan(a *ResolvedAssets) []stagedFile {
	plan := []stagedFile{
		{a.Params, ParamsFile, true},
		{a.Content, StagedContentFile, true},
		{a.Primary, filepath.Base(a.Primary), true},
		{a.Base, BaseTemplate, true},
	}
	if a.ProfileImage != "" {
		plan = append(plan, stagedFile{a.ProfileImage, ProfileImageFile, false})
	}
	if a.Logo != "" {
		plan = append(plan, stagedFile{a.Logo, CompanyLogoFile, false})
	}
	return plan
}

// Acquire creates a fresh workspace and stages copies of the resolved files.
// If a required copy fails the directory is removed and a *StagingError
// returned.
func (m *WorkspaceManager) Acquire(a *ResolvedAssets) (*Workspace, error) {
	root, err := m.Root()
	if err != nil {
		return nil, &StagingError{Asset: "workspace", Err: err}
	}
	if err := os.MkdirAll(root, fileutil.DirPermissions); err != nil {
		return nil, &StagingError{Asset: "workspace", Err: err}
	}

	id := uuid.NewString()
	dir := filepath.Join(root, WorkspacePrefix+id)
	if err := os.Mkdir(dir, fileutil.DirPermissions); err != nil {
		return nil, &StagingError{Asset: "workspace", Err: err}
	}
	m.metrics.WorkspaceAcquired()

	ws := &Workspace{
		ID:         id,
		Dir:        dir,
		Assets:     a,
		staged:     make(map[string]string),
		superseded: make(map[string]bool),
		mgr:        m,
	}
	log := m.log.With(zap.String("workspace", dir))

	for _, f := range stagingPlan(a) {
		if err := fileutil.CopyFile(f.src, filepath.Join(dir, f.name)); err != nil {
			if f.required {
				_ = ws.Release()
				return nil, &StagingError{Asset: f.name, Err: err}
			}
			log.Warn("skipping optional asset", zap.String("asset", f.name), zap.Error(err))
			ws.Skipped = append(ws.Skipped, f.name)
			continue
		}
		ws.staged[f.src] = f.name
		switch f.name {
		case ProfileImageFile:
			ws.HasPicture = true
		case CompanyLogoFile:
			ws.HasLogo = true
		}
	}

	log.Debug("workspace staged", zap.Int("files", len(ws.staged)))
	return ws, nil
}

// With acquires a workspace, runs fn, and releases the workspace on every
// exit path including a panic in fn. Release failures are logged.
func (m *WorkspaceManager) With(a *ResolvedAssets, fn func(*Workspace) error) error {
	ws, err := m.Acquire(a)
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Release(); err != nil {
			m.log.Warn("workspace cleanup failed", zap.String("workspace", ws.Dir), zap.Error(err))
		}
	}()
	return fn(ws)
}

// Path returns the absolute path of a file inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// PrimaryPath is the staged primary template.
func (w *Workspace) PrimaryPath() string {
	return w.Path(filepath.Base(w.Assets.Primary))
}

// Refresh copies source over its staged copy again. The person's
// profile.png and company_logo.png are staged on first sight, so files added
// after Acquire are picked up. A person logo replaces a staged variant logo.
// Not safe for concurrent use.
func (w *Workspace) Refresh(source string) error {
	source = filepath.Clean(source)
	if w.superseded[source] {
		return nil
	}
	name, ok := w.staged[source]
	if !ok {
		return w.stageLate(source)
	}
	if err := fileutil.CopyFile(source, w.Path(name)); err != nil {
		return &StagingError{Asset: name, Err: err}
	}
	return nil
}

// stageLate stages an optional person file that was absent at Acquire.
func (w *Workspace) stageLate(source string) error {
	personDir := w.Assets.Request.PersonDir()
	var name string
	switch source {
	case filepath.Join(personDir, ProfileImageFile):
		if err := CheckImageFile(source); err != nil {
			w.mgr.log.Warn("ignoring profile image", zap.String("path", source), zap.Error(err))
			return nil
		}
		name = ProfileImageFile
	case filepath.Join(personDir, CompanyLogoFile):
		name = CompanyLogoFile
	default:
		return fmt.Errorf("%s is not staged in workspace %s", source, w.ID)
	}

	if err := fileutil.CopyFile(source, w.Path(name)); err != nil {
		return &StagingError{Asset: name, Err: err}
	}
	for src, staged := range w.staged {
		if staged == name {
			delete(w.staged, src)
			w.superseded[src] = true
		}
	}
	w.staged[source] = name
	if name == ProfileImageFile {
		w.HasPicture = true
	} else {
		w.HasLogo = true
	}
	w.mgr.log.Debug("staged new optional file", zap.String("workspace", w.Dir), zap.String("asset", name))
	return nil
}

// Release removes the workspace directory. Only the first call acts.
func (w *Workspace) Release() error {
	var err error
	w.release.Do(func() {
		err = os.RemoveAll(w.Dir)
		w.mgr.metrics.WorkspaceReleased()
	})
	return err
}
