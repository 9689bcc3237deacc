package cvgen

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/fileutil"
	"github.com/alnah/go-cvgen/internal/metrics"
)

// Dirs are the three roots a job reads from and writes to.
type Dirs struct {
	Data      string // one directory per person
	Output    string // rendered PDFs
	Templates string // variant primaries, base template, logos
}

// Request is one generation job. Build it with NewRequest; the zero value
// is not valid.
type Request struct {
	Person  string
	Lang    string
	Variant Variant
	Dirs    Dirs
}

// NewRequest validates and normalizes a job description without touching
// the filesystem. Directories are made absolute.
func NewRequest(person, lang, variant string, dirs Dirs) (Request, error) {
	if err := ValidatePerson(person); err != nil {
		return Request{}, err
	}

	code, err := NormalizeLanguage(lang)
	if err != nil {
		return Request{}, err
	}

	v, err := VariantFor(variant)
	if err != nil {
		return Request{}, err
	}

	abs, err := dirs.absolute()
	if err != nil {
		return Request{}, err
	}

	return Request{Person: person, Lang: code, Variant: v, Dirs: abs}, nil
}

// ValidatePerson checks that person is usable as a single directory name.
func ValidatePerson(person string) error {
	if err := fileutil.ValidateName(person); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPerson, err)
	}
	return nil
}

func (d Dirs) absolute() (Dirs, error) {
	var out Dirs
	for _, p := range []struct {
		src string
		dst *string
	}{
		{d.Data, &out.Data},
		{d.Output, &out.Output},
		{d.Templates, &out.Templates},
	} {
		abs, err := filepath.Abs(p.src)
		if err != nil {
			return Dirs{}, fmt.Errorf("resolving %q: %w", p.src, err)
		}
		*p.dst = abs
	}
	return out, nil
}

// PersonDir returns the person's data directory.
func (r Request) PersonDir() string {
	return filepath.Join(r.Dirs.Data, r.Person)
}

// Result describes a produced document.
type Result struct {
	Path     string        `json:"path"`
	Person   string        `json:"person"`
	Variant  string        `json:"variant"`
	Lang     string        `json:"lang"`
	JobID    string        `json:"jobId"`
	Duration time.Duration `json:"duration"`
}

// Option configures a Generator.
type Option func(*Generator)

// generatorConfig holds internal configuration for Generator.
type generatorConfig struct {
	timeout       time.Duration
	compiler      string
	workspaceRoot string
}

// Defaults used when no option overrides them.
const (
	defaultTimeout  = 60 * time.Second
	defaultCompiler = "typst"
)

// WithTimeout bounds each compiler invocation.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("cvgen: WithTimeout duration must be positive")
	}
	return func(g *Generator) {
		g.cfg.timeout = d
	}
}

// WithCompiler sets the compiler binary name or path. Empty keeps "typst".
func WithCompiler(binary string) Option {
	return func(g *Generator) {
		if binary != "" {
			g.cfg.compiler = binary
		}
	}
}

// WithRunner replaces the subprocess runner. Tests use it to stand in for
// the compiler.
func WithRunner(r CommandRunner) Option {
	return func(g *Generator) {
		g.runner = r
	}
}

// WithWorkspaceRoot sets the parent directory of job workspaces.
// Empty means os.TempDir().
func WithWorkspaceRoot(dir string) Option {
	return func(g *Generator) {
		g.cfg.workspaceRoot = dir
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics records job outcomes on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(g *Generator) {
		g.metrics = r
	}
}

// WithStateObserver registers fn to receive every state transition.
// fn is called synchronously from the job's goroutine.
func WithStateObserver(fn StateObserver) Option {
	return func(g *Generator) {
		if fn != nil {
			g.observers = append(g.observers, fn)
		}
	}
}
