package cvgen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// Notes:
// - fakeTypst stands in for the compiler. It writes a "PDF" whose bytes are
//   derived only from the staged files, so equal inputs give equal output.
// - Real subprocess behavior (exit status, timeouts, working directory) is
//   covered in compiler_test.go through the helper-process pattern.

const testPerson = "mohamed-bennekrouf"

// pngBytes is a minimal valid PNG header followed by filler.
var pngBytes = append(append([]byte{}, pngSignature...), []byte("IHDR-filler")...)

// writeFile creates path (and parents) with content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("setup mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup write: %v", err)
	}
}

// addPerson creates a person with params and en/fr content.
func addPerson(t *testing.T, dirs Dirs, person string) {
	t.Helper()
	dir := filepath.Join(dirs.Data, person)
	writeFile(t, filepath.Join(dir, ParamsFile), fmt.Sprintf("name = %q\n", person))
	writeFile(t, filepath.Join(dir, ContentFile("en")), "= Experience ("+person+", en)\n")
	writeFile(t, filepath.Join(dir, ContentFile("fr")), "= Expérience ("+person+", fr)\n")
}

// newFixture lays out a data root with one complete person and a template
// root holding every variant file.
func newFixture(t *testing.T) Dirs {
	t.Helper()
	root := t.TempDir()
	dirs := Dirs{
		Data:      filepath.Join(root, "data"),
		Output:    filepath.Join(root, "output"),
		Templates: filepath.Join(root, "templates"),
	}
	addPerson(t, dirs, testPerson)
	for _, v := range variants {
		writeFile(t, filepath.Join(dirs.Templates, v.Primary), "#import \"template.typ\": *\n// "+v.Name+"\n")
	}
	writeFile(t, filepath.Join(dirs.Templates, BaseTemplate), "#let cv() = none\n")
	writeFile(t, filepath.Join(dirs.Templates, "keyteo_logo.png"), string(pngBytes))
	return dirs
}

func mustRequest(t *testing.T, person, lang, variant string, dirs Dirs) Request {
	t.Helper()
	req, err := NewRequest(person, lang, variant, dirs)
	if err != nil {
		t.Fatalf("NewRequest(%q, %q, %q) error = %v", person, lang, variant, err)
	}
	return req
}

// dirEntries lists names in dir, failing the test on error.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// fakeExitError carries an exit status like *exec.ExitError.
type fakeExitError struct{ code int }

func (e *fakeExitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *fakeExitError) ExitCode() int { return e.code }

type fakeCall struct {
	Dir  string
	Name string
	Args []string
}

// fakeTypst emulates "typst compile ... <primary> <output>".
type fakeTypst struct {
	mu    sync.Mutex
	calls []fakeCall

	ExitCode   int    // non-zero: fail with Stderr
	Stderr     string // diagnostics on failure
	SkipOutput bool   // exit 0 without writing
	Block      bool   // wait for ctx
	NotFound   bool   // behave like a missing binary

	// OnRun runs before the fake compiles, e.g. to inspect the workspace.
	OnRun func(dir string)
}

func (f *fakeTypst) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Dir: dir, Name: name, Args: append([]string(nil), args...)})
	onRun := f.OnRun
	f.mu.Unlock()

	if onRun != nil {
		onRun(dir)
	}

	switch {
	case f.NotFound:
		return "", "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	case f.Block:
		<-ctx.Done()
		return "", "", ctx.Err()
	case f.ExitCode != 0:
		return "", f.Stderr, &fakeExitError{code: f.ExitCode}
	case f.SkipOutput:
		return "", "", nil
	}

	params, err := os.ReadFile(filepath.Join(dir, ParamsFile))
	if err != nil {
		return "", err.Error(), &fakeExitError{code: 1}
	}
	content, err := os.ReadFile(filepath.Join(dir, StagedContentFile))
	if err != nil {
		return "", err.Error(), &fakeExitError{code: 1}
	}
	out := args[len(args)-1]
	pdf := "%PDF-fake\n" + string(params) + string(content)
	if err := os.WriteFile(out, []byte(pdf), 0o644); err != nil {
		return "", err.Error(), &fakeExitError{code: 1}
	}
	return "", "", nil
}

func (f *fakeTypst) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

// stateRecorder collects transitions per job.
type stateRecorder struct {
	mu     sync.Mutex
	states map[string][]JobState
}

func newStateRecorder() *stateRecorder {
	return &stateRecorder{states: make(map[string][]JobState)}
}

func (r *stateRecorder) observe(tr Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[tr.JobID] = append(r.states[tr.JobID], tr.To)
}

// only returns the sequence of the single recorded job.
func (r *stateRecorder) only(t *testing.T) []JobState {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) != 1 {
		t.Fatalf("recorded %d jobs, want 1", len(r.states))
	}
	for _, s := range r.states {
		return s
	}
	return nil
}
