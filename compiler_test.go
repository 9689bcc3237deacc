package cvgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// Notes:
// - ExecRunner is exercised against the test binary itself through
//   TestHelperProcess, so no real typst install is needed.
// - The timeout test only asserts the call returns promptly; whether the
//   killed group had grandchildren is not observable portably.

func stagedWorkspace(t *testing.T, variant string, extra func(Dirs)) *Workspace {
	t.Helper()
	a, _ := resolveFixture(t, variant, extra)
	ws, err := NewWorkspaceManager(t.TempDir(), nil, nil).Acquire(a)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	t.Cleanup(func() { _ = ws.Release() })
	return ws
}

// ---------------------------------------------------------------------------
// TestCompiler_Args - Command line
// ---------------------------------------------------------------------------

func TestCompiler_Args(t *testing.T) {
	t.Parallel()

	t.Run("minimal", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		c := NewCompiler("", 0, &fakeTypst{}, nil)
		out := ws.Path("x.pdf")

		got := c.Args(ws, out)
		want := []string{"compile", "--root", ws.Dir, "--input", "lang=fr", ws.PrimaryPath(), out}
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Errorf("Args() = %v\nwant     %v", got, want)
		}
	})

	t.Run("optional inputs", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "keyteo", func(d Dirs) {
			writeFile(t, filepath.Join(d.Data, testPerson, ProfileImageFile), string(pngBytes))
		})
		c := NewCompiler("", 0, &fakeTypst{}, nil)

		got := strings.Join(c.Args(ws, ws.Path("x.pdf")), " ")
		for _, want := range []string{"--input picture=profile.png", "--input company_logo=company_logo.png"} {
			if !strings.Contains(got, want) {
				t.Errorf("Args() = %q, missing %q", got, want)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestCompiler_Compile - Outcome classification
// ---------------------------------------------------------------------------

func TestCompiler_Compile(t *testing.T) {
	t.Parallel()

	t.Run("success runs in workspace", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		fake := &fakeTypst{}
		out := ws.Path("out.pdf")

		res, err := NewCompiler("typst", time.Second, fake, nil).Compile(context.Background(), ws, out)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if res.Output != out {
			t.Errorf("Output = %q, want %q", res.Output, out)
		}
		calls := fake.Calls()
		if len(calls) != 1 || calls[0].Dir != ws.Dir || calls[0].Name != "typst" {
			t.Errorf("calls = %+v", calls)
		}
	})

	t.Run("non-zero exit keeps diagnostics", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		fake := &fakeTypst{ExitCode: 1, Stderr: "error: unknown variable: skills\n  ┌─ cv.typ:12:3\n"}

		_, err := NewCompiler("typst", time.Second, fake, nil).Compile(context.Background(), ws, ws.Path("out.pdf"))
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("Compile() error = %v, want *CompileError", err)
		}
		if ce.ExitCode != 1 {
			t.Errorf("ExitCode = %d, want 1", ce.ExitCode)
		}
		if !strings.Contains(ce.Diagnostics, "unknown variable: skills") || !strings.Contains(ce.Diagnostics, "cv.typ:12:3") {
			t.Errorf("Diagnostics = %q", ce.Diagnostics)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		c := NewCompiler("typst", 20*time.Millisecond, &fakeTypst{Block: true}, nil)

		_, err := c.Compile(context.Background(), ws, ws.Path("out.pdf"))
		if !errors.Is(err, ErrCompileTimeout) {
			t.Errorf("Compile() error = %v, want ErrCompileTimeout", err)
		}
	})

	t.Run("caller cancellation", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewCompiler("typst", time.Minute, &fakeTypst{Block: true}, nil).Compile(ctx, ws, ws.Path("out.pdf"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Compile() error = %v, want context.Canceled", err)
		}
	})

	t.Run("binary not found", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		_, err := NewCompiler("typst", time.Second, &fakeTypst{NotFound: true}, nil).Compile(context.Background(), ws, ws.Path("out.pdf"))
		if !errors.Is(err, ErrCompilerNotFound) {
			t.Errorf("Compile() error = %v, want ErrCompilerNotFound", err)
		}
	})

	t.Run("real missing binary", func(t *testing.T) {
		t.Parallel()

		ws := stagedWorkspace(t, "default", nil)
		c := NewCompiler("cvgen-no-such-compiler-binary", time.Second, &ExecRunner{}, nil)
		_, err := c.Compile(context.Background(), ws, ws.Path("out.pdf"))
		if !errors.Is(err, ErrCompilerNotFound) {
			t.Errorf("Compile() error = %v, want ErrCompilerNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestExecRunner - Real subprocesses
// ---------------------------------------------------------------------------

func helperRunner() *ExecRunner {
	return &ExecRunner{Env: []string{"CVGEN_WANT_HELPER_PROCESS=1"}}
}

func helperArgs(mode string) []string {
	return []string{"-test.run=TestHelperProcess", "--", mode}
}

func TestExecRunner(t *testing.T) {
	t.Parallel()

	t.Run("captures stdout and working directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		stdout, _, err := helperRunner().Run(context.Background(), dir, os.Args[0], helperArgs("pwd")...)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		want, _ := filepath.EvalSymlinks(dir)
		got, _ := filepath.EvalSymlinks(strings.TrimSpace(stdout))
		if got != want {
			t.Errorf("child cwd = %q, want %q", got, want)
		}
	})

	t.Run("non-zero exit exposes code and stderr", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := helperRunner().Run(context.Background(), t.TempDir(), os.Args[0], helperArgs("fail")...)
		var exit interface{ ExitCode() int }
		if !errors.As(err, &exit) {
			t.Fatalf("Run() error = %v, want an exit status", err)
		}
		if exit.ExitCode() != 3 {
			t.Errorf("ExitCode() = %d, want 3", exit.ExitCode())
		}
		if !strings.Contains(stderr, "unknown font family") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("compiler timeout kills the child", func(t *testing.T) {
		t.Parallel()

		if runtime.GOOS == "windows" {
			t.Skip("process group kill uses taskkill on windows")
		}

		ws := stagedWorkspace(t, "default", nil)
		// The helper ignores typst arguments, so the runner swaps in its own.
		sleeper := runnerFunc(func(ctx context.Context, dir, name string, _ ...string) (string, string, error) {
			return helperRunner().Run(ctx, dir, name, helperArgs("sleep")...)
		})
		c := NewCompiler(os.Args[0], 200*time.Millisecond, sleeper, nil)

		start := time.Now()
		_, err := c.Compile(context.Background(), ws, ws.Path("out.pdf"))
		if !errors.Is(err, ErrCompileTimeout) {
			t.Errorf("Compile() error = %v, want ErrCompileTimeout", err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Second {
			t.Errorf("Compile() took %v after timeout", elapsed)
		}
	})
}

type runnerFunc func(ctx context.Context, dir, name string, args ...string) (string, string, error)

func (f runnerFunc) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	return f(ctx, dir, name, args...)
}

// TestHelperProcess is not a real test. It is the child process for
// TestExecRunner.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("CVGEN_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "pwd":
		wd, _ := os.Getwd()
		fmt.Println(wd)
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "error: unknown font family: Inter")
		os.Exit(3)
	case "sleep":
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(2)
}
