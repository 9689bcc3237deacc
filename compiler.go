package cvgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-cvgen/internal/process"
)

// CommandRunner abstracts command execution to enable testing without real subprocesses.
// dir is the child's working directory. Errors that carry an exit status
// implement ExitCode() int, as *exec.ExitError does.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)
}

// defaultWaitDelay bounds how long Run waits for output pipes after the
// child is killed.
const defaultWaitDelay = 2 * time.Second

// ExecRunner implements CommandRunner using os/exec.
// The child runs in its own process group; on cancellation the whole group
// is killed so compiler helpers do not outlive the job.
type ExecRunner struct {
	Env       []string // appended to the current environment
	WaitDelay time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	process.Isolate(cmd)
	cmd.Cancel = func() error {
		return process.KillProcessGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// CompileResult is the compiler's captured output.
type CompileResult struct {
	Output   string
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Compiler invokes typst against a staged workspace.
type Compiler struct {
	Binary  string
	Timeout time.Duration
	Runner  CommandRunner
	log     *zap.Logger
}

// NewCompiler creates a Compiler. Zero values fall back to "typst", 60s and
// an ExecRunner.
func NewCompiler(binary string, timeout time.Duration, runner CommandRunner, log *zap.Logger) *Compiler {
	if binary == "" {
		binary = defaultCompiler
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{Binary: binary, Timeout: timeout, Runner: runner, log: log}
}

// Args builds the command line. Every path is absolute, and the optional
// inputs are only passed when the file was staged.
func (c *Compiler) Args(ws *Workspace, output string) []string {
	args := []string{
		"compile",
		"--root", ws.Dir,
		"--input", "lang=" + ws.Assets.Request.Lang,
	}
	if ws.HasPicture {
		args = append(args, "--input", "picture="+ProfileImageFile)
	}
	if ws.HasLogo {
		args = append(args, "--input", "company_logo="+CompanyLogoFile)
	}
	return append(args, ws.PrimaryPath(), output)
}

// Compile renders ws into output. A non-zero exit yields *CompileError,
// exceeding Timeout yields ErrCompileTimeout.
func (c *Compiler) Compile(ctx context.Context, ws *Workspace, output string) (*CompileResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args := c.Args(ws, output)
	c.log.Debug("running compiler", zap.String("binary", c.Binary), zap.Strings("args", args))

	start := time.Now()
	stdout, stderr, err := c.Runner.Run(ctx, ws.Dir, c.Binary, args...)
	res := &CompileResult{Output: output, Stdout: stdout, Stderr: stderr, Duration: time.Since(start)}

	if err == nil {
		return res, nil
	}
	return res, c.classify(ctx, err, stdout, stderr)
}

func (c *Compiler) classify(ctx context.Context, err error, stdout, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrCompileTimeout, c.Timeout)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("compiler interrupted: %w", ctx.Err())
	}

	var exit interface{ ExitCode() int }
	if errors.As(err, &exit) {
		diag := strings.TrimSpace(stderr)
		if diag == "" {
			diag = strings.TrimSpace(stdout)
		}
		c.log.Debug("compiler diagnostics", zap.Int("exit", exit.ExitCode()), zap.String("diagnostics", diag))
		return &CompileError{Diagnostics: diag, ExitCode: exit.ExitCode()}
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrCompilerNotFound, c.Binary)
	}
	return fmt.Errorf("running %s: %w", c.Binary, err)
}
