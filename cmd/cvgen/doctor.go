package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cvgen "github.com/alnah/go-cvgen"
	"github.com/alnah/go-cvgen/internal/fileutil"
)

// versionTimeout bounds `typst --version`.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string       `json:"status"` // "ready", "warnings", "errors"
	Compiler compilerInfo `json:"compiler"`
	Paths    pathsInfo    `json:"paths"`
	Env      envInfo      `json:"environment"`
	System   systemInfo   `json:"system"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

// compilerInfo holds typst detection results.
type compilerInfo struct {
	Found   bool   `json:"found"`
	Binary  string `json:"binary"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// pathsInfo holds data and template directory checks.
type pathsInfo struct {
	Data         string   `json:"data"`
	DataExists   bool     `json:"data_exists"`
	Persons      int      `json:"persons"`
	Templates    string   `json:"templates"`
	BaseTemplate bool     `json:"base_template"`
	Variants     []string `json:"variants"`
	Output       string   `json:"output"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	WorkspaceRoot     string `json:"workspace_root"`
	WorkspaceWritable bool   `json:"workspace_writable"`
}

func newDoctorCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that typst, templates and directories are usable",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := a.runDoctor(cmd.Context())

			if jsonOutput {
				enc := json.NewEncoder(a.env.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(result)
			} else {
				printDoctorResult(a.env.Stdout, result)
			}

			if result.Status == "errors" {
				return errDoctorFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	return cmd
}

// errDoctorFailed is returned when doctor found blocking problems.
var errDoctorFailed = errors.New("doctor found errors")

// runDoctor performs all diagnostic checks.
func (a *app) runDoctor(ctx context.Context) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	a.checkCompiler(ctx, result)
	a.checkPaths(result)
	checkEnvironment(result)
	a.checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkCompiler locates typst and asks for its version.
func (a *app) checkCompiler(ctx context.Context, result *doctorResult) {
	binary := a.cfg.Compiler.Binary
	result.Compiler.Binary = binary

	path, err := a.env.LookPath(binary)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("typst not found (%s). Install typst or set CVGEN_COMPILER_BINARY", binary))
		return
	}
	result.Compiler.Found = true
	result.Compiler.Path = path

	var runner cvgen.CommandRunner = &cvgen.ExecRunner{}
	if a.env.Runner != nil {
		runner = a.env.Runner
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	stdout, _, err := runner.Run(ctx, "", path, "--version")
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get typst version: %v", err))
		return
	}
	result.Compiler.Version = strings.TrimSpace(stdout)
}

// checkPaths verifies the data, template and output roots.
func (a *app) checkPaths(result *doctorResult) {
	p := &result.Paths
	p.Data = a.cfg.Paths.Data
	p.Templates = a.cfg.Paths.Templates
	p.Output = a.cfg.Paths.Output

	p.DataExists = fileutil.DirExists(p.Data)
	if p.DataExists {
		persons, err := a.persons().List()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Could not list persons: %v", err))
		}
		p.Persons = len(persons)
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Data directory %s does not exist; `cvgen create` will create it", p.Data))
	}

	p.BaseTemplate = fileutil.FileExists(filepath.Join(p.Templates, cvgen.BaseTemplate))
	if !p.BaseTemplate {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s not found in %s", cvgen.BaseTemplate, p.Templates))
	}
	for _, v := range cvgen.ListVariants(p.Templates) {
		if v.Available {
			p.Variants = append(p.Variants, v.Name)
		}
	}
	if len(p.Variants) == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("No template variant found in %s", p.Templates))
	}

	if fileutil.FileExists(p.Output) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output path %s is a file, not a directory", p.Output))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("CVGEN_CONTAINER") == "1" {
		return true, "CVGEN_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the workspace root accepts new directories.
func (a *app) checkSystem(result *doctorResult) {
	root := a.cfg.Paths.Workspace
	if root == "" {
		root = os.TempDir()
	}
	result.System.WorkspaceRoot = root

	dir, err := os.MkdirTemp(root, cvgen.WorkspacePrefix+"doctor-")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Workspace root not writable: %s", root))
		return
	}
	_ = os.RemoveAll(dir)
	result.System.WorkspaceWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "cvgen doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Compiler")
	if r.Compiler.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Compiler.Path)
		if r.Compiler.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Compiler.Version)
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] %s not found\n", r.Compiler.Binary)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Paths")
	if r.Paths.DataExists {
		fmt.Fprintf(w, "  [OK] Data: %s (%d persons)\n", r.Paths.Data, r.Paths.Persons)
	} else {
		fmt.Fprintf(w, "  [WARN] Data: %s (missing)\n", r.Paths.Data)
	}
	if r.Paths.BaseTemplate {
		fmt.Fprintf(w, "  [OK] Templates: %s\n", r.Paths.Templates)
	} else {
		fmt.Fprintf(w, "  [ERROR] Templates: %s (no %s)\n", r.Paths.Templates, cvgen.BaseTemplate)
	}
	if len(r.Paths.Variants) > 0 {
		fmt.Fprintf(w, "  [OK] Variants: %s\n", strings.Join(r.Paths.Variants, ", "))
	}
	fmt.Fprintf(w, "  [OK] Output: %s\n", r.Paths.Output)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.WorkspaceWritable {
		fmt.Fprintf(w, "  [OK] Workspace root: %s\n", r.System.WorkspaceRoot)
	} else {
		fmt.Fprintf(w, "  [ERROR] Workspace root: %s (not writable)\n", r.System.WorkspaceRoot)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to generate")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
