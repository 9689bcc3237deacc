// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-cvgen/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForCompilerNotFound returns hints for a missing typst binary.
// Inside a container the binary must be part of the image, so installing
// it on the host would not help.
func ForCompilerNotFound() string {
	var hints []string

	if IsInContainer() {
		hints = append(hints, "add typst to the container image")
	} else {
		hints = append(hints, "install typst from https://typst.app")
	}

	if os.Getenv("CVGEN_COMPILER_BINARY") == "" {
		hints = append(hints, "or set CVGEN_COMPILER_BINARY to its absolute path")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow compiles.
func ForTimeout() string {
	return format("for long CVs or cold font caches, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-cvgen/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-cvgen") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForTruncatedDiagnostics points to the debug log, which carries the full
// compiler output when the error line shows only its first line.
func ForTruncatedDiagnostics() string {
	return format("run with --log-level debug to see the full compiler output")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForPersonNotFound suggests scaffolding the person.
func ForPersonNotFound(person string) string {
	if person == "" {
		return format("list persons with `cvgen list`")
	}
	return format("create it with `cvgen create " + person + "` or list persons with `cvgen list`")
}

// ForMissingAsset returns a hint naming what to add for a missing file.
func ForMissingAsset(name string) string {
	switch {
	case name == "cv_params.toml":
		return format("every person needs cv_params.toml; `cvgen create` writes a starter one")
	case strings.HasPrefix(name, "experiences_"):
		return format("add " + name + " to the person directory or pick another --lang")
	case strings.HasSuffix(name, ".typ"):
		return format("check --templates-dir points at the directory holding " + name)
	}
	return ""
}

// ForUnsupportedVariant lists the variants that can be rendered.
func ForUnsupportedVariant(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForInvalidLanguage lists the supported language codes.
func ForInvalidLanguage(supported []string) string {
	if len(supported) == 0 {
		return ""
	}
	return format("supported: " + strings.Join(supported, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, " "))
}
