package main

import (
	"errors"
	"os"

	cvgen "github.com/alnah/go-cvgen"
	"github.com/alnah/go-cvgen/internal/config"
	"github.com/alnah/go-cvgen/internal/hints"
)

// ErrUsage marks command-line misuse: unknown commands, bad flags, wrong
// argument counts.
var ErrUsage = errors.New("usage error")

// Exit codes for the cvgen CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Successful run
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // Missing person data, templates, or file system errors
	ExitCompiler = 4 // typst missing, failing, or timing out
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Compiler errors (exit 4)
	if errors.Is(err, cvgen.ErrCompilerNotFound) ||
		errors.Is(err, cvgen.ErrCompileFailed) ||
		errors.Is(err, cvgen.ErrCompileTimeout) ||
		errors.Is(err, cvgen.ErrOutputMissing) {
		return ExitCompiler
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, cvgen.ErrInvalidLanguage) ||
		errors.Is(err, cvgen.ErrUnsupportedVariant) ||
		errors.Is(err, cvgen.ErrInvalidPerson) ||
		errors.Is(err, cvgen.ErrPersonExists) ||
		errors.Is(err, cvgen.ErrInvalidImage) ||
		errors.Is(err, cvgen.ErrImageTooLarge) ||
		errors.Is(err, cvgen.ErrInvalidPath) ||
		errors.Is(err, cvgen.ErrFileTooLarge) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, cvgen.ErrPersonNotFound) ||
		errors.Is(err, cvgen.ErrFileNotFound) ||
		errors.Is(err, cvgen.ErrMissingAsset) ||
		errors.Is(err, cvgen.ErrStagingFailed) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var (
		missing *cvgen.MissingAssetError
		compile *cvgen.CompileError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cvgen.ErrCompilerNotFound):
		return hints.ForCompilerNotFound()
	case errors.Is(err, cvgen.ErrCompileTimeout):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, cvgen.ErrPersonNotFound):
		return hints.ForPersonNotFound("")
	case errors.As(err, &missing):
		return hints.ForMissingAsset(missing.Name)
	case errors.As(err, &compile):
		if _, more := compile.Summary(); more > 0 {
			return hints.ForTruncatedDiagnostics()
		}
	case errors.Is(err, cvgen.ErrUnsupportedVariant):
		return hints.ForUnsupportedVariant(cvgen.VariantNames())
	case errors.Is(err, cvgen.ErrInvalidLanguage):
		return hints.ForInvalidLanguage(cvgen.SupportedLanguages())
	case errors.Is(err, os.ErrPermission):
		return hints.ForOutputDirectory()
	}
	return ""
}
