package cvgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	// Request validation errors. Returned before any I/O.
	ErrInvalidLanguage    = errors.New("invalid language")
	ErrUnsupportedVariant = errors.New("unsupported template variant")
	ErrInvalidPerson      = errors.New("invalid person identifier")

	// Resolution errors.
	ErrPersonNotFound = errors.New("person not found")
	ErrMissingAsset   = errors.New("missing asset")

	// Pipeline errors.
	ErrStagingFailed    = errors.New("workspace staging failed")
	ErrCompileFailed    = errors.New("compilation failed")
	ErrCompileTimeout   = errors.New("compilation timed out")
	ErrCompilerNotFound = errors.New("compiler not found")
	ErrOutputMissing    = errors.New("compiler reported success but produced no output")

	// Person store errors.
	ErrPersonExists  = errors.New("person already exists")
	ErrInvalidImage  = errors.New("invalid image: expected PNG or JPEG")
	ErrImageTooLarge = errors.New("image too large")

	// Person file errors.
	ErrInvalidPath  = errors.New("invalid person file path")
	ErrFileNotFound = errors.New("file not found")
	ErrFileTooLarge = errors.New("file too large")
)

// MissingAssetError names the file a job needs but could not find.
type MissingAssetError struct {
	Name string // e.g. "experiences_de.typ"
	Path string // absolute expected location
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("missing asset %s: %s", e.Name, e.Path)
}

func (e *MissingAssetError) Unwrap() error { return ErrMissingAsset }

// StagingError reports a mandatory asset that could not be copied into the
// workspace.
type StagingError struct {
	Asset string
	Err   error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Asset, e.Err)
}

func (e *StagingError) Unwrap() []error { return []error{ErrStagingFailed, e.Err} }

// CompileError carries the compiler's diagnostics verbatim. Error() keeps
// to one line: the first diagnostic line and a count of the rest.
type CompileError struct {
	Diagnostics string
	ExitCode    int
}

func (e *CompileError) Error() string {
	first, more := e.Summary()
	switch {
	case first == "":
		return fmt.Sprintf("compilation failed (exit %d)", e.ExitCode)
	case more == 0:
		return fmt.Sprintf("compilation failed (exit %d): %s", e.ExitCode, first)
	default:
		return fmt.Sprintf("compilation failed (exit %d): %s (+%d more lines)", e.ExitCode, first, more)
	}
}

// Summary returns the first non-blank diagnostic line and how many
// non-blank lines follow it.
func (e *CompileError) Summary() (first string, more int) {
	for line := range strings.Lines(e.Diagnostics) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first == "" {
			first = line
			continue
		}
		more++
	}
	return first, more
}

func (e *CompileError) Unwrap() error { return ErrCompileFailed }

// Stable error codes used in HTTP bodies and metric labels.
const (
	CodeInvalidLanguage    = "INVALID_LANGUAGE"
	CodeUnsupportedVariant = "UNSUPPORTED_VARIANT"
	CodeInvalidPerson      = "INVALID_PERSON"
	CodePersonNotFound     = "PERSON_NOT_FOUND"
	CodePersonExists       = "PERSON_EXISTS"
	CodeMissingAsset       = "MISSING_ASSET"
	CodeStagingFailed      = "STAGING_FAILED"
	CodeCompileFailed      = "COMPILE_FAILED"
	CodeCompileTimeout     = "COMPILE_TIMEOUT"
	CodeCompilerNotFound   = "COMPILER_NOT_FOUND"
	CodeOutputMissing      = "OUTPUT_MISSING"
	CodeInvalidImage       = "INVALID_IMAGE"
	CodeImageTooLarge      = "IMAGE_TOO_LARGE"
	CodeInvalidPath        = "INVALID_PATH"
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeCancelled          = "CANCELLED"
	CodeInternal           = "INTERNAL"
)

// codeTable is checked in order; more specific sentinels come first.
var codeTable = []struct {
	err  error
	code string
}{
	{ErrInvalidLanguage, CodeInvalidLanguage},
	{ErrUnsupportedVariant, CodeUnsupportedVariant},
	{ErrInvalidPerson, CodeInvalidPerson},
	{ErrPersonNotFound, CodePersonNotFound},
	{ErrPersonExists, CodePersonExists},
	{ErrMissingAsset, CodeMissingAsset},
	{ErrStagingFailed, CodeStagingFailed},
	{ErrCompileTimeout, CodeCompileTimeout},
	{ErrCompilerNotFound, CodeCompilerNotFound},
	{ErrCompileFailed, CodeCompileFailed},
	{ErrOutputMissing, CodeOutputMissing},
	{ErrImageTooLarge, CodeImageTooLarge},
	{ErrInvalidImage, CodeInvalidImage},
	{ErrInvalidPath, CodeInvalidPath},
	{ErrFileNotFound, CodeFileNotFound},
	{ErrFileTooLarge, CodeFileTooLarge},
	{context.Canceled, CodeCancelled},
}

// ErrorCode maps err to its stable code. Nil maps to "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codeTable {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
