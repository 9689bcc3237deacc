package main

import (
	"io"
	"os"
	"os/exec"

	cvgen "github.com/alnah/go-cvgen"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer

	// Runner replaces the compiler subprocess runner. Nil runs the real binary.
	Runner cvgen.CommandRunner

	// LookPath resolves the compiler binary for doctor.
	LookPath func(string) (string, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		LookPath: exec.LookPath,
	}
}
