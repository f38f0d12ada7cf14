package pyenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmr-tortoise/pybuild/internal/model"
)

// Environment variables honored as interpreter overrides, in priority
// order. PYBUILD_PYTHON is the tool-specific name; PYTHON is the
// conventional name the original install/build scripts used.
const (
	EnvPython       = "PYBUILD_PYTHON"
	EnvPythonLegacy = "PYTHON"
)

// pathCandidates returns the interpreter names probed on the system PATH,
// in priority order. python3 is preferred because on several platforms
// plain `python` still resolves to Python 2 or to a Windows Store shim.
func pathCandidates() []string {
	names := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		// The py launcher is the canonical interpreter front-end on
		// Windows installs where python.exe is not on PATH.
		names = append(names, "py")
	}
	return names
}

// FindInterpreter locates a Python interpreter for the project.
//
// Candidates are tried in priority order:
//  1. the explicit override (--python flag or the config's "python" field)
//  2. the PYBUILD_PYTHON environment variable
//  3. the PYTHON environment variable
//  4. the interpreter inside venvDir, when the environment exists
//  5. python3 / python (and py on Windows) on the system PATH
//
// venvDir may be empty to skip the venv candidate — the install command
// does this for its initial discovery, because the venv may not exist yet
// and, even when it does, the environment must be CREATED by a base
// interpreter, not by itself.
//
// When no candidate resolves, the returned error is a CLIError with exit
// code 1, per the tool's precondition contract.
func FindInterpreter(override, venvDir string) (model.Interpreter, error) {
	if override != "" {
		path, err := resolveBinary(override)
		if err != nil {
			return model.Interpreter{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("Python interpreter override %q not usable", override), err)
		}
		return model.Interpreter{Path: path, Source: model.SourceOverride}, nil
	}

	for _, envVar := range []string{EnvPython, EnvPythonLegacy} {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		path, err := resolveBinary(value)
		if err != nil {
			// An explicitly set override that doesn't resolve is an error,
			// not something to silently fall past: the user asked for a
			// specific interpreter and would not expect a different one.
			return model.Interpreter{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("%s points to %q, which is not usable", envVar, value), err)
		}
		return model.Interpreter{Path: path, Source: model.SourceEnv}, nil
	}

	if venvDir != "" {
		venvPython := VenvInterpreterPath(venvDir)
		if _, err := os.Stat(venvPython); err == nil {
			return model.Interpreter{Path: venvPython, Source: model.SourceVenv}, nil
		}
	}

	for _, name := range pathCandidates() {
		if path, err := exec.LookPath(name); err == nil {
			return model.Interpreter{Path: path, Source: model.SourcePath}, nil
		}
	}

	return model.Interpreter{}, model.NewCLIError(model.ExitGeneralError,
		fmt.Sprintf("no Python interpreter found (set %s, or install one of: %s)",
			EnvPython, strings.Join(pathCandidates(), ", ")))
}

// resolveBinary turns an interpreter reference into an absolute path.
// References containing a path separator are treated as file paths and
// must exist; bare names are resolved through the system PATH.
func resolveBinary(ref string) (string, error) {
	if strings.ContainsRune(ref, os.PathSeparator) || strings.ContainsRune(ref, '/') {
		abs, err := filepath.Abs(ref)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", err
		}
		return abs, nil
	}
	return exec.LookPath(ref)
}

// Version interrogates an interpreter for its version string, e.g.
// "Python 3.12.1". Output is read from both stdout and stderr because
// historical interpreters printed --version to stderr.
//
// A failure here is not fatal to discovery — callers treat the version as
// optional display metadata — so the error is returned unwrapped for the
// caller to log or ignore.
func Version(ctx context.Context, interpreterPath string) (string, error) {
	cmd := exec.CommandContext(ctx, interpreterPath, "--version")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s --version: %w", interpreterPath, err)
	}
	return strings.TrimSpace(out.String()), nil
}
