package pyenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmr-tortoise/pybuild/internal/model"
)

// Manager performs virtual environment and pip operations by invoking the
// Python interpreter as a child process.
//
// Stdout and Stderr receive the subprocesses' streamed output; they
// default to the process's own streams in NewManager. Tests substitute
// buffers. The struct is otherwise stateless — all methods receive the
// interpreter and paths as parameters.
type Manager struct {
	// Stdout receives subprocess standard output (pip progress, venv
	// messages). Installer output is part of the UX, so it is streamed
	// rather than captured.
	Stdout io.Writer

	// Stderr receives subprocess standard error.
	Stderr io.Writer
}

// NewManager creates a Manager wired to the process's own stdio.
func NewManager() *Manager {
	return &Manager{Stdout: os.Stdout, Stderr: os.Stderr}
}

// VenvInterpreterPath returns the path of the Python binary inside a
// virtual environment directory. The venv layout differs by platform:
// POSIX systems use bin/python, Windows uses Scripts\python.exe.
func VenvInterpreterPath(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// venvBinDir returns the directory inside the venv that holds executables
// (python, pip, and entry-point scripts). This is the directory the
// activate script prepends to PATH.
func venvBinDir(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts")
	}
	return filepath.Join(venvDir, "bin")
}

// EnsureVenv creates the virtual environment at venvDir using the given
// base interpreter, unless the directory already exists.
//
// Idempotency contract: an existing directory is left untouched and
// created=false is returned — re-running install never recreates the
// environment. The dependency install step still runs on every
// invocation; only creation is skipped.
func (m *Manager) EnsureVenv(ctx context.Context, python model.Interpreter, venvDir string) (created bool, err error) {
	if info, statErr := os.Stat(venvDir); statErr == nil {
		if !info.IsDir() {
			return false, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("virtual environment path %s exists but is not a directory", venvDir))
		}
		return false, nil
	}

	if err := m.runPython(ctx, python.Path, nil, "-m", "venv", venvDir); err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to create virtual environment at %s", venvDir), err)
	}
	return true, nil
}

// ActivationEnv builds the child-process environment equivalent to
// sourcing the venv's activate script:
//
//	VIRTUAL_ENV=<venvDir>
//	PATH=<venvDir>/bin:<PATH>     (Scripts\ on Windows)
//	PYTHONHOME unset
//
// base is the environment to transform (typically os.Environ()); it is
// taken as a parameter so the transformation stays a pure function.
func ActivationEnv(venvDir string, base []string) []string {
	abs, err := filepath.Abs(venvDir)
	if err != nil {
		abs = venvDir
	}
	binDir := venvBinDir(abs)

	env := make([]string, 0, len(base)+2)
	pathSeen := false

	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			env = append(env, kv)
			continue
		}

		switch {
		// Environment variable names are case-insensitive on Windows
		// ("Path" is common), so compare upper-cased.
		case strings.EqualFold(key, "PATH"):
			env = append(env, key+"="+binDir+string(os.PathListSeparator)+value)
			pathSeen = true
		case strings.EqualFold(key, "PYTHONHOME"):
			// PYTHONHOME would redirect the venv interpreter back at the
			// base installation; the activate scripts unset it too.
		case strings.EqualFold(key, "VIRTUAL_ENV"):
			// Replaced below with the current venv.
		default:
			env = append(env, kv)
		}
	}

	if !pathSeen {
		env = append(env, "PATH="+binDir)
	}
	env = append(env, "VIRTUAL_ENV="+abs)

	return env
}

// RemoveVenv deletes the virtual environment directory. Used by the clean
// command's --venv flag. A missing directory is not an error.
func (m *Manager) RemoveVenv(venvDir string) error {
	if _, err := os.Stat(venvDir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(venvDir); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to remove virtual environment at %s", venvDir), err)
	}
	return nil
}
