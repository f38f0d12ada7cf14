package pyenv

import (
	"context"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/pybuild/internal/model"
)

// packagingTools are the packaging-layer packages upgraded before
// dependency installation. Stale pip/setuptools versions are the most
// common cause of install failures for pinned scientific wheels, so the
// install step refreshes them first.
var packagingTools = []string{"pip", "setuptools", "wheel"}

// UpgradeTooling upgrades pip, setuptools, and wheel inside the
// environment the interpreter belongs to. env should be the activation
// environment for the venv interpreter (nil inherits the process env).
func (m *Manager) UpgradeTooling(ctx context.Context, python model.Interpreter, env []string) error {
	args := append([]string{"-m", "pip", "install", "--upgrade"}, packagingTools...)
	if err := m.runPython(ctx, python.Path, env, args...); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"failed to upgrade packaging tools (pip, setuptools, wheel)", err)
	}
	return nil
}

// InstallRequirements installs the manifest's dependencies into the
// interpreter's environment via `pip install -r`.
//
// This runs on EVERY install invocation, including re-runs against an
// existing environment: pip itself decides what is already satisfied.
// Skipping it would let the environment drift from the manifest.
func (m *Manager) InstallRequirements(ctx context.Context, python model.Interpreter, manifestPath string, env []string) error {
	if err := m.runPython(ctx, python.Path, env, "-m", "pip", "install", "-r", manifestPath); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"dependency installation failed", err)
	}
	return nil
}

// runPython executes the interpreter with the given arguments, streaming
// output to the Manager's writers. env == nil inherits the parent
// environment (os/exec semantics).
//
// The raw error is returned for callers to wrap with operation-specific
// messages; the full command line is included so failures are diagnosable
// from the error alone.
func (m *Manager) runPython(ctx context.Context, interpreterPath string, env []string, args ...string) error {
	// #nosec G204 — the interpreter path comes from discovery/config and
	// the arguments are constructed internally.
	cmd := exec.CommandContext(ctx, interpreterPath, args...)
	cmd.Stdout = m.Stdout
	cmd.Stderr = m.Stderr
	cmd.Env = env

	if err := cmd.Run(); err != nil {
		return &commandError{
			command: interpreterPath + " " + strings.Join(args, " "),
			err:     err,
		}
	}
	return nil
}

// commandError annotates a subprocess failure with the command line that
// produced it.
type commandError struct {
	command string
	err     error
}

func (e *commandError) Error() string {
	return "`" + e.command + "` failed: " + e.err.Error()
}

func (e *commandError) Unwrap() error {
	return e.err
}
