// Package builder dispatches the packaging build to the project's
// external build entry point (scripts/build.py by default).
//
// The package does exactly two things:
//   - assemble the argument list, always injecting the --onefile
//     packaging flag exactly once ahead of the caller's pass-through
//     arguments
//   - invoke the entry point under the chosen interpreter with inherited
//     stdio, forwarding the child's exit code verbatim
//
// There is deliberately no retry or recovery: a failure in the external
// routine is fatal and surfaced as-is. The build script owns everything
// about HOW the executable is produced; this package only carries the
// invocation.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
)

// OneFileFlag is the packaging flag injected into every build invocation.
// The tool exists to produce single-file executables; callers never need
// to pass it themselves (doing so anyway is harmless — it is deduped).
const OneFileFlag = "--onefile"

// Dispatcher invokes external Python entry points with inherited stdio.
type Dispatcher struct {
	// Stdout and Stderr receive the child process's output. They default
	// to the process's own streams in NewDispatcher; tests substitute
	// buffers.
	Stdout io.Writer
	Stderr io.Writer

	// Stdin is connected to the child so interactive prompts in the
	// build script (e.g. an overwrite confirmation) still work.
	Stdin io.Reader
}

// NewDispatcher creates a Dispatcher wired to the process's own stdio.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{Stdout: os.Stdout, Stderr: os.Stderr, Stdin: os.Stdin}
}

// Args assembles the build script's argument list:
//
//	--onefile [--name=<name>] [--console] [--clean] <extraBuildArgs...> <passThrough...>
//
// Config-driven flags come before the caller's pass-through arguments so
// the caller can override them (later flags win in argparse). The
// packaging flag is injected exactly once: a pass-through --onefile is
// dropped rather than duplicated.
func Args(cfg config.Config, passThrough []string) []string {
	args := []string{OneFileFlag}

	if cfg.Name != "" {
		args = append(args, "--name="+cfg.Name)
	}
	if cfg.Console {
		args = append(args, "--console")
	}
	if cfg.Clean {
		args = append(args, "--clean")
	}
	args = append(args, cfg.ExtraBuildArgs...)

	for _, a := range passThrough {
		if a == OneFileFlag {
			continue
		}
		args = append(args, a)
	}

	return args
}

// Dispatch runs `<interpreter> <script> <args...>` with the given
// environment and returns the invocation's result.
//
// Exit-code contract: when the child exits non-zero, the returned error
// is a CLIError carrying the child's exit code verbatim, so the CLI's
// exit status mirrors the external routine's. Failures to start the
// process at all (missing script, bad interpreter) are preconditions and
// map to exit code 1.
func (d *Dispatcher) Dispatch(ctx context.Context, interpreter model.Interpreter, script string, args []string, env []string) (*model.BuildResult, error) {
	if _, err := os.Stat(script); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("build entry point not found: %s", script), err)
	}

	fullArgs := append([]string{script}, args...)

	// #nosec G204 — interpreter and script paths come from discovery and
	// config; pass-through args are forwarded to the build script by design.
	cmd := exec.CommandContext(ctx, interpreter.Path, fullArgs...)
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr
	cmd.Stdin = d.Stdin
	cmd.Env = env

	start := time.Now()
	err := cmd.Run()
	result := &model.BuildResult{
		Command:  interpreter.Path,
		Args:     fullArgs,
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			// The external routine ran and failed: forward its code.
			result.ExitCode = exitErr.ExitCode()
			return result, model.ForwardedExitError(result.ExitCode,
				fmt.Sprintf("build failed (exit code %d)", result.ExitCode), err)
		}
		// The process never produced an exit code (failed to start, or
		// was killed by a signal): that's a pybuild-side failure.
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to run %s", script), err)
	}

	return result, nil
}

// Launch runs the application entry point (run.py) the same way Dispatch
// runs the build script. Kept separate so call sites read as what they
// are, and because launching has no argument assembly step.
func (d *Dispatcher) Launch(ctx context.Context, interpreter model.Interpreter, entryPoint string, args []string, env []string) (*model.BuildResult, error) {
	if _, err := os.Stat(entryPoint); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("application entry point not found: %s", entryPoint), err)
	}
	return d.Dispatch(ctx, interpreter, entryPoint, args, env)
}
