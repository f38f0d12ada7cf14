// Package cli — build.go implements the "pybuild build" command.
//
// The build command is the dispatch routine: it locates an interpreter
// (preferring the one inside the virtual environment), constructs the
// activation-equivalent child environment, and invokes the external build
// entry point with the fixed --onefile packaging flag plus all caller
// arguments. The external routine's exit code becomes pybuild's own.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pybuild/internal/builder"
	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
	"github.com/mmr-tortoise/pybuild/internal/pyenv"
)

// buildFlags holds the flag values for the build command.
type buildFlags struct {
	python  string // --python: interpreter override
	name    string // --name: packaged executable name
	console bool   // --console: keep a console window
	clean   bool   // --clean: wipe build caches first
}

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build [-- build-script-args...]",
		Short: "Package the application via the project's build script",
		Long: `Invoke the project's build entry point (scripts/build.py by default) to
produce a packaged executable. The --onefile packaging flag is always
injected; everything after "--" is forwarded to the build script verbatim.

The build script's exit code is forwarded as pybuild's own exit code, so
wrappers and CI can treat "pybuild build" exactly like the script itself.

Examples:
  pybuild build
  pybuild build --name AutoClickPro --clean
  pybuild build -- --log-level=WARN`,

		// Arbitrary args are allowed: they are pass-through, not ours.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter (default: venv interpreter, then auto-detect)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Packaged executable name (forwarded as --name)")
	cmd.Flags().BoolVar(&flags.console, "console", false, "Keep a console window in the packaged executable")
	cmd.Flags().BoolVar(&flags.clean, "clean", false, "Wipe build caches before building")

	return cmd
}

// runBuild is the orchestration function for the build command.
func runBuild(ctx context.Context, flags *buildFlags, passThrough []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	// Flag overrides beat config file values.
	if flags.name != "" {
		if err := model.ValidateExecutableName(flags.name); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --name", err)
		}
		cfg.Name = flags.name
	}
	if flags.console {
		cfg.Console = true
	}
	if flags.clean {
		cfg.Clean = true
	}

	venvDir := config.ResolvePath(root, cfg.Venv)
	script := config.ResolvePath(root, cfg.BuildScript)

	// Interpreter discovery prefers the venv interpreter when the
	// environment exists; otherwise the system interpreter is used and
	// the build script must cope with whatever is installed globally.
	interp, err := pyenv.FindInterpreter(interpreterOverride(flags.python, cfg), venvDir)
	if err != nil {
		return err
	}
	logger.Debug("interpreter selected", "path", interp.Path, "source", interp.Source)

	// Activate the venv for the child process when one exists, so the
	// build script resolves its tools (PyInstaller) from the environment.
	var env []string
	if _, statErr := os.Stat(venvDir); statErr == nil {
		env = pyenv.ActivationEnv(venvDir, os.Environ())
		logger.Debug("virtual environment activated for child process", "dir", venvDir)
	} else {
		logger.Warn("virtual environment not found; building with the system interpreter", "dir", venvDir)
	}

	args := builder.Args(cfg, passThrough)
	logger.Debug("dispatching build", "script", script, "args", args)

	d := builder.NewDispatcher()
	result, err := d.Dispatch(ctx, interp, script, args, env)
	if err != nil {
		// Print the failure message here (the spec requires a
		// human-readable failure line); Execute still prints the error
		// and exits with the forwarded code.
		if result != nil && !IsJSONOutput() {
			fmt.Fprintf(os.Stderr, "Build failed after %s (exit code %d)\n",
				result.Duration.Round(timeRounding), result.ExitCode)
		}
		return err
	}

	printBuildResult(result)
	return nil
}

// printBuildResult outputs the build summary in text or JSON format.
func printBuildResult(result *model.BuildResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Build succeeded in %s\n", result.Duration.Round(timeRounding))
}
