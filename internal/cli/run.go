// Package cli — run.go implements the "pybuild run" command.
//
// The run command launches the application's entry point (run.py by
// default) under the virtual environment's interpreter. It is the
// developer convenience companion to install/build: bootstrap once, then
// iterate with "pybuild run".
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pybuild/internal/builder"
	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/pyenv"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	python string // --python: interpreter override
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [-- app-args...]",
		Short: "Launch the application from the virtual environment",
		Long: `Launch the project's application entry point (run.py by default) using
the virtual environment's interpreter. Everything after "--" is forwarded
to the application verbatim, and its exit code becomes pybuild's own.

Examples:
  pybuild run
  pybuild run -- --profile debug`,

		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter (default: venv interpreter, then auto-detect)")

	return cmd
}

// runRun is the orchestration function for the run command.
func runRun(ctx context.Context, flags *runFlags, passThrough []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	venvDir := config.ResolvePath(root, cfg.Venv)
	entryPoint := config.ResolvePath(root, cfg.EntryPoint)

	interp, err := pyenv.FindInterpreter(interpreterOverride(flags.python, cfg), venvDir)
	if err != nil {
		return err
	}
	logger.Debug("interpreter selected", "path", interp.Path, "source", interp.Source)

	var env []string
	if _, statErr := os.Stat(venvDir); statErr == nil {
		env = pyenv.ActivationEnv(venvDir, os.Environ())
	} else {
		fmt.Fprintln(os.Stderr, "Hint: no virtual environment found; run `pybuild install` first")
	}

	d := builder.NewDispatcher()
	_, err = d.Launch(ctx, interp, entryPoint, passThrough, env)
	return err
}
