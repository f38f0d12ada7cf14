// Package cli — freeze.go implements the "pybuild freeze" command.
//
// Freeze records the virtual environment's actual state — interpreter
// version plus every installed package — as a YAML snapshot file. The
// requirements manifest states what the environment SHOULD contain;
// the snapshot states what it DID contain when a build was made.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
	"github.com/mmr-tortoise/pybuild/internal/pyenv"
)

// defaultSnapshotFile is where freeze writes unless --output is given.
const defaultSnapshotFile = "environment.snapshot.yaml"

// freezeFlags holds the flag values for the freeze command.
type freezeFlags struct {
	python string // --python: interpreter override
	output string // --output: snapshot file path
}

// NewFreezeCommand creates the "freeze" cobra command.
func NewFreezeCommand() *cobra.Command {
	flags := &freezeFlags{}

	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Write a YAML snapshot of the environment's installed packages",
		Long: `Record the virtual environment's interpreter version and installed
packages (via pip freeze) as a YAML snapshot file.

Examples:
  pybuild freeze
  pybuild freeze --output env-2026-08-23.yaml
  pybuild freeze --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreeze(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter (default: venv interpreter)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", defaultSnapshotFile, "Snapshot file path")

	return cmd
}

// runFreeze is the orchestration function for the freeze command.
func runFreeze(ctx context.Context, flags *freezeFlags) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	venvDir := config.ResolvePath(root, cfg.Venv)

	interp, err := pyenv.FindInterpreter(interpreterOverride(flags.python, cfg), venvDir)
	if err != nil {
		return err
	}
	logger.Debug("interpreter selected", "path", interp.Path, "source", interp.Source)

	// Snapshotting a non-venv interpreter is allowed (it records the
	// system environment) but almost always a mistake, so warn.
	if interp.Source != model.SourceVenv && interp.Source != model.SourceOverride {
		logger.Warn("snapshotting outside the virtual environment", "interpreter", interp.Path)
	}

	var env []string
	if _, statErr := os.Stat(venvDir); statErr == nil {
		env = pyenv.ActivationEnv(venvDir, os.Environ())
	}

	snap, err := pyenv.NewManager().TakeSnapshot(ctx, interp, env)
	if err != nil {
		return err
	}

	outPath := config.ResolvePath(root, flags.output)
	if err := pyenv.WriteSnapshot(outPath, snap); err != nil {
		return err
	}

	printFreezeResult(outPath, snap)
	return nil
}

// printFreezeResult outputs the snapshot summary in text or JSON format.
func printFreezeResult(path string, snap *pyenv.Snapshot) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"path":     path,
			"python":   snap.Python,
			"packages": len(snap.Packages),
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Snapshot written: %s\n", path)
	fmt.Printf("  Interpreter:  %s\n", snap.Python)
	fmt.Printf("  Packages:     %d\n", len(snap.Packages))
}
