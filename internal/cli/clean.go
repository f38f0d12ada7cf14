// Package cli — clean.go implements the "pybuild clean" command.
//
// The clean command removes the build artifacts the external build script
// produces (the build/ work directory and the dist/ output directory).
// With --venv it also removes the virtual environment, returning the
// project to its pre-install state.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
	"github.com/mmr-tortoise/pybuild/internal/pyenv"
)

// artifactDirs are the build-output directories removed by clean,
// relative to the project root. These match the dist/work directories
// the build script creates.
var artifactDirs = []string{"build", "dist"}

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	venv bool // --venv: also remove the virtual environment
}

// NewCleanCommand creates the "clean" cobra command.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build artifacts (and optionally the virtual environment)",
		Long: `Remove the build script's artifact directories (build/ and dist/).

With --venv, the virtual environment directory is removed as well,
returning the project to its pre-install state.

Examples:
  pybuild clean
  pybuild clean --venv`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(flags)
		},
	}

	cmd.Flags().BoolVar(&flags.venv, "venv", false, "Also remove the virtual environment")

	return cmd
}

// runClean is the orchestration function for the clean command.
func runClean(flags *cleanFlags) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	var removed []string

	for _, dir := range artifactDirs {
		path := filepath.Join(root, dir)
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			logger.Debug("artifact directory absent", "path", path)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove %s", path), err)
		}
		removed = append(removed, path)
	}

	if flags.venv {
		venvDir := config.ResolvePath(root, cfg.Venv)
		existed := false
		if _, statErr := os.Stat(venvDir); statErr == nil {
			existed = true
		}
		if err := pyenv.NewManager().RemoveVenv(venvDir); err != nil {
			return err
		}
		if existed {
			removed = append(removed, venvDir)
		}
	}

	printCleanResult(removed)
	return nil
}

// printCleanResult outputs the removed paths in text or JSON format.
func printCleanResult(removed []string) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"removed": removed}, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(removed) == 0 {
		fmt.Println("Nothing to clean")
		return
	}
	for _, path := range removed {
		fmt.Printf("Removed %s\n", path)
	}
}
