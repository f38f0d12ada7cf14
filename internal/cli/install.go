// Package cli — install.go implements the "pybuild install" command.
//
// The install command is the environment bootstrap routine:
//  1. Load project configuration
//  2. Verify the dependency manifest exists (fatal if missing — checked
//     before any environment work so a typo'd path fails fast)
//  3. Locate a base Python interpreter
//  4. Create the virtual environment if absent (idempotent)
//  5. Upgrade the packaging tools inside the environment
//  6. Install the manifest's dependencies (always, even on re-runs)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/manifest"
	"github.com/mmr-tortoise/pybuild/internal/model"
	"github.com/mmr-tortoise/pybuild/internal/pyenv"
)

// installFlags holds the flag values for the install command.
type installFlags struct {
	python       string // --python: interpreter override
	venv         string // --venv: environment directory override
	requirements string // --requirements: manifest path override
	skipUpgrade  bool   // --skip-upgrade: don't upgrade pip/setuptools/wheel
}

// NewInstallCommand creates the "install" cobra command.
func NewInstallCommand() *cobra.Command {
	flags := &installFlags{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Create the virtual environment and install dependencies",
		Long: `Create the project's virtual environment (if absent) and install the
dependencies listed in the requirements manifest.

The command is idempotent: re-running it skips environment creation but
always re-runs the dependency install, letting pip reconcile the
environment with the manifest.

Examples:
  pybuild install
  pybuild install --python /opt/python3.12/bin/python3
  pybuild install --requirements requirements/base.txt`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter to bootstrap with (default: auto-detect)")
	cmd.Flags().StringVar(&flags.venv, "venv", "", "Virtual environment directory (default: from config or .venv)")
	cmd.Flags().StringVar(&flags.requirements, "requirements", "", "Requirements manifest path (default: from config or requirements.txt)")
	cmd.Flags().BoolVar(&flags.skipUpgrade, "skip-upgrade", false, "Skip upgrading pip, setuptools, and wheel")

	return cmd
}

// installResult is the machine-readable summary printed with --json.
type installResult struct {
	Python       string `json:"python"`
	Venv         string `json:"venv"`
	VenvCreated  bool   `json:"venvCreated"`
	Manifest     string `json:"manifest"`
	Requirements int    `json:"requirements"`
}

// runInstall is the orchestration function for the install command.
func runInstall(ctx context.Context, flags *installFlags) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	// Flag overrides beat config file values.
	if flags.venv != "" {
		cfg.Venv = flags.venv
	}
	if flags.requirements != "" {
		cfg.Requirements = flags.requirements
	}
	venvDir := config.ResolvePath(root, cfg.Venv)

	// Step 1: the manifest precondition, checked before any venv work.
	// Creating an environment and then failing on a missing manifest
	// would leave the project half-bootstrapped.
	manifestPath, err := manifest.Find(root, cfg.Requirements)
	if err != nil {
		return err
	}
	logger.Debug("manifest located", "path", manifestPath)

	parsed, err := manifest.Parse(manifestPath)
	if err != nil {
		return err
	}
	logger.Debug("manifest parsed", "requirements", len(parsed.Requirements), "options", len(parsed.Options))

	// Step 2: locate a base interpreter. The venv candidate is skipped:
	// an environment must be created by a base interpreter, and on
	// re-runs the venv interpreter is picked up explicitly below.
	base, err := pyenv.FindInterpreter(interpreterOverride(flags.python, cfg), "")
	if err != nil {
		return err
	}
	if version, verr := pyenv.Version(ctx, base.Path); verr == nil {
		base.Version = version
	} else {
		logger.Debug("interpreter interrogation failed", "error", verr)
	}
	logger.Debug("base interpreter", "path", base.Path, "version", base.Version, "source", base.Source)

	// Step 3: ensure the environment exists.
	mgr := pyenv.NewManager()
	created, err := mgr.EnsureVenv(ctx, base, venvDir)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created virtual environment: %s\n", venvDir)
	} else {
		logger.Debug("virtual environment already exists", "dir", venvDir)
	}

	// All pip operations below run with the VENV interpreter and the
	// activation-equivalent environment, never the base interpreter.
	venvPython := model.Interpreter{Path: pyenv.VenvInterpreterPath(venvDir), Source: model.SourceVenv}
	env := pyenv.ActivationEnv(venvDir, os.Environ())

	// Step 4: refresh the packaging layer.
	if !flags.skipUpgrade {
		logger.Debug("upgrading packaging tools")
		if err := mgr.UpgradeTooling(ctx, venvPython, env); err != nil {
			return err
		}
	}

	// Step 5: install dependencies. Always runs, even when the venv
	// already existed — pip decides what is already satisfied.
	logger.Debug("installing requirements", "manifest", manifestPath)
	if err := mgr.InstallRequirements(ctx, venvPython, manifestPath, env); err != nil {
		return err
	}

	printInstallResult(installResult{
		Python:       base.Path,
		Venv:         venvDir,
		VenvCreated:  created,
		Manifest:     manifestPath,
		Requirements: len(parsed.Requirements),
	})
	return nil
}

// printInstallResult outputs the install summary in text or JSON format.
func printInstallResult(res installResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Environment ready: %s\n", res.Venv)
	fmt.Printf("  Interpreter:  %s\n", res.Python)
	fmt.Printf("  Manifest:     %s (%d requirements)\n", res.Manifest, res.Requirements)
	if res.VenvCreated {
		fmt.Println("  Created:      yes")
	} else {
		fmt.Println("  Created:      no (already existed)")
	}
}
