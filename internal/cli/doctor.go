// Package cli — doctor.go implements the "pybuild doctor" command.
//
// Doctor runs the preflight checks that install and build would otherwise
// fail on one at a time: interpreter discovery, virtual environment
// presence, manifest presence, and build script presence. It reports all
// of them at once so a fresh checkout can be diagnosed in a single run.
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

// doctorFlags holds the flag values for the doctor command.
type doctorFlags struct {
	python string // --python: interpreter override
}

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	flags := &doctorFlags{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project is ready to install and build",
		Long: `Run the preflight checks for the install and build commands:

  interpreter   a usable Python interpreter can be located
  venv          the virtual environment exists (informational)
  manifest      the requirements manifest exists
  buildScript   the external build entry point exists
  entryPoint    the application entry point exists (informational)

Exits 1 when any required check fails.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.python, "python", "", "Python interpreter override")

	return cmd
}

// runDoctor executes all preflight checks and reports them together.
func runDoctor(ctx context.Context, flags *doctorFlags) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	venvDir := config.ResolvePath(root, cfg.Venv)
	checks := []model.CheckResult{
		checkInterpreter(ctx, interpreterOverride(flags.python, cfg), venvDir),
		checkPath("venv", venvDir, false),
		checkManifest(root, cfg.Requirements),
		checkPath("buildScript", config.ResolvePath(root, cfg.BuildScript), true),
		checkPath("entryPoint", config.ResolvePath(root, cfg.EntryPoint), false),
	}

	printDoctorResult(checks)

	// Only required checks gate the exit code: a missing venv or entry
	// point is normal on a fresh checkout.
	for _, c := range checks {
		if !c.OK && requiredChecks[c.Name] {
			return model.NewCLIError(model.ExitGeneralError, "preflight checks failed")
		}
	}
	return nil
}

// requiredChecks names the checks whose failure makes doctor exit 1.
var requiredChecks = map[string]bool{
	"interpreter": true,
	"manifest":    true,
	"buildScript": true,
}

// checkInterpreter resolves an interpreter and interrogates its version.
func checkInterpreter(ctx context.Context, override, venvDir string) model.CheckResult {
	interp, err := pyenv.FindInterpreter(override, venvDir)
	if err != nil {
		return model.CheckResult{Name: "interpreter", OK: false, Detail: err.Error()}
	}

	if version, verr := pyenv.Version(ctx, interp.Path); verr == nil {
		interp.Version = version
	}
	return model.CheckResult{Name: "interpreter", OK: true, Detail: interp.String()}
}

// checkManifest reuses the install command's manifest lookup so doctor
// and install agree about what counts as "found".
func checkManifest(root, explicit string) model.CheckResult {
	path, err := manifest.Find(root, explicit)
	if err != nil {
		return model.CheckResult{Name: "manifest", OK: false, Detail: err.Error()}
	}
	return model.CheckResult{Name: "manifest", OK: true, Detail: path}
}

// checkPath reports whether a file or directory exists. required only
// affects the failure Detail wording, not the exit decision (that is
// keyed off requiredChecks).
func checkPath(name, path string, required bool) model.CheckResult {
	if _, err := os.Stat(path); err != nil {
		detail := fmt.Sprintf("not found: %s", path)
		if !required {
			detail += " (optional)"
		}
		return model.CheckResult{Name: name, OK: false, Detail: detail}
	}
	return model.CheckResult{Name: name, OK: true, Detail: path}
}

// printDoctorResult outputs the check table in text or JSON format.
func printDoctorResult(checks []model.CheckResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(checks, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, c := range checks {
		marker := "ok"
		if !c.OK {
			marker = "FAIL"
		}
		fmt.Printf("  %-12s %-4s %s\n", c.Name, marker, c.Detail)
	}
}
