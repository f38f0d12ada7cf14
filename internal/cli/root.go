// Package cli implements the cobra-based CLI commands for pybuild.
//
// Each subcommand (install, build, run, clean, doctor, freeze) is defined
// in its own file within this package. This file defines the root command
// that serves as the parent for all subcommands, the global flags, and the
// error-to-exit-code translation.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
)

// Global flag variables shared across all subcommands. These are bound to
// cobra persistent flags on the root command, which makes them available
// to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON for machine consumption.
	jsonOutput bool

	// verbose enables debug-level diagnostics on stderr.
	verbose bool

	// projectDir is the project root all relative paths resolve against.
	// Defaults to the current working directory.
	projectDir string
)

// logger emits verbose diagnostics. It stays at WarnLevel unless
// --verbose raises it to DebugLevel, so normal runs only ever see the
// command's own output plus warnings.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Level:           log.WarnLevel,
})

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself performs no action — it provides help text and
// global flags. Functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pybuild",
		Short: "Python environment bootstrap and packaging build dispatcher",
		Long: `pybuild bootstraps an isolated Python virtual environment for the project
and dispatches packaging builds to the project's build script.

It replaces the platform-specific install/build script pairs with a single
binary: "pybuild install" creates .venv and installs the pinned
dependencies, "pybuild build" invokes scripts/build.py with the --onefile
packaging flag and forwards its exit code.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// Raise the log level before any subcommand runs so --verbose
		// applies to the whole invocation, including config loading.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project", ".", "Project root directory")

	// Register subcommands. Each is defined in its own file and returns
	// a *cobra.Command.
	rootCmd.AddCommand(NewInstallCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewFreezeCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit codes — including forwarded codes
// from the external build routine — other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode: stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadProject resolves the project root to an absolute path and loads the
// optional pybuild.jsonc configuration. Every subcommand starts here.
func loadProject() (string, config.Config, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return "", config.Config{}, model.WrapCLIError(model.ExitGeneralError,
			"failed to resolve project directory", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return "", config.Config{}, err
	}

	logger.Debug("project loaded", "root", root, "venv", cfg.Venv, "requirements", cfg.Requirements)
	return root, cfg, nil
}

// interpreterOverride merges the per-command --python flag with the
// config file's "python" field. The flag wins; environment variables are
// handled inside pyenv discovery.
func interpreterOverride(flagValue string, cfg config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Python
}
