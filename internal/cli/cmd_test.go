// Package cli — cmd_test.go contains unit tests for the pure helpers and
// the command orchestration paths that don't require a Python
// installation.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
)

// withProjectDir points the global --project flag variable at dir for the
// duration of the test.
func withProjectDir(t *testing.T, dir string) {
	t.Helper()
	old := projectDir
	projectDir = dir
	t.Cleanup(func() { projectDir = old })
}

// TestInterpreterOverride verifies flag-beats-config precedence.
func TestInterpreterOverride(t *testing.T) {
	cfg := config.Config{Python: "/from/config"}

	assert.Equal(t, "/from/flag", interpreterOverride("/from/flag", cfg))
	assert.Equal(t, "/from/config", interpreterOverride("", cfg))
	assert.Equal(t, "", interpreterOverride("", config.Config{}))
}

// TestCheckPath verifies the doctor's existence checks for both outcomes
// and the optional marker in the failure detail.
func TestCheckPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "run.py")
	require.NoError(t, os.WriteFile(existing, []byte("print()\n"), 0o644))

	ok := checkPath("entryPoint", existing, false)
	assert.True(t, ok.OK)
	assert.Equal(t, existing, ok.Detail)

	missing := checkPath("buildScript", filepath.Join(dir, "scripts", "build.py"), true)
	assert.False(t, missing.OK)
	assert.Contains(t, missing.Detail, "not found")
	assert.NotContains(t, missing.Detail, "(optional)")

	optional := checkPath("venv", filepath.Join(dir, ".venv"), false)
	assert.False(t, optional.OK)
	assert.Contains(t, optional.Detail, "(optional)")
}

// TestCheckManifest verifies doctor and install agree on manifest lookup.
func TestCheckManifest(t *testing.T) {
	dir := t.TempDir()

	res := checkManifest(dir, "")
	assert.False(t, res.OK)
	assert.Contains(t, res.Detail, "requirements manifest not found")

	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("numpy\n"), 0o644))

	res = checkManifest(dir, "")
	assert.True(t, res.OK)
	assert.Equal(t, path, res.Detail)
}

// TestRequiredChecks pins down which doctor checks gate the exit code.
// The venv and entry point are informational: both are legitimately
// absent on a fresh checkout.
func TestRequiredChecks(t *testing.T) {
	assert.True(t, requiredChecks["interpreter"])
	assert.True(t, requiredChecks["manifest"])
	assert.True(t, requiredChecks["buildScript"])
	assert.False(t, requiredChecks["venv"])
	assert.False(t, requiredChecks["entryPoint"])
}

// TestRunClean_RemovesArtifacts verifies that clean removes build/ and
// dist/ but leaves everything else alone.
func TestRunClean_RemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	withProjectDir(t, dir)

	for _, d := range []string{"build", "dist", "src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o755))
	}

	require.NoError(t, runClean(&cleanFlags{}))

	for _, d := range []string{"build", "dist"} {
		_, err := os.Stat(filepath.Join(dir, d))
		assert.True(t, os.IsNotExist(err), "%s must be removed", d)
	}
	_, err := os.Stat(filepath.Join(dir, "src"))
	assert.NoError(t, err, "unrelated directories must survive")
}

// TestRunClean_VenvFlag verifies that --venv removes the environment
// directory and that a second run is a no-op.
func TestRunClean_VenvFlag(t *testing.T) {
	dir := t.TempDir()
	withProjectDir(t, dir)

	venvDir := filepath.Join(dir, ".venv")
	require.NoError(t, os.MkdirAll(filepath.Join(venvDir, "bin"), 0o755))

	require.NoError(t, runClean(&cleanFlags{venv: true}))
	_, err := os.Stat(venvDir)
	assert.True(t, os.IsNotExist(err))

	// Idempotent: nothing left to remove is not an error.
	assert.NoError(t, runClean(&cleanFlags{venv: true}))
}

// TestRunInstall_MissingManifest verifies acceptance property 1: install
// without a manifest yields a CLIError with exit code 1 and an
// explanatory message, before any environment work happens.
func TestRunInstall_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	withProjectDir(t, dir)

	err := runInstall(context.Background(), &installFlags{})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "requirements manifest not found")

	// No venv may have been created on the failed run.
	_, statErr := os.Stat(filepath.Join(dir, ".venv"))
	assert.True(t, os.IsNotExist(statErr), "install must fail before creating the venv")
}

// TestNewRootCommand_Subcommands verifies the command tree registration.
func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"install", "build", "run", "clean", "doctor", "freeze"} {
		assert.Contains(t, names, want)
	}

	// Global flags must be registered as persistent flags.
	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, root.PersistentFlags().Lookup("project"))
}
