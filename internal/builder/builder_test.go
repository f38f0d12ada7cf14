package builder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pybuild/internal/config"
	"github.com/mmr-tortoise/pybuild/internal/model"
)

// countOccurrences returns how many times needle appears in haystack.
func countOccurrences(haystack []string, needle string) int {
	n := 0
	for _, s := range haystack {
		if s == needle {
			n++
		}
	}
	return n
}

// TestArgs_AlwaysInjectsOneFile verifies the dispatcher's core argument
// property: the packaging flag is present in every assembled argv.
func TestArgs_AlwaysInjectsOneFile(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		passThrough []string
	}{
		{name: "no config, no args"},
		{name: "pass-through args", passThrough: []string{"--clean", "--log-level=WARN"}},
		{name: "config flags", cfg: config.Config{Name: "AutoClickPro", Console: true}},
		{name: "caller passes onefile themselves", passThrough: []string{"--onefile"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := Args(tt.cfg, tt.passThrough)
			assert.Equal(t, 1, countOccurrences(args, OneFileFlag),
				"argv must contain --onefile exactly once, got %v", args)
			assert.Equal(t, OneFileFlag, args[0], "--onefile leads the argv")
		})
	}
}

// TestArgs_Ordering verifies the full assembly order: injected flag,
// config-driven flags, extra args, then caller pass-through (so the
// caller can override config via argparse last-wins semantics).
func TestArgs_Ordering(t *testing.T) {
	cfg := config.Config{
		Name:           "AutoClickPro",
		Console:        true,
		Clean:          true,
		ExtraBuildArgs: []string{"--log-level=WARN"},
	}

	args := Args(cfg, []string{"--name=Override", "--onefile"})

	assert.Equal(t, []string{
		"--onefile",
		"--name=AutoClickPro",
		"--console",
		"--clean",
		"--log-level=WARN",
		"--name=Override",
	}, args)
}

// TestArgs_ZeroConfig verifies the minimal argv.
func TestArgs_ZeroConfig(t *testing.T) {
	assert.Equal(t, []string{"--onefile"}, Args(config.Config{}, nil))
}

// shTestScript writes a shell script into a temp dir and returns an
// "interpreter" (/bin/sh) plus the script path, letting dispatch tests
// run without a Python installation.
func shTestScript(t *testing.T, body string) (model.Interpreter, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("dispatch tests use /bin/sh scripts")
	}
	script := filepath.Join(t.TempDir(), "build.sh")
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return model.Interpreter{Path: "/bin/sh", Source: model.SourcePath}, script
}

// TestDispatch_Success verifies a zero exit code, streamed output, and a
// populated BuildResult.
func TestDispatch_Success(t *testing.T) {
	interp, script := shTestScript(t, "#!/bin/sh\necho building \"$@\"\nexit 0\n")

	var out bytes.Buffer
	d := &Dispatcher{Stdout: &out, Stderr: &out}

	result, err := d.Dispatch(context.Background(), interp, script, []string{"--onefile"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{script, "--onefile"}, result.Args)
	assert.Contains(t, out.String(), "building --onefile")
}

// TestDispatch_ForwardsExitCode verifies the spec's exit-code contract:
// the dispatcher's error carries the external routine's code verbatim.
func TestDispatch_ForwardsExitCode(t *testing.T) {
	interp, script := shTestScript(t, "#!/bin/sh\necho boom >&2\nexit 7\n")

	var out, errOut bytes.Buffer
	d := &Dispatcher{Stdout: &out, Stderr: &errOut}

	result, err := d.Dispatch(context.Background(), interp, script, nil, nil)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitCode(7), cliErr.Code, "child exit code must be forwarded verbatim")
	assert.Contains(t, cliErr.Message, "exit code 7")

	require.NotNil(t, result)
	assert.Equal(t, 7, result.ExitCode)
	assert.True(t, strings.Contains(errOut.String(), "boom"), "child stderr must be streamed")
}

// TestDispatch_MissingScriptIsPrecondition verifies that a missing build
// entry point is a pybuild-side failure with exit code 1, not a forwarded
// external failure.
func TestDispatch_MissingScriptIsPrecondition(t *testing.T) {
	d := &Dispatcher{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	_, err := d.Dispatch(context.Background(),
		model.Interpreter{Path: "/bin/sh"},
		filepath.Join(t.TempDir(), "scripts", "build.py"), nil, nil)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "build entry point not found")
}

// TestLaunch_MissingEntryPoint verifies the run-command analog of the
// missing-script precondition.
func TestLaunch_MissingEntryPoint(t *testing.T) {
	d := &Dispatcher{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	_, err := d.Launch(context.Background(),
		model.Interpreter{Path: "/bin/sh"},
		filepath.Join(t.TempDir(), "run.py"), nil, nil)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "application entry point not found")
}
