package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a pybuild.jsonc file into dir and returns dir.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

// TestLoad_MissingFileReturnsDefaults verifies that a project without
// pybuild.jsonc gets the conventional defaults instead of an error.
func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ".venv", cfg.Venv)
	assert.Equal(t, "requirements.txt", cfg.Requirements)
	assert.Equal(t, filepath.Join("scripts", "build.py"), cfg.BuildScript)
	assert.Equal(t, "run.py", cfg.EntryPoint)
	assert.Empty(t, cfg.Name)
	assert.False(t, cfg.Console)
}

// TestLoad_FullConfigWithComments verifies JSONC parsing: comments and
// trailing commas must be tolerated, and all fields must round-trip.
func TestLoad_FullConfigWithComments(t *testing.T) {
	dir := writeConfig(t, t.TempDir(), `{
  // interpreter override, same effect as PYBUILD_PYTHON
  "python": "/opt/python3.12/bin/python3",
  "venv": "env",
  "requirements": "requirements/base.txt",
  "buildScript": "tools/build.py",
  "entryPoint": "main.py",
  /* packaging options */
  "name": "AutoClickPro",
  "console": true,
  "clean": true,
  "extraBuildArgs": ["--log-level=WARN"],
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/opt/python3.12/bin/python3", cfg.Python)
	assert.Equal(t, "env", cfg.Venv)
	assert.Equal(t, "requirements/base.txt", cfg.Requirements)
	assert.Equal(t, "tools/build.py", cfg.BuildScript)
	assert.Equal(t, "main.py", cfg.EntryPoint)
	assert.Equal(t, "AutoClickPro", cfg.Name)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Clean)
	assert.Equal(t, []string{"--log-level=WARN"}, cfg.ExtraBuildArgs)
}

// TestLoad_PartialConfigKeepsDefaults verifies that unspecified fields
// fall back to defaults rather than empty strings.
func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	dir := writeConfig(t, t.TempDir(), `{"name": "AutoClickPro"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "AutoClickPro", cfg.Name)
	assert.Equal(t, ".venv", cfg.Venv)
	assert.Equal(t, "requirements.txt", cfg.Requirements)
}

// TestLoad_MalformedFileFails verifies that a present-but-broken config is
// reported instead of silently ignored.
func TestLoad_MalformedFileFails(t *testing.T) {
	dir := writeConfig(t, t.TempDir(), `{"venv": `)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileName)
}

// TestValidate_RejectsBadValues exercises the field-level constraints.
func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "venv escaping the project root",
			mutate:  func(c *Config) { c.Venv = "../shared-venv" },
			wantErr: "escapes the project root",
		},
		{
			name:    "venv as project root",
			mutate:  func(c *Config) { c.Venv = "." },
			wantErr: "must not be the project root",
		},
		{
			name:    "invalid executable name",
			mutate:  func(c *Config) { c.Name = "my app!" },
			wantErr: "invalid executable name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	// Absolute venv paths are explicitly allowed.
	cfg := Defaults()
	cfg.Venv = filepath.Join(t.TempDir(), "central-venv")
	assert.NoError(t, cfg.Validate())
}

// TestResolvePath verifies project-relative path resolution.
func TestResolvePath(t *testing.T) {
	root := t.TempDir()

	assert.Equal(t, filepath.Join(root, ".venv"), ResolvePath(root, ".venv"))

	abs := filepath.Join(t.TempDir(), "python")
	assert.Equal(t, abs, ResolvePath(root, abs))
}
