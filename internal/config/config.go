// Package config loads the optional pybuild.jsonc project configuration.
//
// The file uses JSONC (JSON with Comments) so projects can annotate their
// build settings the same way devcontainer.json files do. Comments are
// stripped with github.com/tidwall/jsonc before parsing with the standard
// encoding/json library.
//
// The configuration is entirely optional: a project without pybuild.jsonc
// gets the defaults (".venv", "requirements.txt", "scripts/build.py",
// "run.py"). Command-line flags and environment variables always take
// precedence over config file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/pybuild/internal/model"
)

// FileName is the project configuration file looked up at the project root.
const FileName = "pybuild.jsonc"

// Config holds the project-level settings for pybuild. All fields are
// optional in the file; zero values fall back to the defaults applied
// by Load.
type Config struct {
	// Python overrides interpreter discovery with an explicit binary,
	// the same way the PYBUILD_PYTHON environment variable does.
	// Precedence: --python flag > environment > this field.
	Python string `json:"python,omitempty"`

	// Venv is the virtual environment directory, relative to the project
	// root unless absolute. Defaults to ".venv".
	Venv string `json:"venv,omitempty"`

	// Requirements is the dependency manifest path, relative to the
	// project root unless absolute. Defaults to "requirements.txt".
	Requirements string `json:"requirements,omitempty"`

	// BuildScript is the external build entry point invoked by
	// `pybuild build`. Defaults to "scripts/build.py".
	BuildScript string `json:"buildScript,omitempty"`

	// EntryPoint is the application launcher invoked by `pybuild run`.
	// Defaults to "run.py".
	EntryPoint string `json:"entryPoint,omitempty"`

	// Name is the packaged executable's name, forwarded to the build
	// script as --name=<Name>. Empty means the script's own default.
	Name string `json:"name,omitempty"`

	// Console, when true, forwards --console to the build script so the
	// packaged executable keeps a console window (Windows/macOS).
	Console bool `json:"console,omitempty"`

	// Clean, when true, forwards --clean to the build script so it wipes
	// its caches before building.
	Clean bool `json:"clean,omitempty"`

	// ExtraBuildArgs are additional arguments inserted before the
	// caller's pass-through arguments on every build invocation.
	ExtraBuildArgs []string `json:"extraBuildArgs,omitempty"`
}

// Defaults returns a Config populated with the conventional project
// layout: .venv environment, requirements.txt manifest, scripts/build.py
// build entry point, and run.py application launcher.
func Defaults() Config {
	return Config{
		Venv:         ".venv",
		Requirements: "requirements.txt",
		BuildScript:  filepath.Join("scripts", "build.py"),
		EntryPoint:   "run.py",
	}
}

// Load reads pybuild.jsonc from the project root, strips JSONC comments,
// and parses it into a Config. Fields left empty in the file are filled
// with defaults.
//
// A missing file is not an error: the defaults are returned so every
// command works out of the box in a conventionally laid out project.
// A present-but-malformed file IS an error, because silently ignoring a
// typo'd config would make the tool appear to disregard user settings.
func Load(projectRoot string) (Config, error) {
	path := filepath.Join(projectRoot, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Config{}, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read %s", FileName), err)
	}

	// Strip JSONC comments (// and /* */) and trailing commas, then parse
	// with the standard library. jsonc.ToJSON preserves line numbers by
	// replacing comments with whitespace, so json errors still point at
	// the right location in the original file.
	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to parse %s", FileName), err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid %s", FileName), err)
	}

	return cfg, nil
}

// applyDefaults fills empty Config fields with the conventional values.
// Only path-like fields have defaults; Name/Console/Clean default to the
// build script's own behavior.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Venv == "" {
		cfg.Venv = def.Venv
	}
	if cfg.Requirements == "" {
		cfg.Requirements = def.Requirements
	}
	if cfg.BuildScript == "" {
		cfg.BuildScript = def.BuildScript
	}
	if cfg.EntryPoint == "" {
		cfg.EntryPoint = def.EntryPoint
	}
}

// Validate checks field-level constraints that would otherwise surface as
// confusing subprocess failures much later.
func (c Config) Validate() error {
	// Guard against venv paths that escape the project, e.g. "../..".
	// Absolute venv paths are allowed (some teams share a central
	// environment cache), but relative ones must stay inside the project.
	if !filepath.IsAbs(c.Venv) {
		clean := filepath.ToSlash(filepath.Clean(c.Venv))
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("venv directory %q escapes the project root", c.Venv)
		}
		if clean == "." || clean == "" {
			return fmt.Errorf("venv directory must not be the project root itself")
		}
	}

	if err := model.ValidateExecutableName(c.Name); err != nil {
		return err
	}

	return nil
}

// ResolvePath turns a config-relative path into an absolute one, leaving
// already-absolute paths untouched. All path fields in Config are
// interpreted relative to the project root.
func ResolvePath(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}
