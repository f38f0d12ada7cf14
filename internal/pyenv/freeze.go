// freeze.go implements environment snapshots for the freeze command.
//
// A snapshot records the interpreter version and the exact set of
// installed packages (from `pip freeze`) as a YAML document with a
// generated-file header. It gives teams a reviewable, diffable record of
// what an environment actually contained at build time — requirements.txt
// states intent, the snapshot states reality.
package pyenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/pybuild/internal/model"
)

// Package is a single installed distribution as reported by pip freeze.
type Package struct {
	// Name is the distribution name.
	Name string `yaml:"name" json:"name"`

	// Version is the installed version, or the direct reference
	// (URL/path) for packages installed from one.
	Version string `yaml:"version" json:"version"`
}

// Snapshot is the YAML-serializable record of an environment's state.
type Snapshot struct {
	// Python is the interpreter's self-reported version string.
	Python string `yaml:"python" json:"python"`

	// CreatedAt is when the snapshot was taken (UTC).
	CreatedAt time.Time `yaml:"createdAt" json:"createdAt"`

	// Packages lists every installed distribution, sorted by name for
	// deterministic, diff-friendly output.
	Packages []Package `yaml:"packages" json:"packages"`
}

// TakeSnapshot interrogates the interpreter's environment and returns a
// Snapshot. env should be the activation environment when snapshotting a
// venv (nil inherits the process env).
func (m *Manager) TakeSnapshot(ctx context.Context, python model.Interpreter, env []string) (*Snapshot, error) {
	version, err := Version(ctx, python.Path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			"failed to interrogate interpreter version", err)
	}

	// pip freeze output is data here, not UX, so it is captured instead
	// of streamed like the install subprocesses.
	// #nosec G204 — interpreter path comes from discovery.
	cmd := exec.CommandContext(ctx, python.Path, "-m", "pip", "freeze")
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	cmd.Env = env

	if err := cmd.Run(); err != nil {
		msg := "pip freeze failed"
		if s := strings.TrimSpace(errBuf.String()); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return nil, model.WrapCLIError(model.ExitGeneralError, msg, err)
	}

	return &Snapshot{
		Python:    version,
		CreatedAt: time.Now().UTC(),
		Packages:  ParsePipFreeze(out.String()),
	}, nil
}

// ParsePipFreeze parses `pip freeze` output into Packages.
//
// Handled line shapes:
//
//	name==1.2.3            pinned install (the normal case)
//	name @ file:///path    direct reference install
//	-e git+https://...     editable install (kept verbatim as the version)
//
// Output is sorted by name regardless of pip's ordering.
func ParsePipFreeze(output string) []Package {
	var pkgs []Package

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-e "):
			pkgs = append(pkgs, Package{
				Name:    strings.TrimSpace(strings.TrimPrefix(line, "-e ")),
				Version: "editable",
			})

		case strings.Contains(line, " @ "):
			name, ref, _ := strings.Cut(line, " @ ")
			pkgs = append(pkgs, Package{
				Name:    strings.TrimSpace(name),
				Version: strings.TrimSpace(ref),
			})

		case strings.Contains(line, "=="):
			name, version, _ := strings.Cut(line, "==")
			pkgs = append(pkgs, Package{
				Name:    strings.TrimSpace(name),
				Version: strings.TrimSpace(version),
			})

		default:
			// Unrecognized shape: keep the whole line as the name so
			// nothing silently disappears from the snapshot.
			pkgs = append(pkgs, Package{Name: line})
		}
	}

	sort.Slice(pkgs, func(i, j int) bool {
		return strings.ToLower(pkgs[i].Name) < strings.ToLower(pkgs[j].Name)
	})
	return pkgs
}

// snapshotHeader is prepended to every written snapshot file. YAML
// comments survive round-trips through most tooling, so the provenance
// note stays attached to the data.
const snapshotHeader = `# Environment snapshot generated by pybuild freeze.
# Records the interpreter version and installed packages at a point in
# time. Regenerate with: pybuild freeze
`

// MarshalSnapshot serializes a Snapshot to YAML with the header comment.
func MarshalSnapshot(snap *Snapshot) ([]byte, error) {
	body, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return append([]byte(snapshotHeader), body...), nil
}

// WriteSnapshot serializes the snapshot and writes it to path.
func WriteSnapshot(path string, snap *Snapshot) error {
	data, err := MarshalSnapshot(snap)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to serialize snapshot", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write snapshot to %s", path), err)
	}
	return nil
}
