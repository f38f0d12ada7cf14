// Package manifest locates and parses the pip requirements manifest that
// drives the install step.
//
// The manifest is the plain line-oriented requirements format understood
// by `pip install -r`: one requirement per line, `#` comments, backslash
// line continuations, `-r`/`--requirement` includes, and global options
// such as `--index-url`. pybuild never resolves or installs requirements
// itself — pip remains the authority — but it parses the file to validate
// its presence up front (a missing manifest is a fatal precondition) and
// to show users what the install step is about to do.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/pybuild/internal/model"
)

// Requirement is a single dependency line from the manifest, split into
// the distribution name and everything after it (version specifiers,
// extras, environment markers).
type Requirement struct {
	// Name is the distribution name, e.g. "PySide6" or "opencv-python".
	Name string `json:"name"`

	// Spec is the remainder of the line: extras, version pins, and
	// markers, e.g. "[gui]>=6.5,<7" or "==1.26.4 ; sys_platform == 'win32'".
	// Empty when the requirement is unpinned.
	Spec string `json:"spec,omitempty"`
}

// String reassembles the requirement as it would appear in the manifest.
func (r Requirement) String() string {
	return r.Name + r.Spec
}

// Manifest is the parsed dependency manifest.
type Manifest struct {
	// Path is the absolute path of the top-level manifest file.
	Path string `json:"path"`

	// Requirements lists the dependencies in file order, with includes
	// expanded in place.
	Requirements []Requirement `json:"requirements"`

	// Options holds global pip options found in the file
	// (e.g. "--index-url https://pypi.internal/simple"). They are kept
	// for display only; pip re-reads them itself from the file.
	Options []string `json:"options,omitempty"`
}

// Find returns the manifest path for the project. When explicit is
// non-empty it is used directly (resolved against projectRoot if
// relative); otherwise the conventional locations are searched in order.
//
// A missing manifest is the spec's fatal precondition: the returned error
// is a CLIError with exit code 1 and a message naming every searched path.
func Find(projectRoot, explicit string) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("requirements manifest not found: %s", path))
		}
		return path, nil
	}

	// Conventional locations in priority order. requirements.txt at the
	// root is the overwhelmingly common layout; requirements/base.txt is
	// the split-requirements convention used by larger projects.
	candidates := []string{
		filepath.Join(projectRoot, "requirements.txt"),
		filepath.Join(projectRoot, "requirements", "base.txt"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", model.NewCLIError(model.ExitGeneralError,
		fmt.Sprintf("requirements manifest not found in %s (searched requirements.txt and requirements/base.txt)", projectRoot))
}

// Parse reads and parses the manifest at path, following -r includes
// relative to the including file. Include cycles are detected and broken
// silently (the first visit wins), matching pip's behavior.
func Parse(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			"failed to resolve manifest path", err)
	}

	m := &Manifest{Path: abs}
	visited := map[string]bool{}
	if err := parseFile(abs, m, visited); err != nil {
		return nil, err
	}
	return m, nil
}

// parseFile parses a single requirements file into m, recursing into
// -r includes. visited guards against include cycles.
func parseFile(path string, m *Manifest, visited map[string]bool) error {
	if visited[path] {
		return nil
	}
	visited[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read requirements manifest %s", path), err)
	}

	for _, line := range logicalLines(string(data)) {
		switch {
		case line == "":
			// Blank or comment-only line.

		case strings.HasPrefix(line, "-r ") || strings.HasPrefix(line, "--requirement "):
			// Include directive: the referenced file is resolved relative
			// to the file containing the directive, as pip does.
			_, ref, _ := strings.Cut(line, " ")
			ref = strings.TrimSpace(ref)
			if !filepath.IsAbs(ref) {
				ref = filepath.Join(filepath.Dir(path), ref)
			}
			if err := parseFile(ref, m, visited); err != nil {
				return err
			}

		case strings.HasPrefix(line, "-"):
			// Any other pip option (--index-url, --extra-index-url,
			// --no-binary, -c constraints, ...). Recorded verbatim.
			m.Options = append(m.Options, line)

		default:
			m.Requirements = append(m.Requirements, splitRequirement(line))
		}
	}

	return nil
}

// logicalLines normalizes the file into logical requirement lines:
// CRLF is tolerated, backslash continuations are joined, inline comments
// are stripped, and surrounding whitespace is trimmed. Comment-only and
// blank lines come back as "".
func logicalLines(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var lines []string
	var pending strings.Builder

	for _, line := range raw {
		line = stripComment(line)
		trimmed := strings.TrimSpace(line)

		// A trailing backslash joins this line with the next one.
		if strings.HasSuffix(trimmed, "\\") {
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			continue
		}

		if pending.Len() > 0 {
			pending.WriteString(trimmed)
			lines = append(lines, strings.TrimSpace(pending.String()))
			pending.Reset()
			continue
		}

		lines = append(lines, trimmed)
	}

	// Unterminated continuation at EOF: treat what we have as a line.
	if pending.Len() > 0 {
		lines = append(lines, strings.TrimSpace(pending.String()))
	}

	return lines
}

// stripComment removes a trailing # comment. The requirements format
// treats # as a comment marker only at the start of a line or when
// preceded by whitespace (so "package#egg" style fragments survive).
func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx == 0 {
		return ""
	}
	if idx := strings.Index(line, " #"); idx >= 0 {
		return line[:idx]
	}
	if idx := strings.Index(line, "\t#"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// specMarkers are the characters that end the distribution name in a
// requirement line: version comparison operators, extras brackets,
// whitespace before a marker, and the marker separator itself.
const specMarkers = "=<>!~[; "

// splitRequirement splits a requirement line into name and spec at the
// first character that cannot be part of a distribution name.
func splitRequirement(line string) Requirement {
	idx := strings.IndexAny(line, specMarkers)
	if idx < 0 {
		return Requirement{Name: line}
	}
	return Requirement{Name: line[:idx], Spec: line[idx:]}
}
