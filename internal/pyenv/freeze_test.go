package pyenv

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestParsePipFreeze covers the line shapes pip freeze emits.
func TestParsePipFreeze(t *testing.T) {
	output := `numpy==1.26.4
PySide6==6.6.1
local-lib @ file:///home/dev/local-lib
-e git+https://example.com/repo.git#egg=devtool
opencv-python==4.9.0.80
`

	pkgs := ParsePipFreeze(output)
	require.Len(t, pkgs, 5)

	// Sorted case-insensitively by name.
	assert.Equal(t, "git+https://example.com/repo.git#egg=devtool", pkgs[0].Name)
	assert.Equal(t, "editable", pkgs[0].Version)
	assert.Equal(t, Package{Name: "local-lib", Version: "file:///home/dev/local-lib"}, pkgs[1])
	assert.Equal(t, Package{Name: "numpy", Version: "1.26.4"}, pkgs[2])
	assert.Equal(t, Package{Name: "opencv-python", Version: "4.9.0.80"}, pkgs[3])
	assert.Equal(t, Package{Name: "PySide6", Version: "6.6.1"}, pkgs[4])
}

// TestParsePipFreeze_EmptyAndComments verifies blank output and comment
// lines produce an empty package list.
func TestParsePipFreeze_EmptyAndComments(t *testing.T) {
	assert.Empty(t, ParsePipFreeze(""))
	assert.Empty(t, ParsePipFreeze("\n# comment from a constraints file\n\n"))
}

// TestMarshalSnapshot verifies the YAML document shape: header comment
// first, then a document that round-trips through yaml.Unmarshal.
func TestMarshalSnapshot(t *testing.T) {
	snap := &Snapshot{
		Python:    "Python 3.12.1",
		CreatedAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Packages: []Package{
			{Name: "numpy", Version: "1.26.4"},
			{Name: "PySide6", Version: "6.6.1"},
		},
	}

	data, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	// Header comment must lead the file so provenance is visible on open.
	assert.True(t, strings.HasPrefix(string(data), "# Environment snapshot generated by pybuild freeze."),
		"snapshot must start with the generated-file header")

	var decoded Snapshot
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, snap.Python, decoded.Python)
	assert.True(t, snap.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, snap.Packages, decoded.Packages)
}
