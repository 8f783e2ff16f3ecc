package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runInitCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewInitCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitCreatesTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")

	out, err := runInitCommand(t, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")

	for _, path := range []string{
		"relnote.yaml",
		filepath.Join("changelog", "releases.yaml"),
		filepath.Join("changelog", "unreleased"),
	} {
		_, err := os.Stat(filepath.Join(dir, path))
		assert.NoError(t, err, "expected %s to exist", path)
	}
}

func TestInitRefusesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relnote.yaml"), []byte("series: x\n"), 0o644))

	_, err := runInitCommand(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// The pre-existing config is preserved.
	data, readErr := os.ReadFile(filepath.Join(dir, "relnote.yaml"))
	require.NoError(t, readErr)
	assert.Equal(t, "series: x\n", string(data))
}

func TestInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relnote.yaml"), []byte("series: x\n"), 0o644))

	_, err := runInitCommand(t, dir, "--force")
	require.NoError(t, err)

	data, readErr := os.ReadFile(filepath.Join(dir, "relnote.yaml"))
	require.NoError(t, readErr)
	assert.NotEqual(t, "series: x\n", string(data))
}

func TestInitExampleTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")

	out, err := runInitCommand(t, dir, "--example")
	require.NoError(t, err)
	assert.Contains(t, out, "example fragments")

	for _, path := range []string{
		"relnote.yaml",
		"policy.star",
		filepath.Join("changelog", "releases.yaml"),
		filepath.Join("changelog", "unreleased", "4023.rst"),
		filepath.Join("changelog", "unreleased_14", "5001.rst"),
	} {
		_, err := os.Stat(filepath.Join(dir, path))
		assert.NoError(t, err, "expected %s to exist", path)
	}

	// The example tree parses cleanly.
	f := parseFragmentFile(t, filepath.Join(dir, "changelog", "unreleased", "4023.rst"))
	require.NotNil(t, f.Change())
}
