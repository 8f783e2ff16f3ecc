package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const goodFragment = ".. change::\n    :tags: bug, orm\n    :tickets: 4349\n\n    Fixed a thing.\n"

func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "unreleased", "4349.rst"), goodFragment)
	writeFile(t, filepath.Join(root, "unreleased", "9001.rst"), ".. change::\n    :tags: feature, engine\n    :tickets: 9001\n\n    Added a thing.\n")
	writeFile(t, filepath.Join(root, "unreleased_14", "5000.rst"), ".. change::\n    :tags: bug\n    :tickets: 5000\n\n    Series fix.\n")
	writeFile(t, filepath.Join(root, "releases.yaml"), "releases:\n  - version: 1.3.0\n    date: \"2026-01-10\"\n")
	return root
}

func TestLoadTree(t *testing.T) {
	root := setupTree(t)

	tree, err := Load(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, tree.FragmentCount())
	assert.Equal(t, []string{"14", "default"}, tree.SeriesNames())
	assert.Equal(t, []string{"1.3.0"}, tree.KnownVersions())
	assert.Empty(t, tree.ParseFailures())

	files := tree.Files()
	require.Len(t, files, 3)
	// Path order is stable regardless of walk order.
	assert.Equal(t, filepath.Join("unreleased", "4349.rst"), files[0].Path)
	assert.Equal(t, filepath.Join("unreleased", "9001.rst"), files[1].Path)
	assert.Equal(t, filepath.Join("unreleased_14", "5000.rst"), files[2].Path)

	assert.Equal(t, "default", tree.SeriesOf(files[0]))
	assert.Equal(t, "14", tree.SeriesOf(files[2]))
}

func TestLoadCollectsParseFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "unreleased", "good.rst"), goodFragment)
	writeFile(t, filepath.Join(root, "unreleased", "bad.rst"), ".. change::\n\t:tags: bug\n")

	tree, err := Load(context.Background(), root)
	require.NoError(t, err, "parse failures must not abort the load")

	assert.Equal(t, 1, tree.FragmentCount())
	require.Len(t, tree.ParseFailures(), 1)
	assert.Equal(t, filepath.Join("unreleased", "bad.rst"), tree.ParseFailures()[0].Path)
}

func TestLoadSkipsNonFragments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "unreleased", "4349.rst"), goodFragment)
	writeFile(t, filepath.Join(root, "unreleased", ".hidden.rst"), goodFragment)
	writeFile(t, filepath.Join(root, "unreleased", "README.md"), "# not a fragment")
	writeFile(t, filepath.Join(root, "1.3.0.rst"), "compiled output, not scanned")

	tree, err := Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.FragmentCount())
}

func TestLoadMissingRoot(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoadEmptySeriesRegistered(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unreleased_20"), 0o755))

	tree, err := Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"20"}, tree.SeriesNames())
	assert.Empty(t, tree.SeriesFiles("20"))
}
