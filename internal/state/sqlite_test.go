package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore()
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openStore(t)

	// The schema is usable right away.
	_, err := s.db.Exec(`SELECT id, path, series FROM fragments LIMIT 1`)
	assert.NoError(t, err)
}

func TestReplaceFragmentsRoundTrip(t *testing.T) {
	s := openStore(t)

	frags := []*core.IndexedFragment{
		{
			Path:    "unreleased/4349.rst",
			Series:  "default",
			Title:   "Fixed a thing.",
			Body:    "Fixed a thing.",
			Hash:    "abc",
			Tags:    []string{"bug", "orm"},
			Tickets: []int{4349, 4350},
		},
		{
			Path:   "unreleased_14/5000.rst",
			Series: "14",
			Title:  "Series fix.",
			Body:   "Series fix.",
			Hash:   "def",
			Tags:   []string{"bug"},
			Tickets: []int{
				5000,
			},
		},
	}
	require.NoError(t, s.ReplaceFragments(frags))

	byTicket, err := s.FragmentsByTicket(4349)
	require.NoError(t, err)
	require.Len(t, byTicket, 1)
	assert.Equal(t, "unreleased/4349.rst", byTicket[0].Path)
	assert.Equal(t, []string{"bug", "orm"}, byTicket[0].Tags, "tag order preserved")
	assert.Equal(t, []int{4349, 4350}, byTicket[0].Tickets, "ticket order preserved")

	byTag, err := s.FragmentsByTag("bug")
	require.NoError(t, err)
	assert.Len(t, byTag, 2)

	none, err := s.FragmentsByTicket(99999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplaceFragmentsIsWholesale(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.ReplaceFragments([]*core.IndexedFragment{
		{Path: "unreleased/1.rst", Series: "default", Hash: "a", Tickets: []int{1}},
	}))
	require.NoError(t, s.ReplaceFragments([]*core.IndexedFragment{
		{Path: "unreleased/2.rst", Series: "default", Hash: "b", Tickets: []int{2}},
	}))

	gone, err := s.FragmentsByTicket(1)
	require.NoError(t, err)
	assert.Empty(t, gone, "previous rows replaced")

	kept, err := s.FragmentsByTicket(2)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestIndexRunLifecycle(t *testing.T) {
	s := openStore(t)

	run, err := s.BeginIndexRun()
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, core.IndexRunRunning, run.Status)

	require.NoError(t, s.FinishIndexRun(run, 7, nil))
	assert.Equal(t, core.IndexRunCompleted, run.Status)
	assert.Equal(t, 7, run.Fragments)
	require.NotNil(t, run.CompletedAt)

	failed, err := s.BeginIndexRun()
	require.NoError(t, err)
	require.NoError(t, s.FinishIndexRun(failed, 0, errors.New("boom")))
	assert.Equal(t, core.IndexRunFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)
}

func TestReleases(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordRelease(&core.Release{Version: "1.3.0", Date: "2026-01-10", Series: "default"}))
	require.NoError(t, s.RecordRelease(&core.Release{Version: "1.4.0", Date: "2026-08-23", Series: "default"}))

	rels, err := s.Releases()
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, "1.4.0", rels[0].Version, "newest first")
}

func TestRowsFromTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unreleased"), 0o755))
	frag := ".. change::\n    :tags: bug, orm\n    :tickets: 4349\n\n    Fixed a thing.\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "unreleased", "4349.rst"), []byte(frag), 0o644))

	tree, err := loader.Load(context.Background(), root)
	require.NoError(t, err)

	rows, err := RowsFromTree(tree)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, filepath.Join("unreleased", "4349.rst"), row.Path)
	assert.Equal(t, "default", row.Series)
	assert.Equal(t, "Fixed a thing.", row.Title)
	assert.Equal(t, []string{"bug", "orm"}, row.Tags)
	assert.Equal(t, []int{4349}, row.Tickets)
	assert.Len(t, row.Hash, 64, "sha-256 hex digest")
}
