package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/importer"
	"github.com/relnote-labs/relnote/pkg/fragment"
)

func newTestRenderer(_ *testing.T) *output.Renderer {
	return output.NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, output.ModeText)
}

func parseFragmentFile(t *testing.T, path string) *fragment.File {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	f, err := fragment.Parse(path, data)
	require.NoError(t, err)
	return f
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "relnote v1.2.3")
}

func TestFragmentFileName(t *testing.T) {
	tests := []struct {
		name string
		opts NewOptions
		want string
	}{
		{"first ticket wins", NewOptions{Tickets: []int{4349, 4350}, Body: "Fixed it."}, "4349.rst"},
		{"body slug fallback", NewOptions{Body: "Fixed Eager Loads!"}, "fixed_eager_loads.rst"},
		{"slug is truncated", NewOptions{Body: "a very long first line that keeps going and going and going"}, "a_very_long_first_line_that_keeps_going_.rst"},
		{"empty body", NewOptions{}, "change.rst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fragmentFileName(&tt.opts)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 44)
		})
	}
}

func TestWriteFragment(t *testing.T) {
	dir := t.TempDir()
	opts := &NewOptions{
		Tags:    []string{"bug", "orm"},
		Tickets: []int{4349},
		Body:    "Fixed regression where eager loads were dropped.\n\nSecond paragraph.",
	}

	path, err := writeFragment(dir, opts)
	require.NoError(t, err)
	assert.Contains(t, path, "unreleased")
	assert.Contains(t, path, "4349.rst")

	// Round-trip: the written file must parse back to the same change.
	f := parseFragmentFile(t, path)
	change := f.Change()
	require.NotNil(t, change)
	assert.Equal(t, []string{"bug", "orm"}, change.Tags)
	assert.Equal(t, []int{4349}, change.NumericTickets())
	assert.Contains(t, change.Body, "Second paragraph.")

	// Writing the same fragment twice is refused.
	_, err = writeFragment(dir, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWriteFragmentSeriesDirectory(t *testing.T) {
	dir := t.TempDir()
	opts := &NewOptions{
		Tags:    []string{"bug"},
		Tickets: []int{5001},
		Body:    "Backported fix.",
		Series:  "14",
	}

	path, err := writeFragment(dir, opts)
	require.NoError(t, err)
	assert.Contains(t, path, "unreleased_14")
}

func TestApplyFormValues(t *testing.T) {
	m := newFragmentForm()
	m.inputs[fieldTags].SetValue("bug, orm ,")
	m.inputs[fieldTickets].SetValue("#4349, 4350")
	m.inputs[fieldBody].SetValue("  Fixed a thing.  ")

	opts := &NewOptions{}
	applyFormValues(opts, &m)

	assert.Equal(t, []string{"bug", "orm"}, opts.Tags)
	assert.Equal(t, []int{4349, 4350}, opts.Tickets)
	assert.Equal(t, "Fixed a thing.", opts.Body)
}

func TestSummarizeImport(t *testing.T) {
	tests := []struct {
		name   string
		change importer.Change
		want   string
	}{
		{"tags and tickets", importer.Change{Tags: []string{"orm"}, Tickets: []int{1, 2}}, "orm, 2 tickets"},
		{"tags only", importer.Change{Tags: []string{"engine"}}, "engine"},
		{"tickets only", importer.Change{Tickets: []int{7}}, "1 tickets"},
		{"neither", importer.Change{}, "uncategorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarizeImport(tt.change))
		})
	}
}

func TestSeriesDirName(t *testing.T) {
	assert.Equal(t, "unreleased", seriesDirName(""))
	assert.Equal(t, "unreleased", seriesDirName("default"))
	assert.Equal(t, "unreleased_14", seriesDirName("14"))
}

func TestNewNewCommandFlags(t *testing.T) {
	cmd := NewNewCommand()

	for _, name := range []string{"title", "tags", "tickets"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing --%s flag", name)
	}
}

func TestComposeBody(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{"body only", "", "Fixed a thing.", "Fixed a thing."},
		{"title only", "Fixed eager loads", "", "Fixed eager loads"},
		{"title and body", "Fixed eager loads", "Eager loads were dropped.", "Fixed eager loads\n\nEager loads were dropped."},
		{"whitespace trimmed", " Fixed eager loads \n", "\nDetails.\n", "Fixed eager loads\n\nDetails."},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, composeBody(tt.title, tt.body))
		})
	}
}

func TestComposeBodyTitleDrivesFileName(t *testing.T) {
	opts := &NewOptions{Body: composeBody("Fixed eager loads", "Eager loads were dropped when ...")}
	assert.Equal(t, "fixed_eager_loads.rst", fragmentFileName(opts))
}
