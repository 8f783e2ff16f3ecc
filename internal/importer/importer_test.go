package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyNotes = `<!DOCTYPE html>
<html><body>
<h1>1.3.24 Release Notes</h1>
<h2>orm</h2>
<ul>
<li><p>Fixed regression where eager loads were dropped when a
<code>selectinload</code> option was combined with a joined load.</p>
<p>References: <a href="#4349">#4349</a>, <a href="#4350">#4350</a></p></li>
<li><p>Improved the error message raised when a mapped class is
garbage collected.</p></li>
</ul>
<h2>engine</h2>
<ul>
<li><p>Repaired connection pool recycling under high concurrency.
See <a href="#5001">#5001</a> for details.</p></li>
</ul>
</body></html>`

func TestParseLegacyNotes(t *testing.T) {
	changes, err := Parse(strings.NewReader(legacyNotes))
	require.NoError(t, err)
	require.Len(t, changes, 3)

	first := changes[0]
	assert.Equal(t, []string{"orm"}, first.Tags)
	assert.Equal(t, []int{4349, 4350}, first.Tickets)
	assert.Contains(t, first.Body, "Fixed regression where eager loads were dropped")
	assert.NotContains(t, first.Body, "References:")

	second := changes[1]
	assert.Equal(t, []string{"orm"}, second.Tags)
	assert.Empty(t, second.Tickets)

	third := changes[2]
	assert.Equal(t, []string{"engine"}, third.Tags)
	assert.Equal(t, []int{5001}, third.Tickets)
}

func TestParseNestedListStaysOneChange(t *testing.T) {
	doc := `<html><body><h2>sql</h2><ul>
<li><p>Reworked operator precedence:</p>
<ul><li>comparison operators</li><li>boolean operators</li></ul>
<p>See <a href="#9999">#9999</a>.</p></li>
</ul></body></html>`

	changes, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, []int{9999}, changes[0].Tickets)
	assert.Contains(t, changes[0].Body, "comparison operators")
}

func TestParseNoChanges(t *testing.T) {
	changes, err := Parse(strings.NewReader("<html><body><p>nothing here</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestExtractTicketsDedupes(t *testing.T) {
	got := extractTickets("see #42 and #42 and #7")
	assert.Equal(t, []int{7, 42}, got)
}

func TestCategoryFromHeading(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"orm", "orm"},
		{"ORM", "orm"},
		{"Bug Fixes - ORM", "bug"},
		{"engine¶", "engine"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categoryFromHeading(tt.heading), tt.heading)
	}
}
