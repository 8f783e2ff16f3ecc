// Package fragment parses changelog fragment files.
//
// A fragment file holds one ".. change::" directive block with field markup
// and a free-text body:
//
//	.. change::
//	    :tags: bug, orm
//	    :tickets: 4349
//
//	    Fixed regression where ...
//
//	    .. seealso::
//
//	        :ref:`change_4349`
//
// The parser is deliberately lenient: structural oddities (missing blocks,
// duplicate blocks, unknown fields, non-numeric tickets) are preserved in the
// parse result so that lint rules can report them with positions instead of
// the parser failing outright.
package fragment

import (
	"strconv"
	"strings"

	"github.com/relnote-labs/relnote/pkg/token"
)

// Recognized field names on a change directive.
const (
	FieldTags     = "tags"
	FieldTickets  = "tickets"
	FieldVersions = "versions"
	FieldPullReq  = "pullreq"
)

// Ticket is a single :tickets: value. The raw text is kept so lint can
// report non-numeric values without losing data.
type Ticket struct {
	Raw       string
	Number    int
	IsNumeric bool
}

// Field is a directive field that the parser does not interpret.
type Field struct {
	Name string
	Raw  string
	Pos  token.Position
}

// Change is one parsed ".. change::" block.
type Change struct {
	Tags         []string // ordered, de-duplicated
	Tickets      []Ticket // order-preserving, duplicates kept
	Versions     []string
	PullRequests []string
	Body         string   // dedented, paragraph structure preserved
	SeeAlso      []string // one entry per non-blank seealso line
	Extra        []Field  // unrecognized fields
	Span         token.Span
}

// Category returns the change category, by convention the first tag.
func (c *Change) Category() string {
	if len(c.Tags) == 0 {
		return ""
	}
	return c.Tags[0]
}

// HasTag reports whether the change carries the given tag.
func (c *Change) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NumericTickets returns the parsed ticket numbers, skipping invalid values.
func (c *Change) NumericTickets() []int {
	var out []int
	for _, t := range c.Tickets {
		if t.IsNumeric {
			out = append(out, t.Number)
		}
	}
	return out
}

// Title returns the first sentence-ish line of the body, for listings.
func (c *Change) Title() string {
	for _, line := range strings.Split(c.Body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// File is a parsed fragment file. A well-formed file has exactly one change;
// zero or several are representable so lint can flag them.
type File struct {
	Path    string
	Changes []*Change
}

// Change returns the file's single change block, or nil if the file does not
// have exactly one.
func (f *File) Change() *Change {
	if len(f.Changes) != 1 {
		return nil
	}
	return f.Changes[0]
}

// splitList splits a comma-separated field value, trimming whitespace and
// dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTickets parses a :tickets: value into Ticket records.
func parseTickets(raw string) []Ticket {
	var out []Ticket
	for _, item := range splitList(raw) {
		n, err := strconv.Atoi(item)
		out = append(out, Ticket{Raw: item, Number: n, IsNumeric: err == nil})
	}
	return out
}

// dedupe removes repeated items while preserving first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
