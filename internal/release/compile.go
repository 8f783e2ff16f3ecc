// Package release compiles unreleased changelog fragments into per-version
// release notes and cuts releases from the fragment tree.
package release

import (
	"embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/relnote-labs/relnote/pkg/fragment"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Output formats.
const (
	FormatRST      = "rst"
	FormatMarkdown = "markdown"
)

// headings maps change categories to section headings. Categories without a
// mapping get a language-aware title-cased form of the tag itself.
var headings = map[string]string{
	"bug":         "Bug Fixes",
	"feature":     "New Features",
	"usecase":     "Use Case Changes",
	"change":      "Changes",
	"performance": "Performance",
	"deprecated":  "Deprecations",
	"removed":     "Removed",
	"moved":       "Moved",
}

// uncategorized is the bucket for changes without tags.
const uncategorized = "misc"

var titleCaser = cases.Title(language.English)

// Entry is one change prepared for rendering.
type Entry struct {
	Category string
	Tags     []string
	Tickets  []int
	Body     string
	SeeAlso  []string
	Path     string
}

// Section groups entries of one category.
type Section struct {
	Category string
	Title    string
	Entries  []Entry
}

// Document is a compiled set of release notes.
type Document struct {
	Version  string
	Date     string
	Series   string
	Sections []Section
}

// CompileOptions controls grouping and ordering.
type CompileOptions struct {
	// Categories fixes the section order. Categories not listed are
	// appended alphabetically.
	Categories []string
}

// Compile groups fragment changes into a renderable document. Entries are
// ordered by first ticket, then source path, so output is stable across
// filesystems.
func Compile(files []*fragment.File, version, date, series string, opts CompileOptions) *Document {
	byCategory := make(map[string][]Entry)
	for _, f := range files {
		for _, c := range f.Changes {
			cat := c.Category()
			if cat == "" {
				cat = uncategorized
			}
			byCategory[cat] = append(byCategory[cat], Entry{
				Category: cat,
				Tags:     c.Tags,
				Tickets:  c.NumericTickets(),
				Body:     c.Body,
				SeeAlso:  c.SeeAlso,
				Path:     f.Path,
			})
		}
	}

	for cat := range byCategory {
		entries := byCategory[cat]
		sort.Slice(entries, func(i, j int) bool {
			ti, tj := firstTicket(entries[i]), firstTicket(entries[j])
			if ti != tj {
				return ti < tj
			}
			return entries[i].Path < entries[j].Path
		})
		byCategory[cat] = entries
	}

	doc := &Document{Version: version, Date: date, Series: series}
	for _, cat := range sectionOrder(byCategory, opts.Categories) {
		doc.Sections = append(doc.Sections, Section{
			Category: cat,
			Title:    headingFor(cat),
			Entries:  byCategory[cat],
		})
	}
	return doc
}

// firstTicket returns the entry's first ticket, or a large sentinel so
// ticketless entries sort last.
func firstTicket(e Entry) int {
	if len(e.Tickets) == 0 {
		return 1 << 30
	}
	return e.Tickets[0]
}

// sectionOrder returns present categories: configured order first, the rest
// alphabetically.
func sectionOrder(byCategory map[string][]Entry, configured []string) []string {
	var out []string
	used := make(map[string]struct{})
	for _, cat := range configured {
		if _, ok := byCategory[cat]; ok {
			out = append(out, cat)
			used[cat] = struct{}{}
		}
	}

	var rest []string
	for cat := range byCategory {
		if _, ok := used[cat]; !ok {
			rest = append(rest, cat)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// headingFor maps a category to its section heading.
func headingFor(category string) string {
	if h, ok := headings[category]; ok {
		return h
	}
	return titleCaser.String(strings.ReplaceAll(category, "_", " "))
}

// templateFuncs are shared by the rst and markdown templates.
var templateFuncs = template.FuncMap{
	"underline": func(char, s string) string {
		return strings.Repeat(char, len(s))
	},
	"indent": func(n int, s string) string {
		pad := strings.Repeat(" ", n)
		lines := strings.Split(s, "\n")
		for i := 1; i < len(lines); i++ {
			if lines[i] != "" {
				lines[i] = pad + lines[i]
			}
		}
		return strings.Join(lines, "\n")
	},
	"tickets": func(tickets []int) string {
		parts := make([]string, 0, len(tickets))
		for _, t := range tickets {
			parts = append(parts, fmt.Sprintf("#%d", t))
		}
		return strings.Join(parts, ", ")
	},
	"join": strings.Join,
}

var templates = template.Must(
	template.New("release").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl"),
)

// Render writes the document in the given format.
func (d *Document) Render(w io.Writer, format string) error {
	var name string
	switch format {
	case FormatRST, "":
		name = "notes.rst.tmpl"
	case FormatMarkdown, "md":
		name = "notes.md.tmpl"
	default:
		return fmt.Errorf("unknown output format %q (want rst or markdown)", format)
	}
	if err := templates.ExecuteTemplate(w, name, d); err != nil {
		return fmt.Errorf("failed to render release notes: %w", err)
	}
	return nil
}
