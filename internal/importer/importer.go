// Package importer converts legacy HTML release-notes documents into
// changelog fragment data.
//
// Rendered changelogs group change items as list entries under category
// headings. The importer walks the HTML tree, treats each top-level <li> as
// one change, converts its content to Markdown, and recovers tickets and the
// category tag from the surrounding markup.
package importer

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Change is one imported change item.
type Change struct {
	Tags    []string
	Tickets []int
	Body    string
}

var (
	reTicketRef     = regexp.MustCompile(`#(\d+)`)
	reReferences    = regexp.MustCompile(`(?mi)^\s*references:.*$`)
	reAnchorLink    = regexp.MustCompile(`\s*\[¶\]\([^)]*\)`)
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
	reCategoryChars = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Parse reads an HTML release-notes document and extracts its change items.
func Parse(r io.Reader) ([]Change, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var changes []Change
	var walk func(n *html.Node, category string) error
	walk = func(n *html.Node, category string) error {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				switch c.Data {
				case "h1", "h2", "h3", "h4":
					category = categoryFromHeading(textContent(c))
					continue
				case "li":
					change, err := changeFromItem(c, category)
					if err != nil {
						return err
					}
					if change != nil {
						changes = append(changes, *change)
					}
					// A change item may carry nested lists; they belong to
					// the change body, not to the document structure.
					continue
				}
			}
			if err := walk(c, category); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(doc, ""); err != nil {
		return nil, err
	}
	return changes, nil
}

// changeFromItem converts one list item into a Change. Items whose converted
// body is empty are dropped.
func changeFromItem(n *html.Node, category string) (*Change, error) {
	var raw strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&raw, c); err != nil {
			return nil, fmt.Errorf("failed to render change item: %w", err)
		}
	}

	md, err := htmltomarkdown.ConvertString(raw.String())
	if err != nil {
		return nil, fmt.Errorf("failed to convert change item: %w", err)
	}

	tickets := extractTickets(md)
	body := cleanBody(md)
	if body == "" {
		return nil, nil
	}

	change := &Change{Tickets: tickets, Body: body}
	if category != "" {
		change.Tags = []string{category}
	}
	return change, nil
}

// extractTickets collects ticket numbers referenced as #NNNN, de-duplicated
// and sorted.
func extractTickets(text string) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, m := range reTicketRef.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// cleanBody strips reference lines and permalink anchors that only made
// sense in the rendered document.
func cleanBody(md string) string {
	md = reReferences.ReplaceAllString(md, "")
	md = reAnchorLink.ReplaceAllString(md, "")
	md = reBlankRuns.ReplaceAllString(md, "\n\n")

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// categoryFromHeading maps a section heading to a tag. Headings like
// "orm" or "Bug Fixes - ORM" reduce to their leading word.
func categoryFromHeading(heading string) string {
	heading = strings.ToLower(strings.TrimSpace(heading))
	if heading == "" {
		return ""
	}
	if i := strings.IndexAny(heading, " -¶"); i >= 0 {
		heading = heading[:i]
	}
	return reCategoryChars.ReplaceAllString(heading, "")
}

// textContent returns the concatenated text of a node and its children.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.TrimSpace(sb.String())
}
