package fragment

import (
	"fmt"
	"strings"

	"github.com/relnote-labs/relnote/pkg/token"
)

// ParseError is a structural error the parser cannot recover from.
type ParseError struct {
	Path string
	Pos  token.Position
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Path, e.Pos, e.Msg)
}

const (
	changeDirective  = ".. change::"
	seealsoDirective = ".. seealso::"
)

// line is one source line with position bookkeeping.
type line struct {
	text   string // without trailing \r\n
	num    int    // 1-based
	offset int    // byte offset of line start
}

// indent returns the count of leading spaces. Tabs in indentation are
// rejected earlier, so a space count is sufficient.
func (l line) indent() int {
	return len(l.text) - len(strings.TrimLeft(l.text, " "))
}

func (l line) blank() bool {
	return strings.TrimSpace(l.text) == ""
}

func (l line) pos() token.Position {
	return token.Position{Line: l.num, Column: 1, Offset: l.offset}
}

// Parse parses a fragment file. CRLF line endings and a UTF-8 BOM are
// tolerated; tabs in indentation are not.
func Parse(path string, src []byte) (*File, error) {
	lines, err := splitLines(path, src)
	if err != nil {
		return nil, err
	}

	f := &File{Path: path}
	for i := 0; i < len(lines); {
		ln := lines[i]
		if ln.indent() == 0 && strings.TrimRight(ln.text, " ") == changeDirective {
			change, next, err := parseChange(path, lines, i)
			if err != nil {
				return nil, err
			}
			f.Changes = append(f.Changes, change)
			i = next
			continue
		}
		// Anything else at the top level (comments, stray prose) is not
		// part of a change block and is skipped.
		i++
	}
	return f, nil
}

// splitLines splits the source into lines, rejecting tab indentation.
func splitLines(path string, src []byte) ([]line, error) {
	text := string(src)
	text = strings.TrimPrefix(text, "\ufeff")

	var lines []line
	offset := 0
	for n, raw := range strings.Split(text, "\n") {
		clean := strings.TrimSuffix(raw, "\r")
		if strings.Contains(leadingWhitespace(clean), "\t") {
			return nil, &ParseError{
				Path: path,
				Pos:  token.Position{Line: n + 1, Column: 1, Offset: offset},
				Msg:  "tab character in indentation",
			}
		}
		lines = append(lines, line{text: clean, num: n + 1, offset: offset})
		offset += len(raw) + 1
	}
	return lines, nil
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// parseChange parses one change block starting at the directive line.
// Returns the change and the index of the first line after the block.
func parseChange(path string, lines []line, start int) (*Change, int, error) {
	c := &Change{
		Span: token.Span{Start: lines[start].pos()},
	}

	// Collect the block: lines after the directive that are blank or
	// indented. A non-blank line at column one ends the block.
	end := start + 1
	for end < len(lines) {
		ln := lines[end]
		if !ln.blank() && ln.indent() == 0 {
			break
		}
		end++
	}
	block := lines[start+1 : end]
	c.Span.End = token.Position{Line: lines[end-1].num, Column: 1, Offset: lines[end-1].offset}

	// Block indentation is set by the first non-blank line.
	blockIndent := -1
	for _, ln := range block {
		if !ln.blank() {
			blockIndent = ln.indent()
			break
		}
	}
	if blockIndent < 0 {
		// Empty block: no fields, no body.
		return c, end, nil
	}

	i := 0
	// Skip leading blanks.
	for i < len(block) && block[i].blank() {
		i++
	}

	// Field section: ":name: value" lines at block indentation, with
	// continuation lines indented deeper. Ends at the first blank line or
	// the first non-field line.
	var lastField *Field
	fields := []Field{}
	for i < len(block) {
		ln := block[i]
		if ln.blank() {
			i++
			break
		}
		name, value, ok := parseFieldLine(ln, blockIndent)
		switch {
		case ok:
			fields = append(fields, Field{Name: name, Raw: value, Pos: ln.pos()})
			lastField = &fields[len(fields)-1]
			i++
		case lastField != nil && ln.indent() > blockIndent:
			// Wrapped field value.
			lastField.Raw = strings.TrimSpace(lastField.Raw + " " + strings.TrimSpace(ln.text))
			i++
		default:
			// Body starts without a separating blank line.
			lastField = nil
			goto body
		}
	}

body:
	for _, fld := range fields {
		switch fld.Name {
		case FieldTags:
			c.Tags = dedupe(splitList(fld.Raw))
		case FieldTickets:
			c.Tickets = parseTickets(fld.Raw)
		case FieldVersions:
			c.Versions = splitList(fld.Raw)
		case FieldPullReq:
			c.PullRequests = splitList(fld.Raw)
		default:
			c.Extra = append(c.Extra, fld)
		}
	}

	if err := parseBody(c, block[i:], blockIndent); err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, 0, err
	}
	return c, end, nil
}

// parseFieldLine matches ":name: value" at exactly the block indentation.
func parseFieldLine(ln line, blockIndent int) (name, value string, ok bool) {
	if ln.indent() != blockIndent {
		return "", "", false
	}
	rest := ln.text[blockIndent:]
	if !strings.HasPrefix(rest, ":") {
		return "", "", false
	}
	sep := strings.Index(rest[1:], ":")
	if sep < 0 {
		return "", "", false
	}
	name = rest[1 : sep+1]
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return name, strings.TrimSpace(rest[sep+2:]), true
}

// parseBody assembles the body text and extracts seealso entries.
func parseBody(c *Change, body []line, blockIndent int) error {
	var out []string
	i := 0
	for i < len(body) {
		ln := body[i]
		if ln.blank() {
			out = append(out, "")
			i++
			continue
		}
		if ln.indent() < blockIndent {
			return &ParseError{
				Pos: ln.pos(),
				Msg: fmt.Sprintf("body line indented less than the directive block (%d < %d)", ln.indent(), blockIndent),
			}
		}
		dedented := ln.text[blockIndent:]
		if strings.TrimRight(dedented, " ") == seealsoDirective {
			i = parseSeeAlso(c, body, i+1, blockIndent)
			continue
		}
		out = append(out, strings.TrimRight(dedented, " "))
		i++
	}
	c.Body = strings.TrimSpace(strings.Join(out, "\n"))
	// Collapse runs of blank lines left behind by seealso extraction.
	c.Body = collapseBlankRuns(c.Body)
	return nil
}

// parseSeeAlso consumes the indented lines following a seealso directive.
// Each non-blank line is one entry. The sub-block ends at the first
// non-blank line at or below the body indentation.
func parseSeeAlso(c *Change, body []line, start, blockIndent int) int {
	i := start
	for i < len(body) {
		ln := body[i]
		if ln.blank() {
			i++
			continue
		}
		if ln.indent() <= blockIndent {
			break
		}
		c.SeeAlso = append(c.SeeAlso, strings.TrimSpace(ln.text))
		i++
	}
	return i
}

func collapseBlankRuns(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
