// Package output renders command results as styled text, markdown or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the configured mode. Color is enabled
// only when the destination is a terminal that supports it.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}

	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	profile := termenv.Ascii
	if isTTY {
		profile = termenv.ColorProfile()
	}

	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: newStyles(profile),
	}
}

// EffectiveMode resolves ModeAuto: text on a terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the style set matched to the output terminal.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the underlying output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// Println writes a line to standard output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Success prints a success message with a check mark.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓") + " " + msg)
}

// Warning prints a warning message to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("!")+" "+msg)
}

// Error prints an error message to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗")+" "+msg)
}

// Header prints a section header at the given level.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		return
	}
	switch level {
	case 1:
		r.Println(r.styles.Header1.Render(text))
	default:
		r.Println(r.styles.Header2.Render(text))
	}
}

// StatusLine prints a name with a status indicator and optional detail,
// e.g. "  ✓ changelog/unreleased/4349.rst  (2 tickets)".
func (r *Renderer) StatusLine(name, status, detail string) {
	var mark string
	switch status {
	case "success":
		mark = r.styles.Success.Render("✓")
	case "warning":
		mark = r.styles.Warning.Render("!")
	case "error":
		mark = r.styles.Error.Render("✗")
	case "skipped":
		mark = r.styles.Muted.Render("-")
	default:
		mark = r.styles.Muted.Render("·")
	}
	line := "  " + mark + " " + name
	if detail != "" {
		line += "  " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// JSON writes v as indented JSON to standard output.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
