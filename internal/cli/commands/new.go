package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/spf13/cobra"
)

// NewOptions holds options for the new command.
type NewOptions struct {
	Title   string
	Tags    []string
	Tickets []int
	Body    string
	Series  string
}

// fragmentTemplate renders a new fragment file.
const fragmentTemplate = `.. change::
    :tags: {{join .Tags ", "}}
{{- if .Tickets}}
    :tickets: {{joinInts .Tickets ", "}}
{{- end}}

{{indent .Body}}
`

// NewNewCommand creates the new command.
func NewNewCommand() *cobra.Command {
	opts := &NewOptions{}
	var ticketsFlag []string

	cmd := &cobra.Command{
		Use:   "new [body]",
		Short: "Create a changelog fragment",
		Long: `Create a new changelog fragment file in the unreleased directory.

The file is named after the first ticket number. With no flags and a
terminal attached, an interactive form collects the fields.`,
		Example: `  # Interactive form
  relnote new

  # Fully specified
  relnote new --tags bug,orm --tickets 4349 "Fixed a thing."

  # Summary line plus a longer body
  relnote new --tags bug --title "Fixed eager loads" "Eager loads were dropped when ..."

  # Fragment for a maintenance series
  relnote new --series 14 --tags bug --tickets 5001 "Backported fix."`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Body = args[0]
			}
			opts.Body = composeBody(opts.Title, opts.Body)
			for _, raw := range ticketsFlag {
				n, err := strconv.Atoi(strings.TrimSpace(raw))
				if err != nil {
					return fmt.Errorf("invalid ticket number %q", raw)
				}
				opts.Tickets = append(opts.Tickets, n)
			}
			return runNew(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "Summary line (becomes the first line of the body)")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "Comma-separated tags (first is the category)")
	cmd.Flags().StringSliceVar(&ticketsFlag, "tickets", nil, "Comma-separated ticket numbers")

	return cmd
}

// composeBody joins the summary line and the body into the fragment text.
// The title becomes the first line, which also drives the file name slug.
func composeBody(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n\n" + body
	}
}

func runNew(cmd *cobra.Command, opts *NewOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	opts.Series = cfg.Series

	// Interactive form when nothing was provided and a terminal is attached.
	if opts.Body == "" && len(opts.Tags) == 0 && len(opts.Tickets) == 0 {
		if !r.IsTTY() {
			return fmt.Errorf("fragment body required; pass it as an argument or run interactively")
		}
		form, err := runNewForm(opts)
		if err != nil {
			return err
		}
		if !form.done {
			r.Println("Cancelled.")
			return nil
		}
		applyFormValues(opts, form)
	}

	if strings.TrimSpace(opts.Body) == "" {
		return fmt.Errorf("fragment body must not be empty")
	}

	path, err := writeFragment(cfg.ChangelogDir, opts)
	if err != nil {
		return err
	}

	rel := path
	if p, err := filepath.Rel(cfg.ProjectRoot, path); err == nil && cfg.ProjectRoot != "" {
		rel = p
	}
	r.Success(fmt.Sprintf("Created %s", rel))
	return nil
}

// writeFragment renders and writes the fragment file, returning its path.
func writeFragment(changelogDir string, opts *NewOptions) (string, error) {
	dirName := "unreleased"
	if opts.Series != "" && opts.Series != loader.DefaultSeries {
		dirName = "unreleased_" + opts.Series
	}
	dir := filepath.Join(changelogDir, dirName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create fragment directory: %w", err)
	}

	path := filepath.Join(dir, fragmentFileName(opts))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("fragment %s already exists", path)
	}

	tmpl := template.Must(template.New("fragment").Funcs(template.FuncMap{
		"join": strings.Join,
		"joinInts": func(ns []int, sep string) string {
			parts := make([]string, len(ns))
			for i, n := range ns {
				parts[i] = strconv.Itoa(n)
			}
			return strings.Join(parts, sep)
		},
		"indent": func(s string) string {
			lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
			for i, line := range lines {
				if line != "" {
					lines[i] = "    " + line
				}
			}
			return strings.Join(lines, "\n")
		},
	}).Parse(fragmentTemplate))

	var buf strings.Builder
	if err := tmpl.Execute(&buf, opts); err != nil {
		return "", fmt.Errorf("failed to render fragment: %w", err)
	}

	if err := os.WriteFile(path, []byte(buf.String()), 0600); err != nil {
		return "", fmt.Errorf("failed to write fragment: %w", err)
	}
	return path, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// fragmentFileName names the file after the first ticket, falling back to a
// slug of the body's first line.
func fragmentFileName(opts *NewOptions) string {
	if len(opts.Tickets) > 0 {
		return strconv.Itoa(opts.Tickets[0]) + ".rst"
	}

	first := opts.Body
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(first), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "change"
	}
	return slug + ".rst"
}
