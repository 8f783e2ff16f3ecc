package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/pkg/fragment"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unreleased changelog fragments",
		Long: `List all unreleased changelog fragments grouped by series.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all fragments
  relnote list

  # List fragments for one series
  relnote list --series 14

  # Output as JSON
  relnote list -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	tree := cmdCtx.Tree
	r := cmdCtx.Renderer

	series := cmdCtx.Cfg.Series
	infos := collectFragmentInfos(tree, series)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listJSON(r, tree, infos)
	case output.ModeMarkdown:
		return listMarkdown(r, infos)
	default:
		return listText(r, tree, infos)
	}
}

func collectFragmentInfos(tree *loader.Tree, series string) []output.FragmentInfo {
	var files []*fragment.File
	if series != "" {
		files = tree.SeriesFiles(series)
	} else {
		files = tree.Files()
	}

	infos := make([]output.FragmentInfo, 0, len(files))
	for _, f := range files {
		info := output.FragmentInfo{
			Path:   f.Path,
			Series: tree.SeriesOf(f),
		}
		if c := f.Change(); c != nil {
			info.Title = c.Title()
			info.Tags = c.Tags
			info.Tickets = c.NumericTickets()
		}
		infos = append(infos, info)
	}
	return infos
}

func listText(r *output.Renderer, tree *loader.Tree, infos []output.FragmentInfo) error {
	r.Header(1, fmt.Sprintf("Fragments (%d total)", len(infos)))

	if len(infos) == 0 {
		r.Println("No unreleased fragments. Create one with 'relnote new'.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Series", "Tags", "Tickets", "Title"})

	for _, info := range infos {
		t.AppendRow(table.Row{
			info.Path,
			info.Series,
			strings.Join(info.Tags, ", "),
			joinTickets(info.Tickets),
			truncateOneLine(info.Title, 60),
		})
	}
	t.Render()

	if failures := tree.ParseFailures(); len(failures) > 0 {
		r.Println("")
		r.Warning(fmt.Sprintf("%d files failed to parse; run 'relnote lint' for details", len(failures)))
	}
	return nil
}

func listMarkdown(r *output.Renderer, infos []output.FragmentInfo) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Fragments (%d total)", len(infos))))
	r.Println("")

	currentSeries := ""
	for _, info := range infos {
		if info.Series != currentSeries {
			currentSeries = info.Series
			r.Println(output.FormatHeader(2, "Series "+currentSeries))
			r.Println("")
		}
		line := fmt.Sprintf("- `%s`", info.Path)
		if info.Title != "" {
			line += " - " + truncateOneLine(info.Title, 80)
		}
		if len(info.Tickets) > 0 {
			line += " (#" + joinTickets(info.Tickets) + ")"
		}
		r.Println(line)
	}

	r.Println("")
	return nil
}

func listJSON(r *output.Renderer, tree *loader.Tree, infos []output.FragmentInfo) error {
	doc := output.ListOutput{
		Fragments: infos,
		Summary: output.ListSummary{
			Fragments: len(infos),
			Series:    len(tree.SeriesNames()),
		},
	}
	return r.JSON(doc)
}

func joinTickets(tickets []int) string {
	parts := make([]string, len(tickets))
	for i, t := range tickets {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ", ")
}
