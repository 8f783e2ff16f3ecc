package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/spf13/cobra"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Tag string // Look up by tag instead of ticket
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}
	cmd := &cobra.Command{
		Use:   "show [ticket]",
		Short: "Show fragments referencing a ticket or tag",
		Long: `Look up changelog fragments by ticket number or tag.

Lookups go through the index database; run 'relnote index' after
editing fragments to refresh it.`,
		Example: `  # Show fragments for ticket 4349
  relnote show 4349

  # Show fragments tagged "orm"
  relnote show --tag orm`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.Tag == "" {
				return fmt.Errorf("a ticket number or --tag is required")
			}
			ticket := 0
			if len(args) > 0 {
				var err error
				ticket, err = strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid ticket number %q", args[0])
				}
			}
			return runShow(cmd, ticket, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Look up fragments by tag")

	return cmd
}

func runShow(cmd *cobra.Command, ticket int, opts *ShowOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if cfg.StatePath != ":memory:" {
		if _, err := os.Stat(cfg.StatePath); err != nil {
			return fmt.Errorf("index database not found at %s; run 'relnote index' first", cfg.StatePath)
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var frags []*core.IndexedFragment
	var what string
	if opts.Tag != "" {
		frags, err = store.FragmentsByTag(opts.Tag)
		what = fmt.Sprintf("tag %q", opts.Tag)
	} else {
		frags, err = store.FragmentsByTicket(ticket)
		what = fmt.Sprintf("ticket #%d", ticket)
	}
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]output.FragmentInfo, 0, len(frags))
		for _, f := range frags {
			infos = append(infos, output.FragmentInfo{
				Path:    f.Path,
				Series:  f.Series,
				Title:   f.Title,
				Tags:    f.Tags,
				Tickets: f.Tickets,
			})
		}
		return r.JSON(output.ListOutput{
			Fragments: infos,
			Summary:   output.ListSummary{Fragments: len(infos)},
		})
	}

	if len(frags) == 0 {
		r.Printf("No fragments found for %s\n", what)
		return nil
	}

	r.Header(1, fmt.Sprintf("Fragments for %s (%d)", what, len(frags)))
	r.Println("")
	for _, f := range frags {
		r.Println(r.Styles().FragmentPath.Render(f.Path))
		r.Printf("  %s: %s\n", r.Styles().Bold.Render("Series"), f.Series)
		if len(f.Tags) > 0 {
			r.Printf("  %s: %s\n", r.Styles().Bold.Render("Tags"), r.Styles().Tag.Render(strings.Join(f.Tags, ", ")))
		}
		if len(f.Tickets) > 0 {
			r.Printf("  %s: #%s\n", r.Styles().Bold.Render("Tickets"), joinTickets(f.Tickets))
		}
		if f.Body != "" {
			r.Println("")
			for _, line := range strings.Split(strings.TrimRight(f.Body, "\n"), "\n") {
				r.Println("  " + line)
			}
		}
		r.Println("")
	}
	return nil
}
