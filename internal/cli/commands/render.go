package commands

import (
	"fmt"
	"time"

	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/internal/release"
	"github.com/spf13/cobra"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Format  string // rst or markdown
	Version string // version heading for the preview
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render unreleased fragments as release notes",
		Long: `Compile the unreleased fragments of a series into release notes and
print them, without touching the tree. Use 'relnote release' to cut
the release for real.`,
		Example: `  # Preview release notes for the default series
  relnote render

  # Preview a maintenance series as markdown
  relnote render --series 14 --format markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Notes format: rst, markdown")
	cmd.Flags().StringVar(&opts.Version, "as-version", "unreleased", "Version heading for the preview")

	return cmd
}

func runRender(cmd *cobra.Command, opts *RenderOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	cfg := cmdCtx.Cfg
	tree := cmdCtx.Tree

	series := cfg.Series
	if series == "" {
		series = loader.DefaultSeries
	}
	files := tree.SeriesFiles(series)
	if len(files) == 0 {
		return fmt.Errorf("no unreleased fragments in series %q", series)
	}

	format := opts.Format
	var categories []string
	if cfg.Render != nil {
		if format == "" {
			format = cfg.Render.Format
		}
		categories = cfg.Render.Categories
	}

	doc := release.Compile(files, opts.Version, time.Now().Format("2006-01-02"), series,
		release.CompileOptions{Categories: categories})

	return doc.Render(cmd.OutOrStdout(), format)
}
