package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/importer"
	"github.com/relnote-labs/relnote/internal/loader"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Series string
	DryRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file.html>",
		Short: "Import changes from a legacy HTML release-notes document",
		Long: `Split a rendered HTML release-notes document into change items and
write one fragment file per item into the unreleased directory.

Tickets referenced as #NNNN and the category heading above each item
are recovered where possible; imported fragments should be reviewed
and linted before release.`,
		Example: `  # Import a legacy notes page
  relnote import docs/changelog_13.html

  # Preview without writing files
  relnote import docs/changelog_13.html --dry-run

  # Import into a maintenance series
  relnote import docs/changelog_13.html --into-series 13`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Series, "into-series", "", "Target series (default: configured series)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse and report without writing files")

	return cmd
}

func runImport(cmd *cobra.Command, path string, opts *ImportOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	f, err := os.Open(path) //nolint:gosec // G304: user-supplied input file
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	changes, err := importer.Parse(f)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return fmt.Errorf("no change items found in %s", path)
	}

	series := opts.Series
	if series == "" {
		series = cfg.Series
	}
	if series == "" {
		series = loader.DefaultSeries
	}

	written, skipped := 0, 0
	for _, change := range changes {
		frag := &NewOptions{
			Tags:    change.Tags,
			Tickets: change.Tickets,
			Body:    change.Body,
			Series:  series,
		}
		name := fragmentFileName(frag)

		if opts.DryRun {
			r.StatusLine(name, "skipped", summarizeImport(change))
			continue
		}

		fragPath, err := writeFragment(cfg.ChangelogDir, frag)
		if err != nil {
			// Collisions are expected when re-importing; keep going.
			logger.Warn("skipping fragment", "file", name, "error", err)
			r.StatusLine(name, "warning", "already exists, skipped")
			skipped++
			continue
		}
		r.StatusLine(name, "success", summarizeImport(change))
		logger.Debug("imported fragment", "path", fragPath)
		written++
	}

	if opts.DryRun {
		r.Println(fmt.Sprintf("\nDry run: %d change items found in %s", len(changes), path))
		return nil
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{
			"source":  path,
			"series":  series,
			"written": written,
			"skipped": skipped,
		})
	}

	r.Println("")
	r.Success(fmt.Sprintf("Imported %d fragments into %s", written,
		filepath.Join(cfg.ChangelogDir, seriesDirName(series))))
	if skipped > 0 {
		r.Warning(fmt.Sprintf("%d fragments already existed and were skipped", skipped))
	}
	r.Println("Run 'relnote lint' to review the imported fragments.")
	return nil
}

// summarizeImport builds the status detail for one imported change.
func summarizeImport(c importer.Change) string {
	switch {
	case len(c.Tags) > 0 && len(c.Tickets) > 0:
		return fmt.Sprintf("%s, %d tickets", c.Tags[0], len(c.Tickets))
	case len(c.Tags) > 0:
		return c.Tags[0]
	case len(c.Tickets) > 0:
		return fmt.Sprintf("%d tickets", len(c.Tickets))
	default:
		return "uncategorized"
	}
}

// seriesDirName maps a series to its fragment directory name.
func seriesDirName(series string) string {
	if series == "" || series == loader.DefaultSeries {
		return "unreleased"
	}
	return "unreleased_" + series
}
