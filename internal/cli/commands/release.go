package commands

import (
	"fmt"
	"time"

	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/internal/release"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/relnote-labs/relnote/pkg/lint"
	"github.com/spf13/cobra"
)

// ReleaseOptions holds options for the release command.
type ReleaseOptions struct {
	Date   string
	Format string
	Force  bool // Cut even when lint reports errors
	DryRun bool
}

// NewReleaseCommand creates the release command.
func NewReleaseCommand() *cobra.Command {
	opts := &ReleaseOptions{}
	cmd := &cobra.Command{
		Use:   "release <version>",
		Short: "Cut a release from unreleased fragments",
		Long: `Compile the unreleased fragments of a series into a versioned notes
file, remove the consumed fragments, and record the version in the
release manifest.

The tree is linted first; lint errors block the cut unless --force
is given.`,
		Example: `  # Cut 1.4.0 from the default series
  relnote release 1.4.0

  # Cut a maintenance release
  relnote release 1.3.25 --series 14

  # Preview without touching the tree
  relnote release 1.4.0 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "Release date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Notes format: rst, markdown")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Cut even when lint reports errors")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Compile without touching the tree")

	return cmd
}

func runRelease(cmd *cobra.Command, version string, opts *ReleaseOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	cfg := cmdCtx.Cfg
	tree := cmdCtx.Tree
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	series := cfg.Series
	if series == "" {
		series = loader.DefaultSeries
	}

	// Lint gate: errors block the cut.
	if !opts.Force {
		diags, err := collectDiagnostics(cmdCtx, &LintOptions{})
		if err != nil {
			return err
		}
		if lint.HasAtOrAbove(diags, core.SeverityError) {
			lint.Sort(diags)
			renderLintResults(r, lint.FilterMin(diags, core.SeverityError))
			return fmt.Errorf("lint errors present; fix them or pass --force")
		}
	}

	date := opts.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	format := opts.Format
	var categories []string
	if cfg.Render != nil {
		if format == "" {
			format = cfg.Render.Format
		}
		categories = cfg.Render.Categories
	}

	result, err := release.Cut(tree, release.CutOptions{
		Version: version,
		Date:    date,
		Series:  series,
		Format:  format,
		Compile: release.CompileOptions{Categories: categories},
		DryRun:  opts.DryRun,
	})
	if err != nil {
		return err
	}

	if opts.DryRun {
		r.Header(1, fmt.Sprintf("Dry run: %s (%d fragments)", version, result.Fragments))
		r.Println("")
		return result.Document.Render(cmd.OutOrStdout(), format)
	}

	// Record the release in the index so 'relnote query' sees it. Failure
	// here is not fatal; the manifest is the source of truth.
	if store, err := openStore(cfg); err == nil {
		if err := store.RecordRelease(&core.Release{Version: version, Date: date, Series: series}); err != nil {
			logger.Warn("failed to record release in index", "error", err)
		}
		_ = store.Close()
	} else {
		logger.Warn("failed to open index database", "error", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.ReleaseInfo{
			Version:   version,
			Date:      date,
			Series:    series,
			Path:      result.Path,
			Fragments: result.Fragments,
		})
	}

	r.Success(fmt.Sprintf("Released %s: %d fragments compiled into %s", version, result.Fragments, result.Path))
	return nil
}
