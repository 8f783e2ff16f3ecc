package commands

import (
	"fmt"

	"github.com/relnote-labs/relnote/internal/cli/output"
	"github.com/relnote-labs/relnote/internal/state"
	"github.com/spf13/cobra"
)

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the fragment index database",
		Long: `Parse the changelog tree and rebuild the SQLite index used by
'relnote show' and 'relnote query'. The unreleased rows are replaced
wholesale on every run.`,
		Example: `  # Rebuild the index
  relnote index

  # Index into an explicit database file
  relnote index --state .relnote/index.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd)
		},
	}

	return cmd
}

func runIndex(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	cfg := cmdCtx.Cfg
	tree := cmdCtx.Tree
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.BeginIndexRun()
	if err != nil {
		return err
	}
	logger.Debug("index run started", "run_id", run.ID)

	rows, err := state.RowsFromTree(tree)
	if err == nil {
		err = store.ReplaceFragments(rows)
	}
	if finishErr := store.FinishIndexRun(run, len(rows), err); finishErr != nil {
		logger.Warn("failed to finish index run", "error", finishErr)
	}
	if err != nil {
		return fmt.Errorf("index run failed: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.IndexOutput{
			RunID:     run.ID,
			Status:    string(run.Status),
			Fragments: run.Fragments,
			StatePath: cfg.StatePath,
		})
	}

	r.Success(fmt.Sprintf("Indexed %d fragments into %s", len(rows), cfg.StatePath))
	if failures := tree.ParseFailures(); len(failures) > 0 {
		r.Warning(fmt.Sprintf("%d files failed to parse and were not indexed", len(failures)))
	}
	return nil
}
