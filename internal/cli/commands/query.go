package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	// sqlite driver for index database queries.
	_ "modernc.org/sqlite"
)

// openIndexDBReadOnly opens the index database in read-only mode.
func openIndexDBReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the fragment index database",
		Long: `Query the relnote index database directly.

Execute SQL against the index to inspect fragments, tags, tickets and
releases. Supports multiple output formats for scripting.

When invoked without arguments on a terminal, enters interactive REPL
mode.`,
		Example: `  # Execute SQL directly
  relnote query "SELECT path, series FROM fragments"

  # List available tables
  relnote query tables

  # Show schema for a table
  relnote query schema fragments

  # Search fragment text
  relnote query search "eager load"

  # Output as JSON
  relnote query "SELECT * FROM releases" --format json

  # Interactive mode
  relnote query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))
	cmd.AddCommand(newQuerySearchCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContextWithoutTree(cmd)
	statePath := cmdCtx.Cfg.StatePath

	if statePath != ":memory:" {
		if _, err := os.Stat(statePath); os.IsNotExist(err) {
			return fmt.Errorf("index database not found at %s (run 'relnote index' first)", statePath)
		}
	}

	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, statePath, opts)
	}

	return executeAndRender(cmd.Context(), cmd, statePath, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, statePath, sqlQuery, format string) error {
	db, err := openIndexDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List all tables in the index database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutTree(cmd)
			db, err := openIndexDBReadOnly(cmdCtx.Cfg.StatePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close() }()
			return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutTree(cmd)
			db, err := openIndexDBReadOnly(cmdCtx.Cfg.StatePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = db.Close() }()
			return showSchemaFromDB(cmd.Context(), cmd.OutOrStdout(), db, args[0], opts.Format)
		},
	}
}

// newQuerySearchCommand creates the search subcommand.
func newQuerySearchCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search fragment text",
		Long:  `Search indexed fragments by title, body and path.`,
		Example: `  relnote query search "eager load"
  relnote query search "pool" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutTree(cmd)
			return searchFragments(cmd, cmdCtx.Cfg.StatePath, args[0], opts.Format)
		},
	}
}

func searchFragments(cmd *cobra.Command, statePath, term, format string) error {
	query := `
		SELECT path, series, title
		FROM fragments
		WHERE title LIKE '%' || ? || '%'
		   OR body  LIKE '%' || ? || '%'
		   OR path  LIKE '%' || ? || '%'
		ORDER BY path
		LIMIT 50
	`

	db, err := openIndexDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(cmd.Context(), query, term, term, term)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
