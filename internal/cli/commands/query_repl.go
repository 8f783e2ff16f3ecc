package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// runQueryREPL runs an interactive SQL shell against the index database.
func runQueryREPL(cmd *cobra.Command, statePath string, opts *QueryOptions) error {
	db, err := openIndexDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "relnote> ",
		HistoryFile:     filepath.Join(filepath.Dir(statePath), "query_history"),
		AutoComplete:    newTableCompleter(ctx, db),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintf(out, "relnote query shell (%s)\n", statePath)
	fmt.Fprintln(out, `Type SQL terminated by ";", or ".help" for commands.`)

	// Session output format, mutable via .format.
	format := opts.Format

	var buf strings.Builder
	for {
		if buf.Len() > 0 {
			rl.SetPrompt("    ...> ")
		} else {
			rl.SetPrompt("relnote> ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Dot commands apply even mid-statement, so .clear can discard one.
		if strings.HasPrefix(trimmed, ".") {
			quit, err := handleDotCommand(ctx, out, db, trimmed, &buf, &format)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if !strings.HasSuffix(trimmed, ";") {
			continue
		}

		sqlQuery := strings.TrimSuffix(strings.TrimSpace(buf.String()), ";")
		buf.Reset()

		rows, err := db.QueryContext(ctx, sqlQuery)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := renderResults(out, rows, format); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		_ = rows.Close()
	}
}

// handleDotCommand executes a REPL dot command. It may reset the pending
// statement buffer or switch the session output format. Returns true to exit.
func handleDotCommand(ctx context.Context, out io.Writer, db *sql.DB, line string, buf *strings.Builder, format *string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".quit", ".exit":
		return true, nil
	case ".help":
		fmt.Fprint(out, `Commands:
  .tables          list tables and views
  .schema <table>  show table columns
  .ticket <n>      fragments referencing ticket n
  .tag <name>      fragments carrying a tag
  .format <fmt>    set output format (table, json, csv, md)
  .clear           discard the current statement
  .quit            exit the shell

Any other input is executed as SQL once it ends with ";".
`)
		return false, nil
	case ".tables":
		return false, listTablesFromDB(ctx, out, db, *format)
	case ".schema":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: .schema <table>")
		}
		return false, showSchemaFromDB(ctx, out, db, fields[1], *format)
	case ".ticket":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: .ticket <number>")
		}
		return false, runREPLQuery(ctx, out, db, *format, `
			SELECT f.path, f.series, f.title
			FROM fragments f
			JOIN fragment_tickets t ON t.fragment_id = f.id
			WHERE t.ticket = ?
			ORDER BY f.path`, fields[1])
	case ".tag":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: .tag <name>")
		}
		return false, runREPLQuery(ctx, out, db, *format, `
			SELECT f.path, f.series, f.title
			FROM fragments f
			JOIN fragment_tags t ON t.fragment_id = f.id
			WHERE t.tag = ?
			ORDER BY f.path`, fields[1])
	case ".format":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: .format <table|json|csv|md>")
		}
		switch fields[1] {
		case "table", "json", "csv", "md":
			*format = fields[1]
			return false, nil
		default:
			return false, fmt.Errorf("unknown format %q (want table, json, csv or md)", fields[1])
		}
	case ".clear":
		buf.Reset()
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s (try .help)", fields[0])
	}
}

func runREPLQuery(ctx context.Context, out io.Writer, db *sql.DB, format, query string, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return renderResults(out, rows, format)
}

// newTableCompleter builds a completer over dot commands and table names.
func newTableCompleter(ctx context.Context, db *sql.DB) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err == nil {
		for rows.Next() {
			var name string
			if rows.Scan(&name) == nil {
				tables = append(tables, readline.PcItem(name))
			}
		}
		_ = rows.Close()
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".ticket"),
		readline.PcItem(".tag"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("SELECT"),
		readline.PcItem("FROM", tables...),
		readline.PcItem("WHERE"),
	)
}
