package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderResults renders SQL query results in the requested format.
func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to get columns: %w", err)
	}

	var results [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration failed: %w", err)
	}

	switch format {
	case "json":
		return renderResultsJSON(w, columns, results)
	case "csv":
		return renderResultsCSV(w, columns, results)
	case "md", "markdown":
		return renderResultsMarkdown(w, columns, results)
	default:
		return renderResultsTable(w, columns, results)
	}
}

func renderResultsTable(w io.Writer, columns []string, results [][]any) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, result := range results {
		row := make(table.Row, len(result))
		for i, v := range result {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

func renderResultsJSON(w io.Writer, columns []string, results [][]any) error {
	out := make([]map[string]any, 0, len(results))
	for _, result := range results {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(result[i])
		}
		out = append(out, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderResultsCSV(w io.Writer, columns []string, results [][]any) error {
	fmt.Fprintln(w, strings.Join(columns, ","))
	for _, result := range results {
		fields := make([]string, len(result))
		for i, v := range result {
			fields[i] = escapeCSV(formatValue(v))
		}
		fmt.Fprintln(w, strings.Join(fields, ","))
	}
	return nil
}

func renderResultsMarkdown(w io.Writer, columns []string, results [][]any) error {
	fmt.Fprintf(w, "| %s |\n", strings.Join(columns, " | "))
	seps := make([]string, len(columns))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, result := range results {
		fields := make([]string, len(result))
		for i, v := range result {
			fields[i] = formatValue(v)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(fields, " | "))
	}
	return nil
}

// formatValue formats a scanned SQL value for display.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// normalizeValue converts driver byte slices into strings for JSON output.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// listTablesFromDB lists user tables in the index database.
func listTablesFromDB(ctx context.Context, w io.Writer, db *sql.DB, format string) error {
	query := `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		  AND name NOT LIKE 'goose_%'
		ORDER BY name
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// columnInfo mirrors the PRAGMA table_info output.
type columnInfo struct {
	Name     string
	Type     string
	NotNull  bool
	Default  sql.NullString
	IsPK     bool
	Position int
}

// showSchemaFromDB prints the column layout of a table.
func showSchemaFromDB(ctx context.Context, w io.Writer, db *sql.DB, tableName, format string) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []columnInfo
	for rows.Next() {
		var c columnInfo
		var notNull, pk int
		if err := rows.Scan(&c.Position, &c.Name, &c.Type, &notNull, &c.Default, &pk); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		c.NotNull = notNull != 0
		c.IsPK = pk != 0
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %q not found", tableName)
	}

	columns := []string{"column", "type", "nullable", "default", "pk"}
	results := make([][]any, 0, len(cols))
	for _, c := range cols {
		nullable := "yes"
		if c.NotNull {
			nullable = "no"
		}
		def := ""
		if c.Default.Valid {
			def = c.Default.String
		}
		pk := ""
		if c.IsPK {
			pk = "*"
		}
		results = append(results, []any{c.Name, c.Type, nullable, def, pk})
	}

	switch format {
	case "json":
		return renderResultsJSON(w, columns, results)
	case "csv":
		return renderResultsCSV(w, columns, results)
	case "md", "markdown":
		return renderResultsMarkdown(w, columns, results)
	default:
		return renderResultsTable(w, columns, results)
	}
}
