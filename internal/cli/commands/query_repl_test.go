package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotFormatSwitchesSessionFormat(t *testing.T) {
	var buf strings.Builder
	format := "table"
	out := new(bytes.Buffer)

	quit, err := handleDotCommand(context.Background(), out, nil, ".format json", &buf, &format)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, "json", format)
}

func TestDotFormatRejectsUnknownFormat(t *testing.T) {
	var buf strings.Builder
	format := "table"

	_, err := handleDotCommand(context.Background(), new(bytes.Buffer), nil, ".format xml", &buf, &format)
	require.Error(t, err)
	assert.Equal(t, "table", format, "format must stay unchanged on error")
}

func TestDotFormatRequiresArgument(t *testing.T) {
	var buf strings.Builder
	format := "table"

	_, err := handleDotCommand(context.Background(), new(bytes.Buffer), nil, ".format", &buf, &format)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage:")
}

func TestDotClearDiscardsPendingStatement(t *testing.T) {
	var buf strings.Builder
	buf.WriteString("SELECT path\n")
	buf.WriteString("FROM fragments\n")
	format := "table"

	quit, err := handleDotCommand(context.Background(), new(bytes.Buffer), nil, ".clear", &buf, &format)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Zero(t, buf.Len(), "pending statement must be discarded")
}

func TestDotQuitExitsShell(t *testing.T) {
	var buf strings.Builder
	format := "table"

	for _, cmd := range []string{".quit", ".exit"} {
		quit, err := handleDotCommand(context.Background(), new(bytes.Buffer), nil, cmd, &buf, &format)
		require.NoError(t, err)
		assert.True(t, quit)
	}
}

func TestDotUnknownCommand(t *testing.T) {
	var buf strings.Builder
	format := "table"

	_, err := handleDotCommand(context.Background(), new(bytes.Buffer), nil, ".nope", &buf, &format)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".help")
}

func TestDotTablesUsesSessionFormat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM sqlite_master").WillReturnRows(
		sqlmock.NewRows([]string{"name", "type"}).AddRow("fragments", "table"))

	var buf strings.Builder
	format := "csv"
	out := new(bytes.Buffer)

	quit, err := handleDotCommand(context.Background(), out, db, ".tables", &buf, &format)
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "fragments,table")
	require.NoError(t, mock.ExpectationsWereMet())
}
