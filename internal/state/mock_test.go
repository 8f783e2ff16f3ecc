package state

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/relnote-labs/relnote/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreNotOpened(t *testing.T) {
	s := NewSQLiteStore()

	_, err := s.BeginIndexRun()
	assert.ErrorContains(t, err, "database not opened")

	err = s.ReplaceFragments(nil)
	assert.ErrorContains(t, err, "database not opened")

	_, err = s.FragmentsByTicket(1)
	assert.ErrorContains(t, err, "database not opened")

	err = s.RecordRelease(&core.Release{Version: "1.0"})
	assert.ErrorContains(t, err, "database not opened")

	assert.NoError(t, s.Close(), "close on unopened store is a no-op")
}

func TestReplaceFragmentsRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM fragments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO fragments").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	s := &SQLiteStore{db: db}
	err = s.ReplaceFragments([]*core.IndexedFragment{
		{Path: "unreleased/1.rst", Series: "default", Hash: "a"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert fragment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryFragmentsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT DISTINCT").WillReturnError(assert.AnError)

	s := &SQLiteStore{db: db}
	_, err = s.FragmentsByTag("bug")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query fragments")
}

func TestFinishIndexRunError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("UPDATE index_runs").WillReturnError(assert.AnError)

	s := &SQLiteStore{db: db}
	run := &core.IndexRun{ID: "run-1", Status: core.IndexRunRunning}
	err = s.FinishIndexRun(run, 3, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to finish index run")
}
