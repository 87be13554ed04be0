package ogam_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/forbearing/ogam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagedTransactionCommitLeavesNoActiveTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectBegin()
	mock.ExpectCommit()

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)

	tx, err := ogam.NewManagedTransaction(context.Background(), conn, ogam.IsolationDefault)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	assert.Error(t, tx.Commit(context.Background()), "committing twice must fail: no active transaction remains")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManagedTransactionSavepointsUnsupported(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectBegin()
	mock.ExpectRollback()

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	tx, err := ogam.NewManagedTransaction(context.Background(), conn, ogam.IsolationDefault)
	require.NoError(t, err)

	_, err = tx.CreateSavepoint(context.Background(), "")
	assert.Error(t, err)

	require.NoError(t, tx.Close(context.Background(), true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJDBCTransactionAutoCommitCommitIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	tx, err := ogam.NewJDBCTransaction(context.Background(), conn, ogam.IsolationDefault, true)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	require.NoError(t, tx.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet(), "autocommit mode must never begin/commit a transaction")

	require.NoError(t, tx.Close(context.Background(), true))
}

func TestJDBCTransactionReBeginsAfterCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	tx, err := ogam.NewJDBCTransaction(context.Background(), conn, ogam.IsolationDefault, false)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	require.NotNil(t, tx.Tx(), "jdbc-style non-autocommit must re-begin immediately after commit")

	require.NoError(t, tx.Close(context.Background(), true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJDBCTransactionSavepointRollbackInvalidatesLaterSavepoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT ogam_sp_").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT ogam_sp_").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT ogam_sp_").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT ogam_sp_").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	tx, err := ogam.NewJDBCTransaction(context.Background(), conn, ogam.IsolationDefault, false)
	require.NoError(t, err)

	sp1, err := tx.CreateSavepoint(context.Background(), "")
	require.NoError(t, err)
	sp2, err := tx.CreateSavepoint(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, tx.RollbackToSavepoint(context.Background(), sp1))
	assert.Error(t, tx.ReleaseSavepoint(context.Background(), sp2), "sp2 must be invalidated by rolling back to sp1")
	require.NoError(t, tx.ReleaseSavepoint(context.Background(), sp1))

	require.NoError(t, tx.Close(context.Background(), true))
	require.NoError(t, mock.ExpectationsWereMet())
}
