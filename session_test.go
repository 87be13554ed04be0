package ogam_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/forbearing/ogam"
	"github.com/forbearing/ogam/config"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T) (*ogam.SessionFactory, sqlmock.Sqlmock, *ogam.Configuration) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() }) //nolint:errcheck

	cfg := ogam.NewConfiguration()
	env := &ogam.Environment{
		ID:                 "test",
		DataSource:         ogam.NewDataSource(db),
		TransactionFactory: ogam.ManagedTransactionFactory{},
	}
	cfg.RegisterEnvironment(env, true)
	return ogam.NewSessionFactory(cfg), mock, cfg
}

func TestSessionSelectListArrayMode(t *testing.T) {
	factory, mock, cfg := newTestFactory(t)

	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:     "UserMapper.selectAll",
		Kind:       ogam.Select,
		SQLSource:  &ogam.StaticSQLSource{SQL: "SELECT id, name FROM users"},
		ResultMode: ogam.ResultArray,
	}))

	mock.ExpectBegin()
	mock.ExpectPrepare("SELECT id, name FROM users")
	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "ann").
			AddRow(int64(2), "bob"))
	mock.ExpectCommit()

	sess, err := factory.OpenSession(context.Background())
	require.NoError(t, err)
	defer sess.Close(context.Background(), true) //nolint:errcheck

	rows, err := sess.SelectList(context.Background(), "UserMapper.selectAll", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first, ok := rows[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ann", first["name"])

	require.NoError(t, sess.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionInsertAssignsGeneratedKey(t *testing.T) {
	factory, mock, cfg := newTestFactory(t)

	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:           "UserMapper.insert",
		Kind:             ogam.Insert,
		SQLSource:        &ogam.StaticSQLSource{SQL: "INSERT INTO users(name) VALUES (?)", ParameterMappings: []ogam.ParameterMapping{{Property: "name"}}},
		UseGeneratedKeys: true,
		KeyProperty:      "id",
	}))

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO users")
	mock.ExpectExec("INSERT INTO users").
		WithArgs("ann").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	sess, err := factory.OpenSession(context.Background())
	require.NoError(t, err)
	defer sess.Close(context.Background(), true) //nolint:errcheck

	param := map[string]any{"name": "ann"}
	affected, err := sess.Insert(context.Background(), "UserMapper.insert", param)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.Equal(t, int64(42), param["id"])

	require.NoError(t, sess.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRollbackAfterSimpleDelete(t *testing.T) {
	factory, mock, cfg := newTestFactory(t)
	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:    "UserMapper.delete",
		Kind:      ogam.Delete,
		SQLSource: &ogam.StaticSQLSource{SQL: "DELETE FROM users WHERE id = ?", ParameterMappings: []ogam.ParameterMapping{{Property: "id"}}},
	}))

	mock.ExpectBegin()
	mock.ExpectPrepare("DELETE FROM users")
	mock.ExpectExec("DELETE FROM users").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	sess, err := factory.OpenSession(context.Background(), ogam.WithExecutorType(config.ExecutorSimple))
	require.NoError(t, err)
	defer sess.Close(context.Background(), true) //nolint:errcheck

	_, err = sess.Delete(context.Background(), "UserMapper.delete", map[string]any{"id": int64(1)})
	require.NoError(t, err)
	require.NoError(t, sess.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
