package ogam_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/forbearing/ogam"
	"github.com/stretchr/testify/require"
)

func TestSessionSelectCursorIteratesLazily(t *testing.T) {
	factory, mock, cfg := newTestFactory(t)

	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:     "UserMapper.stream",
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

	cur, err := sess.SelectCursor(context.Background(), "UserMapper.stream", nil)
	require.NoError(t, err)
	defer cur.Close() //nolint:errcheck

	var seen []any
	for {
		ok, err := cur.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, cur.Current())
	}
	require.Len(t, seen, 2)

	ok, err := cur.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sess.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
