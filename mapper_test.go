package ogam_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/forbearing/ogam"
	"github.com/stretchr/testify/require"
)

type UserMapper interface {
	SelectAll(param any) ([]any, error)
	SelectOne(param any) (any, error)
	Insert(param any) (int64, error)
}

func TestMapperProxyDispatchesByStatementKind(t *testing.T) {
	factory, mock, cfg := newTestFactory(t)
	mapperType := reflect.TypeOf((*UserMapper)(nil)).Elem()

	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:     "UserMapper.SelectAll",
		Kind:       ogam.Select,
		SQLSource:  &ogam.StaticSQLSource{SQL: "SELECT id FROM users"},
		ResultMode: ogam.ResultArray,
	}))
	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:     "UserMapper.SelectOne",
		Kind:       ogam.Select,
		SQLSource:  &ogam.StaticSQLSource{SQL: "SELECT id FROM users WHERE id = 1"},
		ResultMode: ogam.ResultArray,
	}))
	require.NoError(t, cfg.RegisterStatement(&ogam.MappedStatement{
		FullID:    "UserMapper.Insert",
		Kind:      ogam.Insert,
		SQLSource: &ogam.StaticSQLSource{SQL: "INSERT INTO users(name) VALUES (?)", ParameterMappings: []ogam.ParameterMapping{{Property: "name"}}},
	}))

	mock.ExpectBegin()
	mock.ExpectPrepare("SELECT id FROM users$")
	mock.ExpectQuery("SELECT id FROM users$").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectPrepare("SELECT id FROM users WHERE id = 1")
	mock.ExpectQuery("SELECT id FROM users WHERE id = 1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectPrepare("INSERT INTO users")
	mock.ExpectExec("INSERT INTO users").WithArgs("ann").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sess, err := factory.OpenSession(context.Background())
	require.NoError(t, err)
	defer sess.Close(context.Background(), true) //nolint:errcheck

	proxy, err := sess.GetMapper("UserMapper", mapperType)
	require.NoError(t, err)

	listResult, err := proxy.Call(context.Background(), "SelectAll", nil)
	require.NoError(t, err)
	require.IsType(t, []any{}, listResult)

	oneResult, err := proxy.Call(context.Background(), "SelectOne", nil)
	require.NoError(t, err)
	require.NotNil(t, oneResult)

	insertResult, err := proxy.Call(context.Background(), "Insert", map[string]any{"name": "ann"})
	require.NoError(t, err)
	require.Equal(t, int64(1), insertResult)

	require.NoError(t, sess.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapperProxyErrorsOnUnregisteredMethod(t *testing.T) {
	factory, mock, _ := newTestFactory(t)
	mapperType := reflect.TypeOf((*UserMapper)(nil)).Elem()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sess, err := factory.OpenSession(context.Background())
	require.NoError(t, err)

	proxy, err := sess.GetMapper("UserMapper", mapperType)
	require.NoError(t, err)

	_, err = proxy.Call(context.Background(), "DeleteAll", nil)
	require.Error(t, err)

	require.NoError(t, sess.Close(context.Background(), true))
	require.NoError(t, mock.ExpectationsWereMet())
}
