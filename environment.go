package ogam

import (
	"context"
	"database/sql"
)

// DataSource produces database connections. The *sql.DB pool itself
// satisfies this in the common case; it is an interface so tests can
// substitute a mock (e.g. DATA-DOG/go-sqlmock's sql.DB).
type DataSource interface {
	Conn(ctx context.Context) (*sql.Conn, error)
	Close() error
}

// sqlDataSource adapts a *sql.DB to DataSource.
type sqlDataSource struct{ db *sql.DB }

// NewDataSource wraps an already-opened *sql.DB as a DataSource.
func NewDataSource(db *sql.DB) DataSource { return &sqlDataSource{db: db} }

func (d *sqlDataSource) Conn(ctx context.Context) (*sql.Conn, error) { return d.db.Conn(ctx) }
func (d *sqlDataSource) Close() error                                { return d.db.Close() }

// TransactionFactory builds a Transaction over a borrowed connection.
// Environment pairs one of these with a DataSource so every Session
// opened against that Environment gets consistent transaction semantics
// (spec §4.7: Managed vs JDBC-style).
type TransactionFactory interface {
	NewTransaction(ctx context.Context, conn *sql.Conn) (Transaction, error)
}

// ManagedTransactionFactory builds managed transactions (spec §4.7).
type ManagedTransactionFactory struct{ Isolation IsolationLevel }

func (f ManagedTransactionFactory) NewTransaction(ctx context.Context, conn *sql.Conn) (Transaction, error) {
	return NewManagedTransaction(ctx, conn, f.Isolation)
}

// JDBCTransactionFactory builds JDBC-style transactions honoring
// AutoCommit (spec §4.7).
type JDBCTransactionFactory struct {
	Isolation  IsolationLevel
	AutoCommit bool
}

func (f JDBCTransactionFactory) NewTransaction(ctx context.Context, conn *sql.Conn) (Transaction, error) {
	return NewJDBCTransaction(ctx, conn, f.Isolation, f.AutoCommit)
}

// Environment is the immutable tuple (id, DataSource, TransactionFactory)
// of spec §3.
type Environment struct {
	ID                 string
	DataSource         DataSource
	TransactionFactory TransactionFactory
}
