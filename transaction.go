package ogam

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/forbearing/ogam/logger"
	"github.com/forbearing/ogam/ogamerrs"
)

// IsolationLevel mirrors database/sql's own isolation enumeration but is
// redeclared here so callers needn't import database/sql/driver to name
// one (spec §4.7 "Isolation level").
type IsolationLevel int

const (
	IsolationDefault IsolationLevel = iota
	IsolationReadUncommitted
	IsolationReadCommitted
	IsolationRepeatableRead
	IsolationSerializable
)

func (l IsolationLevel) sqlIsolation() sql.IsolationLevel {
	switch l {
	case IsolationReadUncommitted:
		return sql.LevelReadUncommitted
	case IsolationReadCommitted:
		return sql.LevelReadCommitted
	case IsolationRepeatableRead:
		return sql.LevelRepeatableRead
	case IsolationSerializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// Transaction wraps one borrowed connection (spec §4.7). Managed and
// JDBC-style are the two concrete behaviors; both share savepoint
// bookkeeping but the spec scopes savepoint usage to the JDBC-style
// variant, so Managed's savepoint methods always fail with a usage
// error.
type Transaction interface {
	Conn() *sql.Conn
	Tx() *sql.Tx
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context, forceRollback bool) error

	CreateSavepoint(ctx context.Context, name string) (string, error)
	ReleaseSavepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
}

var savepointCounter int64

func nextSavepointName() string {
	return fmt.Sprintf("ogam_sp_%d", atomic.AddInt64(&savepointCounter, 1))
}

// managedTransaction begins a transaction on construction if none is
// active; commit/rollback act on it and leave no transaction afterwards;
// close rolls back if a transaction is still active, then releases the
// connection (spec §4.7 "Managed").
type managedTransaction struct {
	conn       *sql.Conn
	isolation  IsolationLevel
	mu         sync.Mutex
	tx         *sql.Tx
	savepoints []string
}

// NewManagedTransaction begins a transaction immediately over conn.
func NewManagedTransaction(ctx context.Context, conn *sql.Conn, isolation IsolationLevel) (Transaction, error) {
	t := &managedTransaction{conn: conn, isolation: isolation}
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: isolation.sqlIsolation()})
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Transaction, err, "begin managed transaction")
	}
	t.tx = tx
	return t, nil
}

func (t *managedTransaction) Conn() *sql.Conn { return t.conn }
func (t *managedTransaction) Tx() *sql.Tx     { return t.tx }

func (t *managedTransaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tx == nil {
		return ogamerrs.New(ogamerrs.Transaction, "commit: no active transaction")
	}
	err := t.tx.Commit()
	t.tx = nil
	t.savepoints = nil
	if err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "commit managed transaction")
	}
	return nil
}

func (t *managedTransaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tx == nil {
		return ogamerrs.New(ogamerrs.Transaction, "rollback: no active transaction")
	}
	err := t.tx.Rollback()
	t.tx = nil
	t.savepoints = nil
	if err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "rollback managed transaction")
	}
	return nil
}

func (t *managedTransaction) Close(ctx context.Context, forceRollback bool) error {
	t.mu.Lock()
	tx := t.tx
	t.mu.Unlock()
	if tx != nil {
		if err := t.Rollback(ctx); err != nil {
			logger.Transaction.Warnf("rollback on close failed: %v", err)
		}
	}
	return t.conn.Close()
}

func (t *managedTransaction) CreateSavepoint(context.Context, string) (string, error) {
	return "", ogamerrs.New(ogamerrs.Transaction, "savepoints are not supported on a managed transaction")
}
func (t *managedTransaction) ReleaseSavepoint(context.Context, string) error {
	return ogamerrs.New(ogamerrs.Transaction, "savepoints are not supported on a managed transaction")
}
func (t *managedTransaction) RollbackToSavepoint(context.Context, string) error {
	return ogamerrs.New(ogamerrs.Transaction, "savepoints are not supported on a managed transaction")
}

// jdbcTransaction honors an autoCommit flag: when false, it begins a
// transaction on construction and re-begins after every commit/rollback,
// so the connection is always inside a transaction between operations;
// when true, commit/rollback are no-ops (spec §4.7 "JDBC-style").
type jdbcTransaction struct {
	conn       *sql.Conn
	isolation  IsolationLevel
	autoCommit bool

	mu         sync.Mutex
	tx         *sql.Tx
	savepoints map[string]bool
	order      []string
}

// NewJDBCTransaction builds a transaction over conn honoring autoCommit.
// When autoCommit is false it begins immediately.
func NewJDBCTransaction(ctx context.Context, conn *sql.Conn, isolation IsolationLevel, autoCommit bool) (Transaction, error) {
	t := &jdbcTransaction{conn: conn, isolation: isolation, autoCommit: autoCommit, savepoints: make(map[string]bool)}
	if !autoCommit {
		if err := t.begin(ctx); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *jdbcTransaction) begin(ctx context.Context) error {
	tx, err := t.conn.BeginTx(ctx, &sql.TxOptions{Isolation: t.isolation.sqlIsolation()})
	if err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "begin jdbc-style transaction")
	}
	t.tx = tx
	t.savepoints = make(map[string]bool)
	t.order = nil
	return nil
}

func (t *jdbcTransaction) Conn() *sql.Conn { return t.conn }
func (t *jdbcTransaction) Tx() *sql.Tx     { return t.tx }

func (t *jdbcTransaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.autoCommit {
		return nil
	}
	if t.tx == nil {
		return ogamerrs.New(ogamerrs.Transaction, "commit: no active transaction")
	}
	if err := t.tx.Commit(); err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "commit jdbc-style transaction")
	}
	return t.begin(ctx)
}

func (t *jdbcTransaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.autoCommit {
		return nil
	}
	if t.tx == nil {
		return ogamerrs.New(ogamerrs.Transaction, "rollback: no active transaction")
	}
	if err := t.tx.Rollback(); err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "rollback jdbc-style transaction")
	}
	return t.begin(ctx)
}

func (t *jdbcTransaction) Close(ctx context.Context, forceRollback bool) error {
	t.mu.Lock()
	tx := t.tx
	t.mu.Unlock()
	if tx != nil && forceRollback && !t.autoCommit {
		if err := t.Rollback(ctx); err != nil {
			logger.Transaction.Warnf("rollback on close failed: %v", err)
		}
	}
	return t.conn.Close()
}

func (t *jdbcTransaction) CreateSavepoint(ctx context.Context, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tx == nil {
		return "", ogamerrs.New(ogamerrs.Transaction, "create savepoint: no active transaction")
	}
	if name == "" {
		name = nextSavepointName()
	}
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return "", ogamerrs.Wrap(ogamerrs.Transaction, err, "create savepoint "+name)
	}
	t.savepoints[name] = true
	t.order = append(t.order, name)
	return name, nil
}

func (t *jdbcTransaction) ReleaseSavepoint(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.savepoints[name] {
		return ogamerrs.Newf(ogamerrs.Transaction, "unknown savepoint %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "release savepoint "+name)
	}
	delete(t.savepoints, name)
	t.removeFromOrder(name)
	return nil
}

func (t *jdbcTransaction) RollbackToSavepoint(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.savepoints[name] {
		return ogamerrs.Newf(ogamerrs.Transaction, "unknown savepoint %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return ogamerrs.Wrap(ogamerrs.Transaction, err, "rollback to savepoint "+name)
	}
	// Rolling back to a savepoint invalidates every savepoint created
	// after it (spec §4.7).
	idx := t.indexInOrder(name)
	for _, later := range t.order[idx+1:] {
		delete(t.savepoints, later)
	}
	t.order = t.order[:idx+1]
	return nil
}

func (t *jdbcTransaction) removeFromOrder(name string) {
	idx := t.indexInOrder(name)
	if idx < 0 {
		return
	}
	t.order = append(t.order[:idx], t.order[idx+1:]...)
}

func (t *jdbcTransaction) indexInOrder(name string) int {
	for i, n := range t.order {
		if n == name {
			return i
		}
	}
	return -1
}
