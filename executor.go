package ogam

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forbearing/ogam/cache"
	"github.com/forbearing/ogam/config"
	"github.com/forbearing/ogam/internal/structmeta"
	"github.com/forbearing/ogam/logger"
	"github.com/forbearing/ogam/ogamerrs"
	"github.com/forbearing/ogam/typehandler"
)

// HydrationMode selects how Executor.Query turns fetched rows into
// values (spec §4.5).
type HydrationMode int

const (
	HydrateScalarMode HydrationMode = iota
	HydrateArrayMode
	HydrateObjectMode
)

// Executor is the spec §4.6 state machine: Open -> Closed. From Open,
// Query/Update/FlushStatements/Commit/Rollback/ClearLocalCache are
// permitted; Close transitions to Closed. Any operation on a Closed
// executor fails with an Executor-kind error except Close (idempotent)
// and IsClosed; ClearLocalCache and LastQuery return no error and still
// run on a Closed executor.
type Executor interface {
	Query(ctx context.Context, ms *MappedStatement, param *Parameter, mode HydrationMode, targetType reflect.Type) (any, error)
	QueryCursor(ctx context.Context, ms *MappedStatement, param *Parameter, mode HydrationMode, targetType reflect.Type) (*Cursor, error)
	Update(ctx context.Context, ms *MappedStatement, param *Parameter) (int64, error)
	FlushStatements(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	ClearLocalCache()
	Close(ctx context.Context, forceRollback bool) error
	IsClosed() bool
	LastQuery() string
}

// pendingBatch accumulates parameter sets for one SQL text under the
// Batch executor (spec §4.6 "Batch"): "for update-class statements with
// identical SQL and parameter shape, accumulate parameter sets and flush
// as a batch."
type pendingBatch struct {
	sql  string
	args [][]any
}

type executorImpl struct {
	cfg      *Configuration
	tx       Transaction
	hydrator *Hydrator
	local    *cache.Local
	kind     config.ExecutorType

	closed    int32
	mu        sync.Mutex
	lastQuery string

	reuseStmts map[string]*sql.Stmt // Reuse executor only
	batches    []*pendingBatch      // Batch executor only, in first-seen order
}

// NewExecutor builds an Executor of the given kind over tx. cfg supplies
// the second-level settings and the Hydrator's type registry.
func NewExecutor(cfg *Configuration, tx Transaction, kind config.ExecutorType) Executor {
	e := &executorImpl{
		cfg:      cfg,
		tx:       tx,
		hydrator: NewHydrator(cfg),
		local:    cache.NewLocal(),
		kind:     kind,
	}
	if kind == config.ExecutorReuse {
		e.reuseStmts = make(map[string]*sql.Stmt)
	}
	return e
}

func (e *executorImpl) IsClosed() bool { return atomic.LoadInt32(&e.closed) == 1 }

func (e *executorImpl) checkOpen() error {
	if e.IsClosed() {
		return ogamerrs.New(ogamerrs.Executor, "executor is closed")
	}
	return nil
}

func (e *executorImpl) LastQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastQuery
}

func (e *executorImpl) setLastQuery(sqlText string) {
	e.mu.Lock()
	e.lastQuery = sqlText
	e.mu.Unlock()
}

// Query implements spec §4.6's query path. Select statements against a
// Batch executor first flush any pending batch, to preserve
// read-your-writes.
func (e *executorImpl) Query(ctx context.Context, ms *MappedStatement, param *Parameter, mode HydrationMode, targetType reflect.Type) (result any, err error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if e.kind == config.ExecutorBatch {
		if err := e.FlushStatements(ctx); err != nil {
			return nil, err
		}
	}

	bound, err := ms.SQLSource.Render(e.cfg, param)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Sql, err, "render sql for "+ms.FullID)
	}
	e.setLastQuery(bound.SQL)

	ctx, span := startStatementSpan(ctx, "ogam.query", ms.FullID, bound.SQL)
	defer func() { recordSpanError(span, err); span.End() }()

	cacheEnabled := e.cfg.Settings.CacheEnabled && !ms.FlushCache()
	var key cache.Key
	if cacheEnabled {
		key = cache.NewKey(ms.FullID, param.Root(), -1, -1)
		if v, ok := e.local.Get(key); ok {
			return v, nil
		}
	}
	if ms.FlushCache() {
		e.local.Clear()
	}

	args, err := e.bindArgs(bound, param)
	if err != nil {
		return nil, err
	}

	stmt, release, err := e.prepare(ctx, bound.SQL)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Sql, err, "prepare "+ms.FullID)
	}
	defer release()

	started := time.Now()
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, wrapSQLError(err, bound.SQL, args)
	}
	defer rows.Close() //nolint:errcheck
	rawRows, err := scanRows(rows)
	if err != nil {
		return nil, wrapSQLError(err, bound.SQL, args)
	}
	logger.Executor.Debugw("query executed",
		"statementId", ms.FullID, "sql", bound.SQL, "rowCount", len(rawRows),
		"elapsedMs", time.Since(started).Milliseconds())

	var rm *ResultMap
	if ms.ResultMapID != "" {
		if rm, err = e.cfg.ResultMap(ms.ResultMapID); err != nil {
			return nil, err
		}
	}
	result, err = e.hydrate(rawRows, mode, rm, targetType)
	if err != nil {
		return nil, err
	}
	if cacheEnabled {
		e.local.Put(key, result)
	}
	return result, nil
}

// QueryCursor opens a forward-only Cursor instead of materializing every
// row (spec §5 "selectCursor"). It bypasses the first-level cache:
// streaming results and whole-result caching are mutually exclusive.
func (e *executorImpl) QueryCursor(ctx context.Context, ms *MappedStatement, param *Parameter, mode HydrationMode, targetType reflect.Type) (*Cursor, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if e.kind == config.ExecutorBatch {
		if err := e.FlushStatements(ctx); err != nil {
			return nil, err
		}
	}
	bound, err := ms.SQLSource.Render(e.cfg, param)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Sql, err, "render sql for "+ms.FullID)
	}
	e.setLastQuery(bound.SQL)

	args, err := e.bindArgs(bound, param)
	if err != nil {
		return nil, err
	}
	stmt, release, err := e.prepare(ctx, bound.SQL)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Sql, err, "prepare "+ms.FullID)
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		release()
		return nil, wrapSQLError(err, bound.SQL, args)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close() //nolint:errcheck
		release()
		return nil, err
	}
	var rm *ResultMap
	if ms.ResultMapID != "" {
		rm, _ = e.cfg.ResultMap(ms.ResultMapID) //nolint:errcheck
	}
	return newCursor(stmt, release, rows, cols, e.hydrator, mode, rm, targetType), nil
}

func (e *executorImpl) hydrate(rows []map[string]any, mode HydrationMode, rm *ResultMap, targetType reflect.Type) (any, error) {
	switch mode {
	case HydrateScalarMode:
		return e.hydrator.HydrateScalar(rows)
	case HydrateArrayMode:
		return e.hydrator.HydrateArray(rows)
	default:
		if targetType == nil {
			return nil, ogamerrs.New(ogamerrs.Binding, "object hydration requires a target type")
		}
		if rm == nil {
			rm = &ResultMap{ID: "$auto$", TargetType: targetType.String(), AutoMapping: true}
		}
		return e.hydrator.HydrateObjects(rows, rm, targetType)
	}
}

// Update implements spec §4.6's update path.
func (e *executorImpl) Update(ctx context.Context, ms *MappedStatement, param *Parameter) (affected int64, err error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	bound, err := ms.SQLSource.Render(e.cfg, param)
	if err != nil {
		return 0, ogamerrs.Wrap(ogamerrs.Sql, err, "render sql for "+ms.FullID)
	}
	e.setLastQuery(bound.SQL)

	ctx, span := startStatementSpan(ctx, "ogam.update", ms.FullID, bound.SQL)
	defer func() { recordSpanError(span, err); span.End() }()

	if ms.FlushCache() {
		e.local.Clear()
	}

	args, err := e.bindArgs(bound, param)
	if err != nil {
		return 0, err
	}

	if e.kind == config.ExecutorBatch {
		e.enqueueBatch(bound.SQL, args)
		return 0, nil
	}

	affected, lastID, err := e.execOne(ctx, bound.SQL, args)
	if err != nil {
		return 0, err
	}
	if ms.UseGeneratedKeys && ms.KeyProperty != "" {
		if err := assignGeneratedKey(param, ms.KeyProperty, lastID); err != nil {
			return affected, err
		}
	}
	return affected, nil
}

func (e *executorImpl) execOne(ctx context.Context, sqlText string, args []any) (affected, lastID int64, err error) {
	stmt, release, err := e.prepare(ctx, sqlText)
	if err != nil {
		return 0, 0, ogamerrs.Wrap(ogamerrs.Sql, err, "prepare update")
	}
	defer release()

	started := time.Now()
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, 0, wrapSQLError(err, sqlText, args)
	}
	n, _ := res.RowsAffected() //nolint:errcheck
	id, _ := res.LastInsertId() //nolint:errcheck
	logger.Executor.Debugw("update executed", "sql", sqlText, "rowsAffected", n, "elapsedMs", time.Since(started).Milliseconds())
	return n, id, nil
}

func (e *executorImpl) enqueueBatch(sqlText string, args []any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.batches {
		if b.sql == sqlText {
			b.args = append(b.args, args)
			return
		}
	}
	e.batches = append(e.batches, &pendingBatch{sql: sqlText, args: [][]any{args}})
}

// FlushStatements executes and clears any pending batch (spec §4.6).
func (e *executorImpl) FlushStatements(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.mu.Lock()
	batches := e.batches
	e.batches = nil
	e.mu.Unlock()

	for _, b := range batches {
		for _, args := range b.args {
			if _, _, err := e.execOne(ctx, b.sql, args); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *executorImpl) Commit(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := e.FlushStatements(ctx); err != nil {
		return err
	}
	e.local.Clear()
	return e.tx.Commit(ctx)
}

func (e *executorImpl) Rollback(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.mu.Lock()
	e.batches = nil
	e.mu.Unlock()
	e.local.Clear()
	return e.tx.Rollback(ctx)
}

func (e *executorImpl) ClearLocalCache() { e.local.Clear() }

func (e *executorImpl) Close(ctx context.Context, forceRollback bool) error {
	if e.IsClosed() {
		return nil
	}
	atomic.StoreInt32(&e.closed, 1)
	e.mu.Lock()
	for _, stmt := range e.reuseStmts {
		_ = stmt.Close() //nolint:errcheck
	}
	e.reuseStmts = nil
	e.mu.Unlock()
	return e.tx.Close(ctx, forceRollback)
}

// preparer is satisfied by both *sql.Conn and *sql.Tx. Once a Transaction
// has an active *sql.Tx, statements must be prepared through it rather
// than through the underlying *sql.Conn directly: database/sql dedicates
// the connection to the transaction for its lifetime, and preparing on
// the bare Conn in that window does not participate in it.
type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (e *executorImpl) preparer() preparer {
	if tx := e.tx.Tx(); tx != nil {
		return tx
	}
	return e.tx.Conn()
}

// prepare obtains a *sql.Stmt for sqlText according to the executor's
// kind (spec §4.6): Simple prepares fresh and the returned release
// closes it; Reuse caches by the SQL text itself (a stable hash of the
// finalized string) for the executor's lifetime; Batch behaves like
// Simple for ad hoc statements since its special handling lives in
// Update/enqueueBatch instead.
func (e *executorImpl) prepare(ctx context.Context, sqlText string) (*sql.Stmt, func(), error) {
	p := e.preparer()
	if e.kind != config.ExecutorReuse {
		stmt, err := p.PrepareContext(ctx, sqlText)
		if err != nil {
			return nil, nil, err
		}
		return stmt, func() { _ = stmt.Close() }, nil //nolint:errcheck
	}

	e.mu.Lock()
	stmt, ok := e.reuseStmts[sqlText]
	e.mu.Unlock()
	if ok {
		return stmt, func() {}, nil
	}
	stmt, err := p.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	e.reuseStmts[sqlText] = stmt
	e.mu.Unlock()
	return stmt, func() {}, nil
}

// bindArgs resolves each ParameterMapping's property path against param,
// selects a type handler (explicit name > declared type > runtime
// value), and converts it for binding (spec §4.6 step 3).
func (e *executorImpl) bindArgs(bound *BoundSql, param *Parameter) ([]any, error) {
	args := make([]any, len(bound.ParameterMappings))
	for i, pm := range bound.ParameterMappings {
		v, err := param.Resolve(pm.Property)
		if err != nil {
			return nil, ogamerrs.Wrap(ogamerrs.Binding, err, "resolve parameter "+pm.Property)
		}
		var handler typehandler.TypeHandler
		switch {
		case pm.TypeHandlerName != "":
			handler = e.cfg.TypeHandlers.Lookup(pm.TypeHandlerName)
		case pm.TypeName != "":
			handler = e.cfg.TypeHandlers.Lookup(pm.TypeName)
		default:
			handler = e.cfg.TypeHandlers.LookupValue(v)
		}
		converted, err := handler.SetParameter(v)
		if err != nil {
			return nil, ogamerrs.Wrap(ogamerrs.Type, err, "bind parameter "+pm.Property)
		}
		args[i] = converted
	}
	return args, nil
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// assignGeneratedKey writes a driver-generated last-insert-id back onto
// param at keyProperty (spec §4.6 step 2): a setter, then a named field,
// then (for map parameters) a map entry.
func assignGeneratedKey(param *Parameter, keyProperty string, lastID int64) error {
	root := param.Root()
	if root == nil {
		return ogamerrs.New(ogamerrs.Configuration, "useGeneratedKeys: nil parameter cannot receive a generated key")
	}
	if m, ok := root.(map[string]any); ok {
		m[keyProperty] = lastID
		return nil
	}
	rv := reflect.ValueOf(root)
	if rv.Kind() != reflect.Pointer {
		return ogamerrs.Newf(ogamerrs.Configuration,
			"useGeneratedKeys: parameter must be a pointer or map to receive keyProperty %q", keyProperty)
	}
	meta := structmeta.Of(derefType(rv.Type()))
	return setProperty(rv, meta, keyProperty, lastID)
}

// wrapSQLError wraps a driver error in a Sql-kind ogamerrs error carrying
// SQL text and bound parameters (spec §4.6 "Error handling", spec §7).
func wrapSQLError(err error, sqlText string, args []any) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return ogamerrs.Wrapf(ogamerrs.Sql, err, "sql=%q params=[%s]", sqlText, strings.Join(parts, ", "))
}
