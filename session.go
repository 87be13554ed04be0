package ogam

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/forbearing/ogam/config"
	"github.com/forbearing/ogam/ogamerrs"
)

// SessionFactory opens Sessions against a Configuration (spec §6). One
// factory is typically built once at startup and shared across
// goroutines; the Sessions it opens are not themselves safe for
// concurrent use (spec §5).
type SessionFactory struct {
	cfg *Configuration
}

// NewSessionFactory builds a SessionFactory over cfg. cfg must already
// have at least one Environment registered.
func NewSessionFactory(cfg *Configuration) *SessionFactory {
	return &SessionFactory{cfg: cfg}
}

type sessionOptions struct {
	environment  string
	executorType config.ExecutorType
}

// SessionOption configures OpenSession.
type SessionOption func(*sessionOptions)

// WithEnvironment selects a non-default registered Environment by id.
func WithEnvironment(id string) SessionOption {
	return func(o *sessionOptions) { o.environment = id }
}

// WithExecutorType overrides config.Settings.DefaultExecutorType for this
// Session only.
func WithExecutorType(t config.ExecutorType) SessionOption {
	return func(o *sessionOptions) { o.executorType = t }
}

// OpenSession borrows a connection from the selected Environment's
// DataSource, begins a Transaction over it per that Environment's
// TransactionFactory, and wraps it in an Executor (spec §3: "A Session
// owns exactly one Executor; an Executor owns exactly one Transaction").
func (f *SessionFactory) OpenSession(ctx context.Context, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{executorType: f.cfg.Settings.DefaultExecutorType}
	for _, apply := range opts {
		apply(&o)
	}

	env, err := f.cfg.Environment(o.environment)
	if err != nil {
		return nil, err
	}
	conn, err := env.DataSource.Conn(ctx)
	if err != nil {
		return nil, ogamerrs.Wrap(ogamerrs.Sql, err, "open connection on environment "+env.ID)
	}
	tx, err := env.TransactionFactory.NewTransaction(ctx, conn)
	if err != nil {
		_ = conn.Close() //nolint:errcheck
		return nil, err
	}
	exec := NewExecutor(f.cfg, tx, o.executorType)
	return &Session{cfg: f.cfg, executor: exec}, nil
}

// Session is the spec §6 external interface: selectOne/selectList/
// selectMap/selectCursor, insert/update/delete, commit/rollback/close,
// clearCache, getLastQuery, and getMapper. A Session is open until
// Close; operations after Close fail.
type Session struct {
	cfg      *Configuration
	executor Executor
	closed   int32
}

func (s *Session) checkOpen() error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ogamerrs.New(ogamerrs.Executor, "session is closed")
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool { return atomic.LoadInt32(&s.closed) == 1 }

func (s *Session) statementAndParam(id string, param any) (*MappedStatement, *Parameter, error) {
	ms, err := s.cfg.Statement(id)
	if err != nil {
		return nil, nil, err
	}
	return ms, NewParameter(param), nil
}

func (s *Session) resultTarget(ms *MappedStatement) (HydrationMode, *ResultMap, reflect.Type, error) {
	switch ms.ResultMode {
	case ResultScalar:
		return HydrateScalarMode, nil, nil, nil
	case ResultArray:
		return HydrateArrayMode, nil, nil, nil
	default:
		if ms.ResultMapID != "" {
			rm, err := s.cfg.ResultMap(ms.ResultMapID)
			if err != nil {
				return 0, nil, nil, err
			}
			t, ok := s.cfg.GoType(rm.TargetType)
			if !ok {
				return 0, nil, nil, ogamerrs.Newf(ogamerrs.Configuration, "no Go type registered for result map target %q", rm.TargetType)
			}
			return HydrateObjectMode, rm, t, nil
		}
		t, ok := s.cfg.GoType(ms.ResultTypeName)
		if !ok {
			return 0, nil, nil, ogamerrs.Newf(ogamerrs.Configuration, "no Go type registered for result type %q", ms.ResultTypeName)
		}
		return HydrateObjectMode, nil, t, nil
	}
}

// SelectOne runs a Select statement and returns its single result, or
// (nil, nil) if it produced no rows. More than one row is a usage error.
func (s *Session) SelectOne(ctx context.Context, id string, param any) (any, error) {
	list, err := s.SelectList(ctx, id, param)
	if err != nil {
		return nil, err
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	default:
		return nil, ogamerrs.Newf(ogamerrs.Executor, "selectOne %q returned %d rows, expected at most 1", id, len(list))
	}
}

// SelectList runs a Select statement and returns every result.
func (s *Session) SelectList(ctx context.Context, id string, param any) ([]any, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	ms, p, err := s.statementAndParam(id, param)
	if err != nil {
		return nil, err
	}
	mode, _, target, err := s.resultTarget(ms)
	if err != nil {
		return nil, err
	}
	result, err := s.executor.Query(ctx, ms, p, mode, target)
	if err != nil {
		return nil, err
	}
	list, _ := result.([]any)
	return list, nil
}

// SelectMap runs a Select statement and folds its results into a map
// keyed by each result's mapKey property (spec §6 "selectMap").
func (s *Session) SelectMap(ctx context.Context, id string, mapKey string, param any) (map[string]any, error) {
	list, err := s.SelectList(ctx, id, param)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(list))
	for _, item := range list {
		k, err := mapKeyOf(item, mapKey)
		if err != nil {
			return nil, err
		}
		out[k] = item
	}
	return out, nil
}

func mapKeyOf(item any, property string) (string, error) {
	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", ogamerrs.Newf(ogamerrs.Binding, "selectMap: nil value for key property %q", property)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		v := rv.MapIndex(reflect.ValueOf(property))
		if !v.IsValid() {
			return "", ogamerrs.Newf(ogamerrs.Binding, "selectMap: missing key %q", property)
		}
		return fmt.Sprint(v.Interface()), nil
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Sprint(item), nil
	}
	f := rv.FieldByName(property)
	if !f.IsValid() {
		return "", ogamerrs.Newf(ogamerrs.Binding, "selectMap: no field %q on %s", property, rv.Type())
	}
	return fmt.Sprint(f.Interface()), nil
}

// SelectCursor runs a Select statement lazily, returning a Cursor the
// caller must Close.
func (s *Session) SelectCursor(ctx context.Context, id string, param any) (*Cursor, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	ms, p, err := s.statementAndParam(id, param)
	if err != nil {
		return nil, err
	}
	mode, _, target, err := s.resultTarget(ms)
	if err != nil {
		return nil, err
	}
	return s.executor.QueryCursor(ctx, ms, p, mode, target)
}

// Insert runs an Insert-kind statement, returning rows affected. When
// the statement has UseGeneratedKeys set, the generated key is written
// back onto param at KeyProperty before returning.
func (s *Session) Insert(ctx context.Context, id string, param any) (int64, error) {
	return s.execUpdate(ctx, id, param, Insert)
}

// Update runs an Update-kind statement, returning rows affected.
func (s *Session) Update(ctx context.Context, id string, param any) (int64, error) {
	return s.execUpdate(ctx, id, param, Update)
}

// Delete runs a Delete-kind statement, returning rows affected.
func (s *Session) Delete(ctx context.Context, id string, param any) (int64, error) {
	return s.execUpdate(ctx, id, param, Delete)
}

func (s *Session) execUpdate(ctx context.Context, id string, param any, want StatementKind) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	ms, p, err := s.statementAndParam(id, param)
	if err != nil {
		return 0, err
	}
	if ms.Kind != want {
		return 0, ogamerrs.Newf(ogamerrs.Binding, "statement %q is %s, not %s", id, ms.Kind, want)
	}
	return s.executor.Update(ctx, ms, p)
}

// Commit commits the Session's transaction and flushes any pending
// batch.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.executor.Commit(ctx)
}

// Rollback rolls back the Session's transaction, discarding any pending
// batch.
func (s *Session) Rollback(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.executor.Rollback(ctx)
}

// Close releases the Session's connection. forceRollback rolls back an
// in-flight transaction first; Close is idempotent.
func (s *Session) Close(ctx context.Context, forceRollback bool) error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	return s.executor.Close(ctx, forceRollback)
}

// ClearCache clears the Session's first-level cache.
func (s *Session) ClearCache() { s.executor.ClearLocalCache() }

// LastQuery returns the most recently rendered SQL text, for
// diagnostics.
func (s *Session) LastQuery() string { return s.executor.LastQuery() }

// GetMapper returns a MapperProxy for mapperType (which must be an
// interface type; the proxy does not implement it) whose Call translates
// each method name into
// "namespace.MethodName" and dispatching through SelectOne/SelectList/
// Insert/Update/Delete based on the registered MappedStatement's Kind
// (spec §6 "Mapper interfaces").
func (s *Session) GetMapper(namespace string, mapperType reflect.Type) (*MapperProxy, error) {
	if mapperType.Kind() != reflect.Interface {
		return nil, ogamerrs.Newf(ogamerrs.Configuration, "GetMapper: %s is not an interface type", mapperType)
	}
	return newMapperProxy(s, namespace, mapperType), nil
}
